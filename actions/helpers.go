package actions

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/tailored-agentic-units/course-agent/core/course"
)

type check func(f Fields, s course.Snapshot) string

// exists probes s for the record whose id is at key.
func exists[T any](kind, key string, find func(course.Snapshot, string) (T, bool)) check {
	return func(f Fields, s course.Snapshot) string {
		id := f.String(key)
		if _, ok := find(s, id); !ok {
			return fmt.Sprintf("no %s with id %q in this course", kind, id)
		}
		return ""
	}
}

// existsByName probes s for the record named at key, when key is present.
func existsByName[T any](kind, key string, find func(course.Snapshot, string) (T, bool)) check {
	return func(f Fields, s course.Snapshot) string {
		if !f.Has(key) {
			return ""
		}
		name := f.String(key)
		if _, ok := find(s, name); !ok {
			return fmt.Sprintf("no %s named %q in this course", kind, name)
		}
		return ""
	}
}

// optionalID probes s for the record at key only when key is present.
func optionalID[T any](kind, key string, find func(course.Snapshot, string) (T, bool)) check {
	probe := exists(kind, key, find)
	return func(f Fields, s course.Snapshot) string {
		if !f.Has(key) {
			return ""
		}
		return probe(f, s)
	}
}

// allOf runs checks in order and returns the first reason.
func allOf(checks ...check) check {
	return func(f Fields, s course.Snapshot) string {
		for _, c := range checks {
			if reason := c(f, s); reason != "" {
				return reason
			}
		}
		return ""
	}
}

// resolveName sets idKey from the record named at nameKey when idKey is empty.
func resolveName[T any](kind, idKey, nameKey string, find func(course.Snapshot, string) (T, bool), id func(T) string) func(Fields, course.Snapshot) error {
	return func(f Fields, s course.Snapshot) error {
		if f.Has(idKey) || !f.Has(nameKey) {
			return nil
		}
		rec, ok := find(s, f.String(nameKey))
		if !ok {
			return fmt.Errorf("%w: %s %q", ErrUnresolved, kind, f.String(nameKey))
		}
		f[idKey] = id(rec)
		return nil
	}
}

func resolveAll(resolvers ...func(Fields, course.Snapshot) error) func(Fields, course.Snapshot) error {
	return func(f Fields, s course.Snapshot) error {
		for _, r := range resolvers {
			if err := r(f, s); err != nil {
				return err
			}
		}
		return nil
	}
}

// missing returns the keys of f without a usable value. Numbers must also be
// positive.
func missing(f Fields, keys ...string) []string {
	var out []string
	for _, k := range keys {
		if n, ok := f[k].(float64); ok {
			if n <= 0 {
				out = append(out, k)
			}
			continue
		}
		if !f.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// patch overlays the fields of f onto the JSON form of rec.
func patch[T any](rec T, f Fields) (T, error) {
	base, err := toFields(rec)
	if err != nil {
		return rec, err
	}
	for k, v := range f {
		base[k] = v
	}
	var out T
	if err := decode(base, &out); err != nil {
		return rec, err
	}
	return out, nil
}

// preview decodes f into a record of type T for pipeline overlays.
func preview[T any](f Fields) any {
	var rec T
	_ = decode(f, &rec)
	return rec
}

func commit[T any](action string, rec *T, err error) (Applied, error) {
	if err != nil {
		return Applied{}, err
	}
	if rec == nil {
		return Applied{}, ErrNotSaved
	}
	id, label := identify(*rec)
	return Applied{Action: action, ID: id, Label: label, Record: *rec}, nil
}

func identify(rec any) (id, label string) {
	switch r := rec.(type) {
	case course.Assignment:
		return r.ID, r.Title
	case course.Announcement:
		return r.ID, r.Title
	case course.Module:
		return r.ID, r.Name
	case course.File:
		return r.ID, r.Name
	case course.Enrollment:
		return r.ID, r.Email
	case course.Invite:
		return r.ID, r.Email
	case course.QuestionBank:
		return r.ID, r.Name
	case course.GroupSet:
		return r.ID, r.Name
	case course.Grade:
		return r.ID, fmt.Sprintf("%s on %s", r.UserID, r.AssignmentID)
	}
	return "", ""
}

func aliases(base map[string][]string, extra map[string][]string) map[string][]string {
	out := maps.Clone(base)
	for k, v := range extra {
		out[k] = slices.Concat(out[k], v)
	}
	return out
}

func lower(f Fields, keys ...string) {
	for _, k := range keys {
		if s, ok := f[k].(string); ok {
			f[k] = strings.ToLower(strings.TrimSpace(s))
		}
	}
}

func sameTitle(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func noRepo(kind string) error {
	return fmt.Errorf("%w: %s", ErrNoRepository, kind)
}
