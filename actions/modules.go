package actions

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/course-agent/core/course"
)

// Module item types.
const (
	ItemAssignment   = "assignment"
	ItemAnnouncement = "announcement"
	ItemFile         = "file"
	ItemQuestionBank = "question_bank"
	ItemURL          = "url"
	ItemHeader       = "header"
)

var moduleAliases = map[string][]string{
	"name": {"title", "moduleName"},
}

func moduleDefaults(f Fields, _ Policy) {
	f.Default("position", 0.0)
	f.Default("hidden", false)
}

func createModule(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Modules
	if repo == nil {
		return Applied{}, noRepo("modules")
	}
	var m course.Module
	if err := decode(f, &m); err != nil {
		return Applied{}, fmt.Errorf("decode module: %w", err)
	}
	m.ID = ""
	m.CourseID = env.CourseID
	m.Items = []course.ModuleItem{}
	rec, err := repo.Create(ctx, env.CourseID, m)
	return commit("create_module", rec, err)
}

func updateModule(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Modules
	if repo == nil {
		return Applied{}, noRepo("modules")
	}
	existing, ok := course.FindModule(env.Snapshot, f.String("id"))
	if !ok {
		return Applied{}, fmt.Errorf("%w: module %q", ErrUnresolved, f.String("id"))
	}
	changes := f.Clone()
	delete(changes, "items")
	m, err := patch(existing, changes)
	if err != nil {
		return Applied{}, fmt.Errorf("decode module: %w", err)
	}
	rec, err := repo.Update(ctx, env.CourseID, m)
	return commit("update_module", rec, err)
}

func deleteModule(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Modules
	if repo == nil {
		return Applied{}, noRepo("modules")
	}
	id := f.String("id")
	existing, _ := course.FindModule(env.Snapshot, id)
	if err := repo.Delete(ctx, env.CourseID, id); err != nil {
		return Applied{}, err
	}
	return Applied{Action: "delete_module", ID: id, Label: existing.Name}, nil
}

var moduleItemAliases = map[string][]string{
	"moduleName": {"module"},
	"itemType":   {"kind", "item_type", "contentType"},
	"refId":      {"contentId", "targetId", "itemRefId"},
	"refTitle":   {"refName", "targetTitle", "contentTitle"},
	"title":      {"label", "itemTitle"},
	"url":        {"link", "href"},
}

func rewriteModuleItem(f Fields) {
	lower(f, "itemType")
	if f.String("itemType") == "quiz" {
		f["itemType"] = ItemAssignment
	}
}

func moduleItemDefaults(f Fields, _ Policy) {
	switch {
	case f.Has("itemType"):
	case f.Has("url"):
		f["itemType"] = ItemURL
	case f.Has("refId") || f.Has("refTitle"):
		f["itemType"] = ItemAssignment
	default:
		f["itemType"] = ItemHeader
	}
	f.Default("title", f.String("refTitle"))
}

// refTitle returns the display title of the record an item links to.
func refTitle(s course.Snapshot, itemType, id string) (string, bool) {
	switch itemType {
	case ItemAssignment:
		r, ok := course.FindAssignment(s, id)
		return r.Title, ok
	case ItemAnnouncement:
		r, ok := course.FindAnnouncement(s, id)
		return r.Title, ok
	case ItemFile:
		r, ok := course.FindFile(s, id)
		return r.Name, ok
	case ItemQuestionBank:
		r, ok := course.FindQuestionBank(s, id)
		return r.Name, ok
	}
	return "", false
}

// refID returns the id of the record an item links to by title.
func refID(s course.Snapshot, itemType, title string) (string, bool) {
	switch itemType {
	case ItemAssignment:
		r, ok := course.FindAssignmentByTitle(s, title)
		return r.ID, ok
	case ItemAnnouncement:
		i := slices.IndexFunc(s.Announcements(), func(a course.Announcement) bool { return sameTitle(a.Title, title) })
		if i < 0 {
			return "", false
		}
		return s.Announcements()[i].ID, true
	case ItemFile:
		r, ok := course.FindFileByName(s, title)
		return r.ID, ok
	case ItemQuestionBank:
		r, ok := course.FindQuestionBankByName(s, title)
		return r.ID, ok
	}
	return "", false
}

func checkModuleItem(f Fields, s course.Snapshot) string {
	if f.Has("moduleId") {
		if _, ok := course.FindModule(s, f.String("moduleId")); !ok {
			return fmt.Sprintf("no module with id %q in this course", f.String("moduleId"))
		}
	} else if _, ok := course.FindModuleByName(s, f.String("moduleName")); !ok {
		return fmt.Sprintf("no module named %q in this course", f.String("moduleName"))
	}

	itemType := f.String("itemType")
	switch {
	case itemType == ItemURL:
		if !f.Has("url") {
			return "a url item needs a url"
		}
	case f.Has("refId"):
		if _, ok := refTitle(s, itemType, f.String("refId")); !ok {
			return fmt.Sprintf("no %s with id %q to link", itemTypeLabel(itemType), f.String("refId"))
		}
	case f.Has("refTitle"):
		if _, ok := refID(s, itemType, f.String("refTitle")); !ok {
			return fmt.Sprintf("no %s titled %q to link", itemTypeLabel(itemType), f.String("refTitle"))
		}
	}
	return ""
}

func resolveModuleItem(f Fields, s course.Snapshot) error {
	if !f.Has("moduleId") {
		m, ok := course.FindModuleByName(s, f.String("moduleName"))
		if !ok {
			return fmt.Errorf("%w: module %q", ErrUnresolved, f.String("moduleName"))
		}
		f["moduleId"] = m.ID
	}
	if !f.Has("refId") && f.Has("refTitle") {
		id, ok := refID(s, f.String("itemType"), f.String("refTitle"))
		if !ok {
			return fmt.Errorf("%w: %s %q", ErrUnresolved, itemTypeLabel(f.String("itemType")), f.String("refTitle"))
		}
		f["refId"] = id
	}
	return nil
}

func addModuleItem(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Modules
	if repo == nil {
		return Applied{}, noRepo("modules")
	}
	m, ok := course.FindModule(env.Snapshot, f.String("moduleId"))
	if !ok {
		return Applied{}, fmt.Errorf("%w: module %q", ErrUnresolved, f.String("moduleId"))
	}

	item := course.ModuleItem{
		ID:    uuid.NewString(),
		Type:  f.String("itemType"),
		RefID: f.String("refId"),
		Title: f.String("title"),
		URL:   f.String("url"),
	}
	if item.Title == "" {
		item.Title, _ = refTitle(env.Snapshot, item.Type, item.RefID)
	}
	if item.Title == "" {
		item.Title = item.URL
	}

	m.Items = append(slices.Clone(m.Items), item)
	rec, err := repo.Update(ctx, env.CourseID, m)
	applied, err := commit("add_module_item", rec, err)
	if err != nil {
		return applied, err
	}
	applied.ID = item.ID
	applied.Label = fmt.Sprintf("%s in %s", item.Title, m.Name)
	return applied, nil
}

func checkModuleItemExists(f Fields, s course.Snapshot) string {
	m, ok := course.FindModule(s, f.String("moduleId"))
	if !ok {
		return fmt.Sprintf("no module with id %q in this course", f.String("moduleId"))
	}
	id := f.String("itemId")
	if !slices.ContainsFunc(m.Items, func(it course.ModuleItem) bool { return it.ID == id }) {
		return fmt.Sprintf("module %q has no item with id %q", m.Name, id)
	}
	return ""
}

func removeModuleItem(ctx context.Context, env Env, f Fields) (Applied, error) {
	repo := env.Persistence.Modules
	if repo == nil {
		return Applied{}, noRepo("modules")
	}
	m, ok := course.FindModule(env.Snapshot, f.String("moduleId"))
	if !ok {
		return Applied{}, fmt.Errorf("%w: module %q", ErrUnresolved, f.String("moduleId"))
	}
	id := f.String("itemId")
	i := slices.IndexFunc(m.Items, func(it course.ModuleItem) bool { return it.ID == id })
	if i < 0 {
		return Applied{}, fmt.Errorf("%w: module item %q", ErrUnresolved, id)
	}
	removed := m.Items[i]
	m.Items = slices.Delete(slices.Clone(m.Items), i, i+1)
	rec, err := repo.Update(ctx, env.CourseID, m)
	applied, err := commit("remove_module_item", rec, err)
	if err != nil {
		return applied, err
	}
	applied.ID = removed.ID
	applied.Label = fmt.Sprintf("%s from %s", removed.Title, m.Name)
	return applied, nil
}

func itemTypeLabel(itemType string) string {
	switch itemType {
	case ItemQuestionBank:
		return "question bank"
	case "":
		return "record"
	}
	return itemType
}
