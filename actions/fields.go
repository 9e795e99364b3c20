// Package actions implements the closed action vocabulary: one table entry per
// action type carrying its synonym map, default policy, referential check,
// name resolver, publish precheck, and persistence call.
//
// Materialize turns a raw model payload into a canonical PendingAction,
// Validate checks a raw payload against the registry and the course snapshot,
// and Execute applies a confirmed action through course.Persistence.
package actions

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Fields is the data bag of a pending action. Numbers are held as float64 so
// a bag survives a JSON round trip unchanged.
type Fields map[string]any

// String returns the string value at key, or "".
func (f Fields) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Has reports whether key holds a usable value: not nil, not a blank string,
// and not an empty list or object.
func (f Fields) Has(key string) bool {
	return usable(f[key])
}

func usable(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

// Float returns key as a number, accepting numeric strings.
func (f Fields) Float(key string) (float64, bool) {
	return toFloat(f[key])
}

// Int returns key as an integer, truncating fractional values.
func (f Fields) Int(key string) (int, bool) {
	v, ok := toFloat(f[key])
	return int(v), ok
}

// Bool returns key as a boolean, accepting "true"/"false" and "yes"/"no".
func (f Fields) Bool(key string) (bool, bool) {
	return toBool(f[key])
}

// Map returns the object at key.
func (f Fields) Map(key string) (map[string]any, bool) {
	m, ok := f[key].(map[string]any)
	return m, ok
}

// List returns the array at key.
func (f Fields) List(key string) ([]any, bool) {
	l, ok := f[key].([]any)
	return l, ok
}

// Clone returns a deep copy of f.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	return deepCopy(map[string]any(f)).(map[string]any)
}

// Coalesce moves the first usable synonym into canonical when canonical has
// no usable value, then removes every synonym key.
func (f Fields) Coalesce(canonical string, aliases ...string) {
	for _, alias := range aliases {
		v, present := f[alias]
		if !present {
			continue
		}
		if !f.Has(canonical) && usable(v) {
			f[canonical] = v
		}
		delete(f, alias)
	}
}

// Default sets key to v when key has no usable value. Explicit false and zero
// are usable values and are kept.
func (f Fields) Default(key string, v any) {
	if !f.Has(key) {
		f[key] = deepCopy(v)
	}
}

// Merge copies every key of changes into f. A nil value removes the key.
func (f Fields) Merge(changes Fields) {
	for k, v := range changes {
		if v == nil {
			delete(f, k)
			continue
		}
		f[k] = deepCopy(v)
	}
}

func (f Fields) normalizeNumber(key string) {
	v, present := f[key]
	if !present || v == nil {
		return
	}
	if n, ok := toFloat(v); ok {
		f[key] = n
	}
}

func (f Fields) normalizeBool(key string) {
	v, present := f[key]
	if !present || v == nil {
		return
	}
	if b, ok := toBool(v); ok {
		f[key] = b
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(n), "%")
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "1":
			return true, true
		case "false", "no", "n", "0":
			return false, true
		}
	}
	return false, false
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case Fields:
		return deepCopy(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = val
		}
		return out
	default:
		return v
	}
}

// toFields converts a record into its JSON field bag.
func toFields(v any) (Fields, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var f Fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f, nil
}

// decode fills out from the JSON field bag f. Keys without a matching struct
// tag are ignored.
func decode(f Fields, out any) error {
	return decodeValue(f, out)
}

func decodeValue(v any, out any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
