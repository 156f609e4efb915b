package domain

import (
	"encoding/json"
	"math"
	"reflect"
)

// Well-known metadata keys written on every chunk.
const (
	// MetaSource is the artifact filename a unit was loaded from.
	MetaSource = "source"

	// MetaPage is the 1-based page number.
	MetaPage = "page"

	// MetaFileID is the numeric document identifier used for filtering.
	MetaFileID = "file_id"

	// MetaDocument is the string document identifier.
	MetaDocument = "document"
)

// Metadata is a mapping of chunk attributes.
// Values must pass SanitizeMetadata before they reach a vector store.
type Metadata map[string]any

// Clone returns a shallow copy.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge copies every entry of other into m, overwriting existing keys.
func (m Metadata) Merge(other map[string]any) {
	for k, v := range other {
		m[k] = v
	}
}

// Int returns an integer value stored under key.
func (m Metadata) Int(key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
	}
	return 0, false
}

// String returns a string value stored under key.
func (m Metadata) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// SanitizeMetadata keeps only values that serialise as string, number,
// boolean, list or mapping. Nested lists and mappings are filtered the
// same way. Dropped fields are removed silently.
func SanitizeMetadata(in map[string]any) Metadata {
	out := make(Metadata, len(in))
	for k, v := range in {
		if clean, ok := sanitizeValue(v); ok {
			out[k] = clean
		}
	}
	return out
}

func sanitizeValue(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return t, true
	case float32:
		return t, isFinite(float64(t))
	case float64:
		return t, isFinite(t)
	case json.Number:
		return t, true
	case Metadata:
		return map[string]any(SanitizeMetadata(t)), true
	case map[string]any:
		return map[string]any(SanitizeMetadata(t)), true
	case []any:
		return sanitizeList(t), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return sanitizeList(items), true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return map[string]any(SanitizeMetadata(m)), true
	default:
		return nil, false
	}
}

func sanitizeList(items []any) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		if clean, ok := sanitizeValue(item); ok {
			out = append(out, clean)
		}
	}
	return out
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// IsSerializable reports whether every value in m passes the allow-list.
func IsSerializable(m Metadata) bool {
	for _, v := range m {
		if !serializable(v) {
			return false
		}
	}
	return true
}

func serializable(v any) bool {
	switch t := v.(type) {
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return isFinite(float64(t))
	case float64:
		return isFinite(t)
	case []any:
		for _, item := range t {
			if !serializable(item) {
				return false
			}
		}
		return true
	case map[string]any:
		return IsSerializable(t)
	case Metadata:
		return IsSerializable(t)
	default:
		return false
	}
}
