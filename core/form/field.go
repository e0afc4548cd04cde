// Package form is a presentation-free form engine: sectioned schemas, per-field
// validators, conditional rules that show/require/clear dependent fields, and a
// Session that validates before advancing and normalizes the submitted payload.
package form

import "strings"

// Kind is the closed set of field kinds the engine knows how to validate and normalize.
type Kind int

const (
	KindText     Kind = iota
	KindName          // title-cased on normalize
	KindUsername      // lower-cased on normalize
	KindEmail         // lower-cased on normalize
	KindPhone
	KindPassword
	KindPasswordConfirm
	KindNumber
	KindYear
	KindDate
	KindBool
	KindSelect
	KindMultiSelect
	KindGroup // repeatable sub-records
)

var kindNames = [...]string{
	"text", "name", "username", "email", "phone", "password", "password_confirm",
	"number", "year", "date", "bool", "select", "multiselect", "group",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// DefaultSentinel is the option that asks for a free-text specification.
const DefaultSentinel = "Others, please specify"

// Field describes one form field.
type Field struct {
	Key      string
	Label    string
	Kind     Kind
	Required bool
	// Hidden fields only show up when a Rule (or a selected Sentinel) shows them.
	Hidden  bool
	Options []string
	Help    string

	// Sentinel is the option which, once selected, reveals & requires OtherKey.
	Sentinel string
	OtherKey string

	// Confirms is the key of the field a KindPasswordConfirm must equal.
	Confirms string
	// DependsOn names the branch field whose Rule drives this field's visibility.
	DependsOn string
	// Availability is the uniqueness check kind ("username", "email", "phone"), if any.
	Availability string

	// Fields is the item schema of a KindGroup.
	Fields []Field

	// Check is an extra validator run on non-empty values. It returns "" when valid.
	Check func(v interface{}, values Values) string
}

// HasOption reports whether opt is one of the field's Options.
func (f Field) HasOption(opt string) bool {
	for _, o := range f.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// Zero is the value a cleared field of this kind holds.
func (f Field) Zero() interface{} {
	switch f.Kind {
	case KindMultiSelect:
		return []string{}
	case KindGroup:
		return []map[string]interface{}{}
	case KindBool:
		return false
	case KindNumber, KindYear:
		return nil
	default:
		return ""
	}
}

// Values maps field keys to their current value: string, int, bool, []string or
// []map[string]interface{} once coerced.
type Values map[string]interface{}

// Copy returns a copy of vals, deep enough that slices are not shared.
func (vals Values) Copy() Values {
	out := make(Values, len(vals))
	for k, v := range vals {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch vv := v.(type) {
	case []string:
		return append([]string{}, vv...)
	case []map[string]interface{}:
		items := make([]map[string]interface{}, len(vv))
		for i, item := range vv {
			items[i] = Values(item).Copy()
		}
		return items
	case []interface{}:
		items := make([]interface{}, len(vv))
		for i, item := range vv {
			items[i] = copyValue(item)
		}
		return items
	default:
		return v
	}
}

// String returns the value of key as a trimmed string ("" if not a string).
func (vals Values) String(key string) string {
	s, _ := vals[key].(string)
	return strings.TrimSpace(s)
}

// Strings returns the value of key as a string slice.
func (vals Values) Strings(key string) []string {
	return toStrings(vals[key])
}

// Bool returns the value of key as a bool.
func (vals Values) Bool(key string) bool {
	b, _ := toBool(vals[key])
	return b
}

// IsEmpty reports whether v counts as "not filled in".
func IsEmpty(v interface{}) bool {
	switch vv := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(vv) == ""
	case []string:
		return len(vv) == 0
	case []interface{}:
		return len(vv) == 0
	case []map[string]interface{}:
		return len(vv) == 0
	default:
		return false
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
