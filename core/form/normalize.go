package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/trezcool/trace/core"
	"github.com/trezcool/trace/core/user"
)

// DateLayout is the wire format of date fields.
const DateLayout = "2006-01-02"

// Coerce converts a loosely typed value (eg. decoded JSON) into the canonical
// in-memory type of the field kind. Values that cannot be converted are kept as is,
// so validation can report them.
func Coerce(f Field, v interface{}) interface{} {
	if v == nil {
		return f.Zero()
	}
	switch f.Kind {
	case KindMultiSelect:
		return toStrings(v)
	case KindBool:
		if b, ok := toBool(v); ok {
			return b
		}
	case KindNumber, KindYear:
		if n, ok := toInt(v); ok {
			return n
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			return nil
		}
	case KindDate:
		if t, ok := v.(time.Time); ok {
			if t.IsZero() {
				return ""
			}
			return t.Format(DateLayout)
		}
		if s, ok := v.(string); ok && len(s) > len(DateLayout) {
			// RFC 3339 timestamps from the API
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return t.Format(DateLayout)
			}
		}
	case KindGroup:
		return toRecords(f, v)
	}
	return v
}

// Normalize cleans a value the way it is submitted: trimmed strings,
// title-cased names, lower-cased usernames & emails, E.164 phones, ISO dates
// and integer years.
func Normalize(f Field, v interface{}) interface{} {
	v = Coerce(f, v)
	switch f.Kind {
	case KindText, KindSelect:
		if s, ok := v.(string); ok {
			return core.CleanString(s)
		}
	case KindName:
		if s, ok := v.(string); ok {
			return core.TitleCase(s)
		}
	case KindUsername, KindEmail:
		if s, ok := v.(string); ok {
			return core.CleanString(s, true /* lower */)
		}
	case KindPhone:
		if s, ok := v.(string); ok {
			return user.NormalizePhone(s)
		}
	case KindDate:
		if s, ok := v.(string); ok {
			return core.CleanString(s)
		}
	case KindMultiSelect:
		ss := v.([]string)
		out := make([]string, 0, len(ss))
		for _, s := range ss {
			if s = core.CleanString(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case KindGroup:
		items := v.([]map[string]interface{})
		out := make([]map[string]interface{}, len(items))
		for i, item := range items {
			out[i] = normalizeRecord(f.Fields, item)
		}
		return out
	}
	return v
}

func normalizeRecord(fields []Field, item map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(item))
	for k, v := range item {
		out[k] = v
	}
	for _, f := range fields {
		if v, ok := item[f.Key]; ok {
			out[f.Key] = Normalize(f, v)
		}
	}
	return out
}

func toStrings(v interface{}) []string {
	switch vv := v.(type) {
	case nil:
		return []string{}
	case []string:
		return append([]string{}, vv...)
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else if item != nil {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	case string:
		if strings.TrimSpace(vv) == "" {
			return []string{}
		}
		return []string{vv}
	default:
		return []string{fmt.Sprint(vv)}
	}
}

func toBool(v interface{}) (bool, bool) {
	switch vv := v.(type) {
	case bool:
		return vv, true
	case string:
		switch strings.ToLower(strings.TrimSpace(vv)) {
		case "true", "yes", "y", "1":
			return true, true
		case "false", "no", "n", "0", "":
			return false, true
		}
	case nil:
		return false, true
	}
	return false, false
}

func toInt(v interface{}) (int, bool) {
	switch vv := v.(type) {
	case int:
		return vv, true
	case int32:
		return int(vv), true
	case int64:
		return int(vv), true
	case float64:
		if vv != math.Trunc(vv) {
			return 0, false
		}
		return int(vv), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(vv))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func toRecords(f Field, v interface{}) []map[string]interface{} {
	var raw []map[string]interface{}
	switch vv := v.(type) {
	case []map[string]interface{}:
		raw = vv
	case []interface{}:
		raw = make([]map[string]interface{}, 0, len(vv))
		for _, item := range vv {
			if m, ok := item.(map[string]interface{}); ok {
				raw = append(raw, m)
			}
		}
	default:
		return []map[string]interface{}{}
	}
	out := make([]map[string]interface{}, len(raw))
	for i, item := range raw {
		rec := make(map[string]interface{}, len(item))
		for k, val := range item {
			rec[k] = val
		}
		for _, sub := range f.Fields {
			if val, ok := rec[sub.Key]; ok {
				rec[sub.Key] = Coerce(sub, val)
			}
		}
		out[i] = rec
	}
	return out
}
