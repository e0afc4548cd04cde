package form

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/trace/core"
	"github.com/trezcool/trace/core/availability"
)

// Session holds the in-progress values of a sectioned form. A Session is owned by a
// single goroutine: it is not safe for concurrent use. Availability results coming
// from a Checker must be handed over through SetAvailability on the owning goroutine.
type Session struct {
	reg     *Registry
	deriver *Deriver

	values  Values
	errors  map[string]string
	active  string
	derived Derived
	avail   map[string]availability.Result
}

// NewSession starts on the first section of reg, seeded with seed (may be nil).
func NewSession(reg *Registry, rules []Rule, seed Values) *Session {
	s := &Session{
		reg:     reg,
		deriver: NewDeriver(reg, rules...),
		active:  reg.First().ID,
	}
	s.Load(seed)
	return s
}

// Load replaces all values with rec, typically the last known server record.
// Option values that are not in a field's Options are mapped back to the field's
// Sentinel and its free-text satellite, so that a submitted payload loads back into
// the values it was built from.
func (s *Session) Load(rec Values) {
	vals := make(Values, len(rec))
	for k, v := range rec {
		vals[k] = v
	}
	for _, f := range s.reg.fields() {
		v, ok := vals[f.Key]
		if !ok {
			vals[f.Key] = f.Zero()
			continue
		}
		vals[f.Key] = Coerce(f, v)
	}
	for _, f := range s.reg.fields() {
		if f.Sentinel != "" && f.OtherKey != "" {
			unmapOther(f, vals)
		}
	}
	s.errors = make(map[string]string)
	s.avail = make(map[string]availability.Result)
	s.derive(vals)
}

func unmapOther(f Field, vals Values) {
	switch v := vals[f.Key].(type) {
	case []string:
		var known, other []string
		for _, opt := range v {
			if opt == f.Sentinel || f.HasOption(opt) {
				known = append(known, opt)
			} else if opt = core.CleanString(opt); opt != "" {
				other = append(other, opt)
			}
		}
		if len(other) == 0 {
			return
		}
		if !contains(known, f.Sentinel) {
			known = append(known, f.Sentinel)
		}
		vals[f.Key] = known
		vals[f.OtherKey] = strings.Join(other, ", ")
	case string:
		if v == "" || v == f.Sentinel || f.HasOption(v) {
			return
		}
		vals[f.Key] = f.Sentinel
		vals[f.OtherKey] = core.CleanString(v)
	}
}

func (s *Session) derive(vals Values) {
	s.derived, s.values = s.deriver.Apply(vals)
	for k := range s.errors {
		if !s.derived.IsVisible(k) {
			delete(s.errors, k)
		}
	}
}

// Set updates a single value and re-applies the rules. Its error, if any, is cleared.
func (s *Session) Set(key string, v interface{}) error {
	f, ok := s.reg.Field(key)
	if !ok {
		return core.NewArgumentError(fmt.Sprintf("unknown field %q", key))
	}
	vals := s.values.Copy()
	vals[key] = Coerce(f, v)
	delete(s.errors, key)
	delete(s.avail, key)
	s.derive(vals)
	return nil
}

// Toggle selects opt in a multi-select field, or removes it when already selected.
func (s *Session) Toggle(key, opt string) error {
	f, ok := s.reg.Field(key)
	if !ok {
		return core.NewArgumentError(fmt.Sprintf("unknown field %q", key))
	}
	if f.Kind != KindMultiSelect {
		return core.NewArgumentError(fmt.Sprintf("field %q is not a multi-select", key))
	}
	cur := toStrings(s.values[key])
	next := make([]string, 0, len(cur)+1)
	found := false
	for _, o := range cur {
		if o == opt {
			found = true
			continue
		}
		next = append(next, o)
	}
	if !found {
		next = append(next, opt)
	}
	return s.Set(key, next)
}

func (s *Session) Value(key string) interface{} {
	return copyValue(s.values[key])
}

// Values returns a copy of all current values.
func (s *Session) Values() Values { return s.values.Copy() }

func (s *Session) Error(key string) string { return s.errors[key] }

// Errors returns a copy of the current field errors.
func (s *Session) Errors() map[string]string {
	out := make(map[string]string, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// SetErrors merges errors reported elsewhere (eg. by the server). Keys that are not
// fields of the active section are dropped.
func (s *Session) SetErrors(errs map[string]string) {
	sec := s.Active()
	for k, msg := range errs {
		if _, ok := sec.Field(k); ok && msg != "" {
			s.errors[k] = msg
		}
	}
}

func (s *Session) Visible(key string) bool  { return s.derived.IsVisible(key) }
func (s *Session) Required(key string) bool { return s.derived.IsRequired(key) }

func (s *Session) Active() Section {
	sec, _ := s.reg.ByID(s.active)
	return sec
}

func (s *Session) IsFirst() bool { return s.reg.Position(s.active) == 0 }
func (s *Session) IsLast() bool  { return s.reg.Position(s.active) == s.reg.Len()-1 }

// GoTo switches the active section (tab switching). Errors are reset.
func (s *Session) GoTo(id string) error {
	if _, ok := s.reg.ByID(id); !ok {
		return core.NewArgumentError(fmt.Sprintf("unknown section %q", id))
	}
	s.active = id
	s.errors = make(map[string]string)
	return nil
}

// SetAvailability records the result of a uniqueness check. A Taken value becomes an
// error of its field until the value changes. Results for another value than the
// current one are ignored.
func (s *Session) SetAvailability(res availability.Result) {
	if cur, ok := s.values[res.Key].(string); ok && strings.TrimSpace(cur) != strings.TrimSpace(res.Value) {
		return
	}
	prev, hadPrev := s.avail[res.Key]
	s.avail[res.Key] = res
	if res.State == availability.Taken {
		if _, ok := s.Active().Field(res.Key); ok {
			s.errors[res.Key] = res.Message
		}
	} else if hadPrev && prev.State == availability.Taken && s.errors[res.Key] == prev.Message {
		delete(s.errors, res.Key)
	}
}

func (s *Session) Availability(key string) availability.Result {
	if res, ok := s.avail[key]; ok {
		return res
	}
	return availability.Result{Key: key}
}

// Validate checks every visible field of the active section and replaces the errors
// with the result. It returns a *core.ValidationError, or nil.
func (s *Session) Validate() error {
	errs := make(map[string]string)
	for _, f := range s.Active().Fields {
		if !s.derived.IsVisible(f.Key) {
			continue
		}
		msg := ValidateField(f, s.values[f.Key], s.values, s.derived.IsRequired(f.Key))
		if msg == "" && f.Kind == KindGroup {
			msg = validateGroup(f, s.values[f.Key])
		}
		if msg == "" {
			if res, ok := s.avail[f.Key]; ok && res.State == availability.Taken {
				msg = res.Message
			}
		}
		if msg != "" {
			errs[f.Key] = msg
		}
	}
	s.errors = errs
	if len(errs) > 0 {
		return core.NewFieldsError(errs)
	}
	return nil
}

func validateGroup(f Field, v interface{}) string {
	items, _ := Coerce(f, v).([]map[string]interface{})
	for i, item := range items {
		vals := Values(item)
		for _, sub := range f.Fields {
			if msg := ValidateField(sub, item[sub.Key], vals, sub.Required); msg != "" {
				return fmt.Sprintf("Item %d, %s: %s", i+1, sub.Label, msg)
			}
		}
	}
	return ""
}

// Advance validates the active section; when valid its values are normalized and
// the next section becomes active. On the last section only the normalization
// happens. It returns a *core.ValidationError when the section is invalid.
func (s *Session) Advance() error {
	if err := s.Validate(); err != nil {
		return err
	}
	vals := s.values.Copy()
	for _, f := range s.Active().Fields {
		if s.derived.IsVisible(f.Key) {
			vals[f.Key] = Normalize(f, vals[f.Key])
		}
	}
	s.derive(vals)
	if next, ok := s.reg.Next(s.active); ok {
		s.active = next.ID
	}
	return nil
}

// Previous moves back one section without validating. It is a no-op on the first one.
func (s *Session) Previous() bool {
	prev, ok := s.reg.Previous(s.active)
	if ok {
		s.active = prev.ID
		s.errors = make(map[string]string)
	}
	return ok
}

// Payload builds the normalized submission of a section: every field of the section
// except "Others" satellites, hidden ones zeroed, and the Sentinel replaced by the
// trimmed free text.
func (s *Session) Payload(sectionID string) (Values, error) {
	sec, ok := s.reg.ByID(sectionID)
	if !ok {
		return nil, errors.Wrap(core.NewArgumentError(fmt.Sprintf("unknown section %q", sectionID)), "building payload")
	}
	satellites := make(map[string]bool)
	for _, f := range s.reg.fields() {
		if f.OtherKey != "" {
			satellites[f.OtherKey] = true
		}
	}

	out := make(Values, len(sec.Fields))
	for _, f := range sec.Fields {
		if satellites[f.Key] {
			continue
		}
		if !s.derived.IsVisible(f.Key) {
			out[f.Key] = f.Zero()
			continue
		}
		v := Normalize(f, s.values[f.Key])
		if f.Sentinel != "" && f.OtherKey != "" {
			v = substituteOther(f, v, s.values.String(f.OtherKey))
		}
		out[f.Key] = v
	}
	return out, nil
}

// SectionPayload validates the active section and returns its payload.
func (s *Session) SectionPayload() (Values, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s.Payload(s.active)
}

func substituteOther(f Field, v interface{}, other string) interface{} {
	other = core.CleanString(other)
	switch vv := v.(type) {
	case []string:
		out := make([]string, 0, len(vv))
		for _, opt := range vv {
			if opt != f.Sentinel {
				out = append(out, opt)
			} else if other != "" && !contains(out, other) {
				out = append(out, other)
			}
		}
		return out
	case string:
		if vv == f.Sentinel {
			return other
		}
	}
	return v
}
