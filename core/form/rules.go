package form

// Effect is what a Rule decides for one value of its branch field.
type Effect struct {
	Show    []string
	Hide    []string // hidden fields are cleared
	Require []string // implies Show
	Patch   Values   // forced values, applied last
}

// Rule maps the value of a branch field to an Effect. Apply must be a pure function
// of its arguments so that re-applying it on consistent values changes nothing.
type Rule struct {
	Branch string
	Apply  func(branch interface{}, values Values) Effect
}

// Derived is the visibility and requiredness of every field for a set of values.
type Derived struct {
	Visible  map[string]bool
	Required map[string]bool
}

// IsVisible reports whether key is shown.
func (d Derived) IsVisible(key string) bool { return d.Visible[key] }

// IsRequired reports whether key must be filled in. Hidden fields are never required.
func (d Derived) IsRequired(key string) bool { return d.Visible[key] && d.Required[key] }

// Deriver applies a set of Rules over the fields of a Registry.
type Deriver struct {
	fields []Field
	rules  []Rule
}

func NewDeriver(reg *Registry, rules ...Rule) *Deriver {
	return &Deriver{fields: reg.fields(), rules: rules}
}

// Apply computes visibility & requiredness for values and returns them together with
// the patched values: hidden fields cleared, rule patches applied. Apply never
// modifies values; applying it again to the returned values is a no-op.
func (d *Deriver) Apply(values Values) (Derived, Values) {
	out := values.Copy()
	der := Derived{
		Visible:  make(map[string]bool, len(d.fields)),
		Required: make(map[string]bool, len(d.fields)),
	}
	for _, f := range d.fields {
		vis := !f.Hidden && f.DependsOn == ""
		der.Visible[f.Key] = vis
		der.Required[f.Key] = f.Required
	}

	patch := Values{}
	for _, r := range d.rules {
		eff := r.Apply(out[r.Branch], out)
		for _, k := range eff.Show {
			der.Visible[k] = true
		}
		for _, k := range eff.Require {
			der.Visible[k] = true
			der.Required[k] = true
		}
		for _, k := range eff.Hide {
			der.Visible[k] = false
		}
		for k, v := range eff.Patch {
			patch[k] = v
		}
	}

	// "Others, please specify" satellites follow their owner
	for _, f := range d.fields {
		if f.Sentinel == "" || f.OtherKey == "" {
			continue
		}
		on := der.Visible[f.Key] && sentinelSelected(f, out[f.Key])
		der.Visible[f.OtherKey] = on
		der.Required[f.OtherKey] = on
	}

	for _, f := range d.fields {
		if !der.Visible[f.Key] && !IsEmpty(out[f.Key]) {
			out[f.Key] = f.Zero()
		}
	}
	for k, v := range patch {
		out[k] = v
	}
	return der, out
}

func sentinelSelected(f Field, v interface{}) bool {
	switch vv := v.(type) {
	case string:
		return vv == f.Sentinel
	case []string:
		return contains(vv, f.Sentinel)
	case []interface{}:
		return contains(toStrings(vv), f.Sentinel)
	}
	return false
}
