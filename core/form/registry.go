package form

// Section is one step of a wizard or one tab of a sectioned form.
type Section struct {
	ID     string
	Label  string
	Fields []Field
}

// Field returns the section's field with the given key.
func (s Section) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Keys returns the keys of the section's fields, in order.
func (s Section) Keys() []string {
	keys := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Registry is a fixed, ordered list of sections.
type Registry struct {
	sections []Section
	index    map[string]int
}

// NewRegistry panics on duplicate section IDs: registries are declared once, at init.
func NewRegistry(sections ...Section) *Registry {
	r := &Registry{
		sections: sections,
		index:    make(map[string]int, len(sections)),
	}
	for i, s := range sections {
		if _, dup := r.index[s.ID]; dup {
			panic("form: duplicate section " + s.ID)
		}
		r.index[s.ID] = i
	}
	return r
}

func (r *Registry) Sections() []Section {
	return append([]Section{}, r.sections...)
}

func (r *Registry) Len() int { return len(r.sections) }

func (r *Registry) First() Section { return r.sections[0] }

func (r *Registry) ByID(id string) (Section, bool) {
	i, ok := r.index[id]
	if !ok {
		return Section{}, false
	}
	return r.sections[i], true
}

// Position returns the 0-based position of section id, or -1.
func (r *Registry) Position(id string) int {
	if i, ok := r.index[id]; ok {
		return i
	}
	return -1
}

// Next returns the section after id. ok is false for the last (or an unknown) section.
func (r *Registry) Next(id string) (Section, bool) {
	i, ok := r.index[id]
	if !ok || i+1 >= len(r.sections) {
		return Section{}, false
	}
	return r.sections[i+1], true
}

// Previous returns the section before id. ok is false for the first (or an unknown) section.
func (r *Registry) Previous(id string) (Section, bool) {
	i, ok := r.index[id]
	if !ok || i == 0 {
		return Section{}, false
	}
	return r.sections[i-1], true
}

// Field looks a key up across all sections.
func (r *Registry) Field(key string) (Field, bool) {
	for _, s := range r.sections {
		if f, ok := s.Field(key); ok {
			return f, true
		}
	}
	return Field{}, false
}

func (r *Registry) fields() []Field {
	var all []Field
	for _, s := range r.sections {
		all = append(all, s.Fields...)
	}
	return all
}
