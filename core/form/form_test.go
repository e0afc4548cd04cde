package form

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/trace/core"
	"github.com/trezcool/trace/core/availability"
)

const petSentinel = "Other pet, please specify"

func testRegistry() *Registry {
	return NewRegistry(
		Section{ID: "about", Label: "About you", Fields: []Field{
			{Key: "name", Label: "Name", Kind: KindName, Required: true},
			{Key: "username", Label: "Username", Kind: KindUsername, Required: true, Availability: availability.Username},
			{Key: "email", Label: "Email", Kind: KindEmail},
			{Key: "year", Label: "Year graduated", Kind: KindYear, Required: true},
		}},
		Section{ID: "pets", Label: "Pets", Fields: []Field{
			{Key: "has_pets", Label: "Do you have pets?", Kind: KindSelect, Required: true, Options: []string{"Yes", "No"}},
			{
				Key: "pets", Label: "Pets", Kind: KindMultiSelect, DependsOn: "has_pets",
				Options: []string{"Cat", "Dog", petSentinel}, Sentinel: petSentinel, OtherKey: "other_pet",
			},
			{Key: "other_pet", Label: "Other pet", Kind: KindText, DependsOn: "pets"},
			{Key: "vet", Label: "Vet", Kind: KindText, DependsOn: "has_pets"},
		}},
		Section{ID: "done", Label: "Done", Fields: []Field{
			{Key: "comment", Label: "Comment", Kind: KindText},
		}},
	)
}

var petsRule = Rule{
	Branch: "has_pets",
	Apply: func(branch interface{}, _ Values) Effect {
		if branch == "Yes" {
			return Effect{Require: []string{"pets"}, Show: []string{"vet"}}
		}
		return Effect{Hide: []string{"pets", "vet"}}
	},
}

func TestRegistry_Navigation(t *testing.T) {
	reg := testRegistry()

	assert.Equal(t, "about", reg.First().ID)

	next, ok := reg.Next("about")
	assert.True(t, ok)
	assert.Equal(t, "pets", next.ID)

	_, ok = reg.Next("done")
	assert.False(t, ok, "next on the last section is a no-op")

	_, ok = reg.Previous("about")
	assert.False(t, ok, "previous on the first section is a no-op")

	prev, ok := reg.Previous("pets")
	assert.True(t, ok)
	assert.Equal(t, "about", prev.ID)

	_, ok = reg.ByID("lol")
	assert.False(t, ok)

	assert.Panics(t, func() { NewRegistry(Section{ID: "a"}, Section{ID: "a"}) })
}

func TestDeriver_Apply(t *testing.T) {
	der := NewDeriver(testRegistry(), petsRule)

	tests := []struct {
		name         string
		values       Values
		wantVisible  []string
		wantHidden   []string
		wantRequired []string
		wantValues   Values
	}{
		{
			name:        "branch unset hides dependents",
			values:      Values{"pets": []string{"Cat"}, "vet": "Dr Who"},
			wantVisible: []string{"name", "has_pets", "comment"},
			wantHidden:  []string{"pets", "vet", "other_pet"},
			wantValues:  Values{"pets": []string{}, "vet": ""},
		},
		{
			name:         "yes shows and requires",
			values:       Values{"has_pets": "Yes", "pets": []string{"Dog"}},
			wantVisible:  []string{"pets", "vet"},
			wantHidden:   []string{"other_pet"},
			wantRequired: []string{"pets"},
			wantValues:   Values{"pets": []string{"Dog"}},
		},
		{
			name:         "sentinel reveals satellite",
			values:       Values{"has_pets": "Yes", "pets": []string{petSentinel}},
			wantVisible:  []string{"pets", "other_pet"},
			wantRequired: []string{"pets", "other_pet"},
		},
		{
			name:       "no clears selection and satellite",
			values:     Values{"has_pets": "No", "pets": []string{petSentinel}, "other_pet": "Axolotl"},
			wantHidden: []string{"pets", "other_pet", "vet"},
			wantValues: Values{"pets": []string{}, "other_pet": ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			der1, vals1 := der.Apply(tt.values)
			for _, k := range tt.wantVisible {
				assert.True(t, der1.IsVisible(k), "%s should be visible", k)
			}
			for _, k := range tt.wantHidden {
				assert.False(t, der1.IsVisible(k), "%s should be hidden", k)
				assert.False(t, der1.IsRequired(k), "hidden %s should not be required", k)
			}
			for _, k := range tt.wantRequired {
				assert.True(t, der1.IsRequired(k), "%s should be required", k)
			}
			for k, v := range tt.wantValues {
				assert.Equal(t, v, vals1[k], k)
			}

			// idempotent
			der2, vals2 := der.Apply(vals1)
			assert.Equal(t, der1, der2)
			assert.Equal(t, vals1, vals2)
		})
	}
}

func TestDeriver_ApplyDoesNotMutateInput(t *testing.T) {
	der := NewDeriver(testRegistry(), petsRule)
	in := Values{"has_pets": "No", "pets": []string{"Cat"}}
	_, out := der.Apply(in)
	assert.Equal(t, []string{"Cat"}, in["pets"])
	assert.Equal(t, []string{}, out["pets"])
}

func TestSession_Toggle(t *testing.T) {
	s := NewSession(testRegistry(), []Rule{petsRule}, Values{"has_pets": "Yes"})

	require.NoError(t, s.Toggle("pets", "Cat"))
	require.NoError(t, s.Toggle("pets", "Dog"))
	assert.Equal(t, []string{"Cat", "Dog"}, s.Value("pets"))

	require.NoError(t, s.Toggle("pets", "Cat"))
	assert.Equal(t, []string{"Dog"}, s.Value("pets"), "re-selecting removes the option")

	require.NoError(t, s.Toggle("pets", petSentinel))
	assert.True(t, s.Visible("other_pet"))
	assert.True(t, s.Required("other_pet"))

	assert.Error(t, s.Toggle("has_pets", "Yes"))
	assert.Error(t, s.Toggle("lol", "Yes"))
}

func TestSession_Advance(t *testing.T) {
	s := NewSession(testRegistry(), []Rule{petsRule}, nil)

	err := s.Advance()
	require.Error(t, err)
	vErr, ok := core.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"name":     MsgRequired,
		"username": MsgRequired,
		"year":     MsgRequired,
	}, vErr.FieldMap())
	assert.Equal(t, "about", s.Active().ID, "stays on the section")

	require.NoError(t, s.Set("name", "  juan  DELA cruz "))
	require.NoError(t, s.Set("username", " Juan_23 "))
	require.NoError(t, s.Set("email", "JUAN@Example.com "))
	require.NoError(t, s.Set("year", "1899"))
	assert.Empty(t, s.Error("name"), "setting a value clears its error")

	require.Error(t, s.Advance())
	assert.Equal(t, map[string]string{"year": "Year graduated must be between 1900 and 2100."}, s.Errors())

	require.NoError(t, s.Set("year", "2000"))
	require.NoError(t, s.Advance())
	assert.Equal(t, "pets", s.Active().ID)
	assert.Equal(t, "Juan Dela Cruz", s.Value("name"))
	assert.Equal(t, "juan_23", s.Value("username"))
	assert.Equal(t, "juan@example.com", s.Value("email"))
	assert.Equal(t, 2000, s.Value("year"))

	assert.True(t, s.Previous())
	assert.False(t, s.Previous())
	assert.True(t, s.IsFirst())
	assert.Error(t, s.GoTo("lol"))
	require.NoError(t, s.GoTo("done"))
	assert.True(t, s.IsLast())
	require.NoError(t, s.Advance())
	assert.Equal(t, "done", s.Active().ID, "advance on the last section stays")
}

func TestSession_OtherRequiresSpecification(t *testing.T) {
	s := NewSession(testRegistry(), []Rule{petsRule}, Values{"has_pets": "Yes"})
	require.NoError(t, s.GoTo("pets"))

	require.NoError(t, s.Toggle("pets", petSentinel))
	require.NoError(t, s.Set("other_pet", "   "))
	_, err := s.SectionPayload()
	require.Error(t, err)
	assert.Equal(t, map[string]string{"other_pet": MsgRequired}, s.Errors())

	require.NoError(t, s.Toggle("pets", petSentinel))
	_, err = s.SectionPayload()
	require.Error(t, err)
	assert.Equal(t, map[string]string{"pets": MsgSelectOne}, s.Errors())
}

func TestSession_PayloadRoundTrip(t *testing.T) {
	reg := testRegistry()
	s := NewSession(reg, []Rule{petsRule}, nil)
	require.NoError(t, s.Set("has_pets", "Yes"))
	require.NoError(t, s.Toggle("pets", "Cat"))
	require.NoError(t, s.Toggle("pets", petSentinel))
	require.NoError(t, s.Set("other_pet", "  Axolotl "))
	require.NoError(t, s.Set("vet", " Dr Who "))

	payload, err := s.Payload("pets")
	require.NoError(t, err)
	assert.Equal(t, Values{
		"has_pets": "Yes",
		"pets":     []string{"Cat", "Axolotl"},
		"vet":      "Dr Who",
	}, payload)

	// the server echoes the payload back; reopening the form reproduces the values
	reopened := NewSession(reg, []Rule{petsRule}, payload)
	assert.Equal(t, []string{"Cat", petSentinel}, reopened.Value("pets"))
	assert.Equal(t, "Axolotl", reopened.Value("other_pet"))
	again, err := reopened.Payload("pets")
	require.NoError(t, err)
	assert.Equal(t, payload, again)

	_, err = s.Payload("lol")
	assert.Error(t, err)
}

func TestSession_PayloadZeroesHiddenFields(t *testing.T) {
	s := NewSession(testRegistry(), []Rule{petsRule}, Values{"has_pets": "Yes", "pets": []string{"Dog"}, "vet": "Dr Who"})
	require.NoError(t, s.Set("has_pets", "No"))

	payload, err := s.Payload("pets")
	require.NoError(t, err)
	assert.Equal(t, Values{"has_pets": "No", "pets": []string{}, "vet": ""}, payload)
}

func TestSession_SetAvailability(t *testing.T) {
	s := NewSession(testRegistry(), nil, Values{"username": "juan"})

	s.SetAvailability(availability.Result{Key: "username", Value: "juan", State: availability.Taken, Message: "Username is already taken"})
	assert.Equal(t, "Username is already taken", s.Error("username"))
	assert.Equal(t, availability.Taken, s.Availability("username").State)

	require.NoError(t, s.Set("name", "Juan"))
	require.NoError(t, s.Set("year", 2001))
	err := s.Validate()
	require.Error(t, err)
	assert.Equal(t, map[string]string{"username": "Username is already taken"}, s.Errors())

	// result for an outdated value
	s.SetAvailability(availability.Result{Key: "username", Value: "juanito", State: availability.Available})
	assert.Equal(t, availability.Taken, s.Availability("username").State)

	require.NoError(t, s.Set("username", "juanito"))
	assert.Equal(t, availability.Unknown, s.Availability("username").State)
	s.SetAvailability(availability.Result{Key: "username", Value: "juanito", State: availability.Available})
	assert.NoError(t, s.Validate())
}

func TestValidateField(t *testing.T) {
	year := Field{Key: "year_graduated", Label: "Year graduated", Kind: KindYear}
	tests := []struct {
		name     string
		field    Field
		value    interface{}
		values   Values
		required bool
		want     string
	}{
		{name: "empty optional", field: year, value: ""},
		{name: "empty required", field: year, value: " ", required: true, want: MsgRequired},
		{name: "year too low", field: year, value: 1899, want: "Year graduated must be between 1900 and 2100."},
		{name: "year too high", field: year, value: "2101", want: "Year graduated must be between 1900 and 2100."},
		{name: "year from string", field: year, value: "2000"},
		{name: "year not a number", field: year, value: "20x0", want: "Year graduated must be between 1900 and 2100."},
		{name: "email", field: Field{Kind: KindEmail}, value: "lol", want: MsgInvalidEmail},
		{name: "phone", field: Field{Kind: KindPhone}, value: "123", want: "Please enter a valid phone number (e.g., +63 912 345 6789)"},
		{
			name: "weak password", field: Field{Kind: KindPassword}, value: "abc",
			want: "Password must include at least 8 characters, an uppercase letter, a number, a special character (!@#$%^&*).",
		},
		{
			name: "confirm mismatch", field: Field{Kind: KindPasswordConfirm, Confirms: "password"}, value: "Secret1!",
			values: Values{"password": "Secret2!"}, want: "Passwords do not match.",
		},
		{name: "date", field: Field{Kind: KindDate}, value: "2020-13-01", want: MsgInvalidDate},
		{name: "select", field: Field{Kind: KindSelect, Options: []string{"Yes", "No"}}, value: "Maybe", want: MsgInvalidOption},
		{name: "multiselect required", field: Field{Kind: KindMultiSelect}, value: []interface{}{}, required: true, want: MsgSelectOne},
		{name: "number", field: Field{Kind: KindNumber}, value: "4.5", want: MsgInvalidNumber},
		{
			name:  "custom check",
			field: Field{Kind: KindText, Check: func(v interface{}, _ Values) string { return "nope" }},
			value: "x", want: "nope",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateField(tt.field, tt.value, tt.values, tt.required))
		})
	}
}

func TestNormalize(t *testing.T) {
	group := Field{Kind: KindGroup, Fields: []Field{
		{Key: "name", Kind: KindText},
		{Key: "year", Kind: KindYear},
	}}
	tests := []struct {
		name  string
		field Field
		value interface{}
		want  interface{}
	}{
		{name: "text", field: Field{Kind: KindText}, value: "  hi  ", want: "hi"},
		{name: "name", field: Field{Kind: KindName}, value: "mARIA  de la  cruz", want: "Maria De La Cruz"},
		{name: "email", field: Field{Kind: KindEmail}, value: " Juan@Mail.COM", want: "juan@mail.com"},
		{name: "phone", field: Field{Kind: KindPhone}, value: "0912 345 6789", want: "+639123456789"},
		{name: "year", field: Field{Kind: KindYear}, value: "2000", want: 2000},
		{name: "year from json", field: Field{Kind: KindYear}, value: float64(2000), want: 2000},
		{name: "date from timestamp", field: Field{Kind: KindDate}, value: "2020-02-01T00:00:00Z", want: "2020-02-01"},
		{name: "multiselect", field: Field{Kind: KindMultiSelect}, value: []interface{}{" a ", "", "b"}, want: []string{"a", "b"}},
		{
			name: "group", field: group,
			value: []interface{}{map[string]interface{}{"name": " CSE ", "year": "2019"}},
			want:  []map[string]interface{}{{"name": "CSE", "year": 2019}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.field, tt.value))
		})
	}
}

func TestOptimistic(t *testing.T) {
	exams := []string{"a", "b", "c"}

	t.Run("rollback on failure", func(t *testing.T) {
		var applied [][]string
		apply := func(items []string) { applied = append(applied, items) }
		commit := func(_ context.Context, items []string) ([]string, error) {
			assert.Equal(t, []string{"a", "c"}, items)
			return nil, errors.New("boom")
		}

		err := Optimistic(context.Background(), exams, RemoveAt[string](1), apply, commit)
		assert.EqualError(t, err, "boom")
		require.Len(t, applied, 2)
		assert.Equal(t, []string{"a", "c"}, applied[0], "removed locally first")
		assert.Equal(t, []string{"a", "b", "c"}, applied[1], "restored in original order")
		assert.Equal(t, []string{"a", "b", "c"}, exams, "caller's slice untouched")
	})

	t.Run("server copy adopted", func(t *testing.T) {
		var got []string
		commit := func(_ context.Context, items []string) ([]string, error) {
			return []string{"A", "C"}, nil
		}
		err := Optimistic(context.Background(), exams, RemoveAt[string](1), func(items []string) { got = items }, commit)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "C"}, got)
	})

	t.Run("out of range", func(t *testing.T) {
		called := false
		err := Optimistic(context.Background(), exams, RemoveAt[string](3), func([]string) { called = true }, nil)
		assert.Error(t, err)
		assert.False(t, called)
	})
}

func TestHighlight(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		pattern string
		want    string
	}{
		{name: "match", text: "Alumni Homecoming", pattern: "home", want: "Alumni [Home]coming"},
		{name: "many", text: "a-b-A", pattern: "a", want: "[a]-b-[A]"},
		{name: "empty pattern", text: "abc", want: "abc"},
		{name: "malformed pattern", text: "a(b", pattern: "(", want: "a(b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Highlight(tt.text, tt.pattern, "[", "]"))
		})
	}
}
