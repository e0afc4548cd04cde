package form

import (
	"time"

	"github.com/trezcool/trace/core"
	"github.com/trezcool/trace/core/user"
)

// messages
const (
	MsgRequired      = "this field is required"
	MsgSelectOne     = "Please select at least one option."
	MsgSpecifyOther  = "Please specify."
	MsgInvalidEmail  = "Please enter a valid email address."
	MsgInvalidNumber = "Please enter a whole number."
	MsgInvalidDate   = "Please enter a date as YYYY-MM-DD."
	MsgInvalidOption = "Please choose one of the listed options."
)

// ValidateField returns the first error message for value v of field f, or "" when valid.
// required is the field's effective requiredness once rules have been applied.
func ValidateField(f Field, v interface{}, values Values, required bool) string {
	v = Coerce(f, v)
	if IsEmpty(v) {
		if !required {
			return ""
		}
		if f.Kind == KindMultiSelect {
			return MsgSelectOne
		}
		return MsgRequired
	}

	var msg string
	switch f.Kind {
	case KindEmail:
		if s, ok := v.(string); !ok || core.Validate.Var(core.CleanString(s), "email") != nil {
			msg = MsgInvalidEmail
		}
	case KindPhone:
		s, _ := v.(string)
		msg = user.ValidatePhone(s)
	case KindPassword:
		s, _ := v.(string)
		msg = user.PasswordStrengthMessage(s)
	case KindPasswordConfirm:
		s, _ := v.(string)
		primary, _ := values[f.Confirms].(string)
		msg = user.ValidatePasswordConfirm(primary, s)
	case KindNumber:
		if _, ok := v.(int); !ok {
			msg = MsgInvalidNumber
		}
	case KindYear:
		if y, ok := v.(int); !ok {
			msg = core.ValidateYear(f.Label, core.MinYear-1)
		} else {
			msg = core.ValidateYear(f.Label, y)
		}
	case KindDate:
		s, _ := v.(string)
		if _, err := time.Parse(DateLayout, core.CleanString(s)); err != nil {
			msg = MsgInvalidDate
		}
	case KindSelect:
		s, _ := v.(string)
		if len(f.Options) > 0 && !f.HasOption(core.CleanString(s)) {
			msg = MsgInvalidOption
		}
	}
	if msg == "" && f.Check != nil {
		msg = f.Check(v, values)
	}
	return msg
}
