package user

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"

	"github.com/trezcool/trace/core"
)

var (
	// PhoneRegion is the region numbers without a country code are parsed in.
	PhoneRegion = "PH"

	phoneTag     = "phone"
	PhoneInvalid = "Please enter a valid phone number (e.g., +63 912 345 6789)"

	// password policy
	pwdMinLen       = 8
	pwdSpecialChars = "!@#$%^&*"
	strongPwdTag    = "strongpwd"
	strongPwdText   = "Password must include at least 8 characters, an uppercase letter, " +
		"a lowercase letter, a number, a special character (!@#$%^&*)."

	PasswordMismatch = "Passwords do not match."
)

// register validators
func init() {
	_ = core.Validate.RegisterValidation(phoneTag, phoneValidation)
	core.RegisterCustomTranslation(phoneTag, PhoneInvalid)

	_ = core.Validate.RegisterValidation(strongPwdTag, strongPwdValidation)
	core.RegisterCustomTranslation(strongPwdTag, strongPwdText)
}

// ValidatePhone returns "" if v parses as a valid phone number, PhoneInvalid otherwise.
func ValidatePhone(v string) string {
	if _, ok := parsePhone(v); !ok {
		return PhoneInvalid
	}
	return ""
}

// NormalizePhone formats a valid number as E.164 (eg. +639123456789).
// Invalid numbers are only trimmed.
func NormalizePhone(v string) string {
	if num, ok := parsePhone(v); ok {
		return phonenumbers.Format(num, phonenumbers.E164)
	}
	return strings.TrimSpace(v)
}

func parsePhone(v string) (*phonenumbers.PhoneNumber, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, false
	}
	num, err := phonenumbers.Parse(v, PhoneRegion)
	if err != nil {
		return nil, false
	}
	return num, phonenumbers.IsValidNumber(num)
}

type pwdClasses struct {
	length, upper, lower, digit, special bool
}

func checkPassword(pwd string) pwdClasses {
	c := pwdClasses{length: len([]rune(pwd)) >= pwdMinLen}
	for _, char := range pwd {
		switch {
		case unicode.IsUpper(char):
			c.upper = true
		case unicode.IsLower(char):
			c.lower = true
		case unicode.IsDigit(char):
			c.digit = true
		case strings.ContainsRune(pwdSpecialChars, char):
			c.special = true
		}
	}
	return c
}

// IsStrongPassword applies the password policy:
// - minLen: 8
// - complexity: 1 upper, 1 lower, 1 digit, 1 of !@#$%^&*
func IsStrongPassword(pwd string) bool {
	c := checkPassword(pwd)
	return c.length && c.upper && c.lower && c.digit && c.special
}

// PasswordStrengthMessage lists the unmet policy classes, in policy order.
// It returns "" for a strong password.
func PasswordStrengthMessage(pwd string) string {
	c := checkPassword(pwd)
	missing := make([]string, 0, 5)
	if !c.length {
		missing = append(missing, "at least 8 characters")
	}
	if !c.upper {
		missing = append(missing, "an uppercase letter")
	}
	if !c.lower {
		missing = append(missing, "a lowercase letter")
	}
	if !c.digit {
		missing = append(missing, "a number")
	}
	if !c.special {
		missing = append(missing, "a special character ("+pwdSpecialChars+")")
	}
	if len(missing) == 0 {
		return ""
	}
	return "Password must include " + strings.Join(missing, ", ") + "."
}

// ValidatePasswordConfirm returns "" if confirm equals pwd.
func ValidatePasswordConfirm(pwd, confirm string) string {
	if pwd != confirm {
		return PasswordMismatch
	}
	return ""
}

// Custom Validators

func phoneValidation(fl validator.FieldLevel) bool {
	return ValidatePhone(fl.Field().String()) == ""
}

func strongPwdValidation(fl validator.FieldLevel) bool {
	return IsStrongPassword(fl.Field().String())
}
