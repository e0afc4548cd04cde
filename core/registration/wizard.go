// Package registration is the multi-step alumni sign-up: account, personal, academic
// and employment steps, submitted as a two-phase write (user, then GTS record).
package registration

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/trace/core"
	"github.com/trezcool/trace/core/availability"
	"github.com/trezcool/trace/core/form"
	"github.com/trezcool/trace/core/gts"
	"github.com/trezcool/trace/core/outcome"
	"github.com/trezcool/trace/core/user"
)

// steps
const (
	StepAccount    = "account"
	StepPersonal   = "personal"
	StepAcademic   = "academic"
	StepEmployment = "employment"
)

const MsgRegistered = "Registration successful! Your account is pending approval by an administrator."

// API is the part of the remote API the Wizard writes through.
type API interface {
	RegisterAlumni(ctx context.Context, na user.NewAlumni) (*user.User, error)
	CreateGTSRecord(ctx context.Context, userID string, payload form.Values) (*gts.Record, error)
}

func checkUsername(v interface{}, _ form.Values) string {
	s, _ := v.(string)
	s = core.CleanString(s)
	if len(s) < 3 {
		return "Username must be at least 3 characters long."
	}
	if core.Validate.Var(s, "alphanum_") != nil {
		return "Username may only contain letters, numbers and underscores."
	}
	return ""
}

func checkZipCode(v interface{}, _ form.Values) string {
	s, _ := v.(string)
	if core.Validate.Var(core.CleanString(s), "numeric,len=4") != nil {
		return "Zip code must be 4 digits."
	}
	return ""
}

// Steps is the ordered registry of registration steps.
var Steps = form.NewRegistry(
	form.Section{ID: StepAccount, Label: "Account", Fields: []form.Field{
		{
			Key: "username", Label: "Username", Kind: form.KindUsername, Required: true,
			Availability: availability.Username, Check: checkUsername,
		},
		{Key: "email", Label: "Email", Kind: form.KindEmail, Required: true, Availability: availability.Email},
		{Key: "password", Label: "Password", Kind: form.KindPassword, Required: true},
		{Key: "password_confirm", Label: "Confirm password", Kind: form.KindPasswordConfirm, Required: true, Confirms: "password"},
	}},
	form.Section{ID: StepPersonal, Label: "Personal Information", Fields: []form.Field{
		{Key: "first_name", Label: "First name", Kind: form.KindName, Required: true},
		{Key: "middle_name", Label: "Middle name", Kind: form.KindName},
		{Key: "last_name", Label: "Last name", Kind: form.KindName, Required: true},
		{Key: "birthday", Label: "Birthday", Kind: form.KindDate, Required: true},
		{
			Key: "contact_number", Label: "Contact number", Kind: form.KindPhone, Required: true,
			Availability: availability.Phone,
		},
		{Key: "street", Label: "Street", Kind: form.KindText, Required: true},
		{Key: "barangay", Label: "Barangay", Kind: form.KindName},
		{Key: "city", Label: "City or municipality", Kind: form.KindName, Required: true},
		{Key: "province", Label: "Province", Kind: form.KindName, Required: true},
		{Key: "region", Label: "Region", Kind: form.KindText},
		{Key: "zip_code", Label: "Zip code", Kind: form.KindText, Check: checkZipCode},
	}},
	form.Section{ID: StepAcademic, Label: "Academic Information", Fields: []form.Field{
		{Key: "course", Label: "Course", Kind: form.KindText, Required: true},
		{Key: "batch_year", Label: "Batch year", Kind: form.KindYear, Required: true},
	}},
	form.Section{ID: StepEmployment, Label: "Employment Information", Fields: gts.EmploymentFields()},
)

// PartialError is returned when the account was created but its GTS record was not.
// The account is left as is, for an administrator to reconcile.
type PartialError struct {
	UserID string
	Err    error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("user %s created, GTS record failed: %v", e.UserID, e.Err)
}

func (e *PartialError) Cause() error  { return e.Err }
func (e *PartialError) Unwrap() error { return e.Err }

func (e *PartialError) UserMessage() string {
	return fmt.Sprintf(
		"Your account was created but your employment information could not be saved. "+
			"Please contact an administrator and mention account %s.", e.UserID,
	)
}

// Wizard drives the registration steps. It is owned by a single goroutine.
type Wizard struct {
	api     API
	timeout time.Duration
	logger  core.Logger
	session *form.Session
}

func NewWizard(api API, timeout time.Duration, logger core.Logger) *Wizard {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Wizard{
		api:     api,
		timeout: timeout,
		logger:  logger,
		session: form.NewSession(Steps, []form.Rule{gts.EmploymentRule}, nil),
	}
}

func (w *Wizard) Session() *form.Session { return w.session }

// Next validates the current step and moves to the following one.
func (w *Wizard) Next() error { return w.session.Advance() }

// Back returns to the previous step. It is a no-op on the first one.
func (w *Wizard) Back() bool { return w.session.Previous() }

// NewAlumni builds the account payload out of the wizard's values.
func (w *Wizard) NewAlumni() user.NewAlumni {
	vals := w.session.Values()
	year, _ := vals["batch_year"].(int)
	return user.NewAlumni{
		Username:      vals.String("username"),
		Email:         vals.String("email"),
		FirstName:     vals.String("first_name"),
		MiddleName:    vals.String("middle_name"),
		LastName:      vals.String("last_name"),
		Birthday:      vals.String("birthday"),
		ContactNumber: vals.String("contact_number"),
		Address: user.Address{
			Street:   vals.String("street"),
			Barangay: vals.String("barangay"),
			City:     vals.String("city"),
			Province: vals.String("province"),
			Region:   vals.String("region"),
			ZipCode:  vals.String("zip_code"),
		},
		Course:          vals.String("course"),
		BatchYear:       year,
		Password:        vals.String("password"),
		PasswordConfirm: vals.String("password_confirm"),
		Role:            user.RoleAlumni,
	}
}

func (w *Wizard) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if w.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, w.timeout)
}

// Submit validates the last step, creates the account, then its GTS record with the
// new user's id. Field errors, local or from the server, move the wizard back to the
// step declaring the first of them.
func (w *Wizard) Submit(ctx context.Context) outcome.Result {
	if !w.session.IsLast() {
		return outcome.Failure(core.NewArgumentError("registration is not on its last step"))
	}
	if err := w.session.Advance(); err != nil {
		return outcome.Failure(err)
	}
	na := w.NewAlumni()
	if err := na.Validate(); err != nil {
		w.showErrors(err)
		return outcome.Failure(err)
	}
	gtsPayload, err := w.session.Payload(StepEmployment)
	if err != nil {
		return outcome.Failure(err)
	}

	cctx, cancel := w.withTimeout(ctx)
	usr, err := w.api.RegisterAlumni(cctx, na)
	cancel()
	if err != nil {
		w.logger.Error("registering alumni failed", err)
		w.showErrors(err)
		return outcome.Failure(errors.Wrap(err, "creating user"))
	}

	cctx, cancel = w.withTimeout(ctx)
	rec, err := w.api.CreateGTSRecord(cctx, usr.ID, gtsPayload)
	cancel()
	if err != nil {
		w.logger.Error("creating GTS record failed", err, *usr)
		return outcome.Failure(&PartialError{UserID: usr.ID, Err: err})
	}
	return outcome.Result{Message: MsgRegistered, Data: Registered{User: *usr, Record: *rec}, Redirect: true}
}

// Registered is the data of a successful registration.
type Registered struct {
	User   user.User
	Record gts.Record
}

func (w *Wizard) showErrors(err error) {
	var flds map[string]string
	var fe outcome.FieldErrorer
	if errors.As(err, &fe) {
		flds = fe.FieldErrors()
	} else if vErr, ok := core.AsValidationError(err); ok {
		flds = vErr.FieldMap()
	}
	for _, sec := range Steps.Sections() {
		for _, f := range sec.Fields {
			if _, ok := flds[f.Key]; ok {
				_ = w.session.GoTo(sec.ID)
				w.session.SetErrors(flds)
				return
			}
		}
	}
}
