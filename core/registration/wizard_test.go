package registration

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/trace/core/form"
	"github.com/trezcool/trace/core/gts"
	"github.com/trezcool/trace/core/outcome"
	"github.com/trezcool/trace/core/user"
)

type fieldsErr map[string]string

func (e fieldsErr) Error() string                  { return "invalid input" }
func (e fieldsErr) FieldErrors() map[string]string { return e }

type fakeAPI struct {
	registered []user.NewAlumni
	gtsCalls   []string
	gtsPayload form.Values
	userErr    error
	gtsErr     error
}

func (api *fakeAPI) RegisterAlumni(_ context.Context, na user.NewAlumni) (*user.User, error) {
	api.registered = append(api.registered, na)
	if api.userErr != nil {
		return nil, api.userErr
	}
	return &user.User{ID: "u-42", Username: na.Username, Email: na.Email, Role: user.RoleAlumni}, nil
}

func (api *fakeAPI) CreateGTSRecord(_ context.Context, userID string, payload form.Values) (*gts.Record, error) {
	api.gtsCalls = append(api.gtsCalls, userID)
	api.gtsPayload = payload
	if api.gtsErr != nil {
		return nil, api.gtsErr
	}
	rec, err := gts.Record{ID: "g-1", UserID: userID}.Merge(payload)
	return &rec, err
}

func fill(t *testing.T, w *Wizard) {
	sess := w.Session()
	steps := []map[string]interface{}{
		{
			"username": " Juan_DC ", "email": "Juan@Example.com",
			"password": "Secret123!", "password_confirm": "Secret123!",
		},
		{
			"first_name": "juan", "last_name": "dela cruz", "birthday": "1995-06-15",
			"contact_number": "0917 123 4567", "street": "12 Rizal St.", "city": "quezon city",
			"province": "metro manila", "zip_code": "1100",
		},
		{"course": "BS Computer Science", "batch_year": "2016"},
	}
	for _, vals := range steps {
		for k, v := range vals {
			require.NoError(t, sess.Set(k, v))
		}
		require.NoError(t, w.Next(), "%v", sess.Errors())
	}
	require.Equal(t, StepEmployment, sess.Active().ID)
	require.NoError(t, sess.Set(gts.FieldEmploymentNow, gts.EmployedNo))
	require.NoError(t, sess.Toggle(gts.FieldNonEmployedReasons, "No job opportunity"))
}

func TestWizard_Steps(t *testing.T) {
	w := NewWizard(&fakeAPI{}, 0, nil)
	sess := w.Session()

	err := w.Next()
	require.Error(t, err)
	assert.Equal(t, StepAccount, sess.Active().ID)
	assert.Equal(t, form.MsgRequired, sess.Error("username"))

	require.NoError(t, sess.Set("username", "ju"))
	require.NoError(t, sess.Set("email", "juan@example.com"))
	require.NoError(t, sess.Set("password", "secret"))
	require.NoError(t, sess.Set("password_confirm", "secret!"))
	require.Error(t, w.Next())
	assert.Equal(t, map[string]string{
		"username":         "Username must be at least 3 characters long.",
		"password":         "Password must include at least 8 characters, an uppercase letter, a number, a special character (!@#$%^&*).",
		"password_confirm": "Passwords do not match.",
	}, sess.Errors())

	assert.False(t, w.Back(), "back on the first step is a no-op")
}

func TestWizard_Submit(t *testing.T) {
	api := &fakeAPI{}
	w := NewWizard(api, 0, nil)
	fill(t, w)

	res := w.Submit(context.Background())

	require.True(t, res.OK(), "%v", res.Err)
	require.Len(t, api.registered, 1)
	na := api.registered[0]
	assert.Equal(t, "juan_dc", na.Username)
	assert.Equal(t, "juan@example.com", na.Email)
	assert.Equal(t, "Juan", na.FirstName)
	assert.Equal(t, "Dela Cruz", na.LastName)
	assert.Equal(t, "+639171234567", na.ContactNumber)
	assert.Equal(t, "Quezon City", na.Address.City)
	assert.Equal(t, 2016, na.BatchYear)
	assert.Equal(t, user.RoleAlumni, na.Role)

	assert.Equal(t, []string{"u-42"}, api.gtsCalls, "GTS record created with the new user's id")
	assert.Equal(t, []string{"No job opportunity"}, api.gtsPayload[gts.FieldNonEmployedReasons])
	assert.Equal(t, []string{}, api.gtsPayload[gts.FieldOccupation])

	fb := outcome.Report(res)
	assert.Equal(t, outcome.LevelSuccess, fb.Level)
	assert.Equal(t, MsgRegistered, fb.Message)
	assert.Equal(t, outcome.RedirectDelay, fb.RedirectAfter)
	reg := res.Data.(Registered)
	assert.Equal(t, "u-42", reg.Record.UserID)
}

func TestWizard_SubmitPartialFailure(t *testing.T) {
	api := &fakeAPI{gtsErr: errors.New("gateway timeout")}
	w := NewWizard(api, 0, nil)
	fill(t, w)

	res := w.Submit(context.Background())

	require.False(t, res.OK())
	pErr, ok := res.Err.(*PartialError)
	require.True(t, ok)
	assert.Equal(t, "u-42", pErr.UserID)
	assert.Len(t, api.registered, 1, "account is not rolled back")

	fb := outcome.Report(res)
	assert.Equal(t, outcome.LevelError, fb.Level)
	assert.True(t, strings.Contains(fb.Banner, "u-42"))
}

func TestWizard_SubmitServerFieldErrors(t *testing.T) {
	api := &fakeAPI{userErr: fieldsErr{"username": "Username is already taken"}}
	w := NewWizard(api, 0, nil)
	fill(t, w)

	res := w.Submit(context.Background())

	require.False(t, res.OK())
	assert.Empty(t, api.gtsCalls)
	assert.Equal(t, StepAccount, w.Session().Active().ID)
	assert.Equal(t, "Username is already taken", w.Session().Error("username"))
	assert.Equal(t, map[string]string{"username": "Username is already taken"}, outcome.Report(res).FieldErrors)
}

func TestWizard_SubmitNotLastStep(t *testing.T) {
	api := &fakeAPI{}
	w := NewWizard(api, 0, nil)
	res := w.Submit(context.Background())
	assert.False(t, res.OK())
	assert.Empty(t, api.registered)
}
