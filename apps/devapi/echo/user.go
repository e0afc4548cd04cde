package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/trace/core"
	"github.com/trezcool/trace/core/user"
)

var (
	pwdMaxSim      = .7
	pwdAttrSimText = "password cannot be similar to user attributes"
	wrongPwdText   = "Current password is incorrect."

	takenTexts = map[error]core.FieldError{
		ErrUsernameExists: {Field: "username", Error: "Username is already taken"},
		ErrEmailExists:    {Field: "email", Error: "Email is already registered"},
		ErrPhoneExists:    {Field: "contact_number", Error: "Phone number is already registered"},
	}
)

type userApi struct {
	auth  *Auth
	store *Store
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *Auth, store *Store) {
	api := userApi{auth: auth, store: store}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/register/alumni", api.register)
	ug.POST("/login", api.login)
	ug.POST("/check-username", api.checkUsername)
	ug.POST("/check-email", api.checkEmail)
	ug.POST("/check-phone", api.checkPhone)

	// authed endpoints
	ag := ug.Group("/me", jwt)
	ag.GET("", api.me)
	ag.PUT("/password", api.changePassword)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewAlumni
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAlumni")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	if passwordTooSimilar(data.Password, data.Username, data.Email, data.FirstName, data.LastName) {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: pwdAttrSimText})
	}

	usr, err := api.store.CreateUser(user.User{
		Username:      data.Username,
		Email:         data.Email,
		FirstName:     data.FirstName,
		MiddleName:    data.MiddleName,
		LastName:      data.LastName,
		Birthday:      data.Birthday,
		ContactNumber: data.ContactNumber,
		Course:        data.Course,
		BatchYear:     data.BatchYear,
		Role:          user.RoleAlumni,
	}, data.Password)
	if err != nil {
		if fErr, ok := takenTexts[err]; ok {
			return core.NewValidationError(nil, fErr)
		}
		return errors.Wrap(err, "creating user")
	}

	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) login(ctx echo.Context) error {
	var data user.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.store.Authenticate(data.Identifier, data.Password)
	if err != nil {
		if err == ErrNotFound {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.auth.GenerateToken(api.auth.UserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, user.LoginResponse{
		Token:      token,
		Role:       usr.Role,
		IsApproved: usr.IsApproved,
		User:       &usr,
	})
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.store)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) changePassword(ctx echo.Context) error {
	var data user.ChangePassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.store)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if passwordTooSimilar(data.Password, usr.Username, usr.Email, usr.FirstName, usr.LastName) {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: pwdAttrSimText})
	}
	if err := api.store.ChangePassword(usr.ID, data.Current, data.Password); err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "current_password", Error: wrongPwdText})
		}
		return errors.Wrap(err, "changing password")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	usernameCheck struct {
		Username string `json:"username"`
	}
	emailCheck struct {
		Email string `json:"email"`
	}
	phoneCheck struct {
		ContactNumber string `json:"contact_number"`
	}
)

func (api *userApi) checkUsername(ctx echo.Context) error {
	var data usernameCheck
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to usernameCheck")
	}
	uname := core.CleanString(data.Username, true /* lower */)
	if uname == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "username", Error: "this field is required"})
	}
	return ctx.JSON(http.StatusOK, availability(!api.store.UsernameTaken(uname), "Username"))
}

func (api *userApi) checkEmail(ctx echo.Context) error {
	var data emailCheck
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to emailCheck")
	}
	email := core.CleanString(data.Email, true /* lower */)
	if email == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "this field is required"})
	}
	return ctx.JSON(http.StatusOK, availability(!api.store.EmailTaken(email), "Email"))
}

func (api *userApi) checkPhone(ctx echo.Context) error {
	var data phoneCheck
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to phoneCheck")
	}
	if msg := user.ValidatePhone(data.ContactNumber); msg != "" {
		return core.NewValidationError(nil, core.FieldError{Field: "contact_number", Error: msg})
	}
	return ctx.JSON(http.StatusOK, availability(!api.store.PhoneTaken(data.ContactNumber), "Phone number"))
}

func availability(available bool, label string) user.Availability {
	if available {
		return user.Availability{Available: true, Message: label + " is available"}
	}
	if label == "Username" {
		return user.Availability{Message: label + " is already taken"}
	}
	return user.Availability{Message: label + " is already registered"}
}

// passwordTooSimilar reports whether pwd is too close to one of the user's attributes.
func passwordTooSimilar(pwd string, attrs ...string) bool {
	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if getRatio(lpwd, strings.ToLower(attr)) >= pwdMaxSim {
			return true
		}
	}
	return false
}
