package user

import (
	"time"

	"github.com/trezcool/trace/core"
)

// Roles
const (
	RoleAdmin  = "admin"
	RoleAlumni = "alumni"
)

var AllRoles = []string{RoleAdmin, RoleAlumni}

type User struct {
	ID            string    `json:"id" yaml:"id"`
	Username      string    `json:"username" yaml:"username"`
	Email         string    `json:"email" yaml:"email"`
	FirstName     string    `json:"first_name" yaml:"first_name"`
	MiddleName    string    `json:"middle_name,omitempty" yaml:"middle_name,omitempty"`
	LastName      string    `json:"last_name" yaml:"last_name"`
	Birthday      string    `json:"birthday,omitempty" yaml:"birthday,omitempty"` // YYYY-MM-DD
	ContactNumber string    `json:"contact_number,omitempty" yaml:"contact_number,omitempty"`
	Course        string    `json:"course,omitempty" yaml:"course,omitempty"`
	BatchYear     int       `json:"batch_year,omitempty" yaml:"batch_year,omitempty"`
	Role          string    `json:"role" yaml:"role"`
	IsApproved    bool      `json:"is_approved" yaml:"is_approved"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}

func (u User) IsAdmin() bool  { return u.Role == RoleAdmin }
func (u User) IsAlumni() bool { return u.Role == RoleAlumni }

// FullName joins the non-empty name parts.
func (u User) FullName() string {
	return core.TitleCase(u.FirstName + " " + u.MiddleName + " " + u.LastName)
}

// Address is the alumni's home address as collected by the registration form.
type Address struct {
	Street   string `json:"street" validate:"required,notblank"`
	Barangay string `json:"barangay"`
	City     string `json:"city" validate:"required,notblank"`
	Province string `json:"province" validate:"required,notblank"`
	Region   string `json:"region"`
	ZipCode  string `json:"zip_code" validate:"omitempty,numeric,len=4"`
}

// NewAlumni contains information needed to register a new alumni account.
type NewAlumni struct {
	Username        string  `json:"username" validate:"required,min=3,alphanum_"`
	Email           string  `json:"email" validate:"required,email"`
	FirstName       string  `json:"first_name" validate:"required,notblank"`
	MiddleName      string  `json:"middle_name"`
	LastName        string  `json:"last_name" validate:"required,notblank"`
	Birthday        string  `json:"birthday" validate:"required,datetime=2006-01-02"`
	Address         Address `json:"address"`
	ContactNumber   string  `json:"contact_number" validate:"required,phone"`
	Course          string  `json:"course" validate:"required,notblank"`
	BatchYear       int     `json:"batch_year" validate:"required,year"`
	Password        string  `json:"password" validate:"required,strongpwd"`
	PasswordConfirm string  `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            string  `json:"role" validate:"required,eq=alumni"`
}

// Clean normalizes the user-entered values: trimmed strings, title-cased names
// and lower-cased username & email.
func (na *NewAlumni) Clean() {
	na.Username = core.CleanString(na.Username, true /* lower */)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.FirstName = core.TitleCase(na.FirstName)
	na.MiddleName = core.TitleCase(na.MiddleName)
	na.LastName = core.TitleCase(na.LastName)
	na.Birthday = core.CleanString(na.Birthday)
	na.Address.Street = core.CleanString(na.Address.Street)
	na.Address.Barangay = core.TitleCase(na.Address.Barangay)
	na.Address.City = core.TitleCase(na.Address.City)
	na.Address.Province = core.TitleCase(na.Address.Province)
	na.Address.Region = core.CleanString(na.Address.Region)
	na.Address.ZipCode = core.CleanString(na.Address.ZipCode)
	na.ContactNumber = NormalizePhone(na.ContactNumber)
	na.Course = core.CleanString(na.Course)
	if na.Role == "" {
		na.Role = RoleAlumni
	}
}

func (na *NewAlumni) Validate() error {
	na.Clean()
	return core.ValidateStruct(na)
}

// LoginRequest authenticates with a username or an email.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,notblank"`
	Password   string `json:"password" validate:"required"`
}

func (lr *LoginRequest) Validate() error {
	lr.Identifier = core.CleanString(lr.Identifier, true /* lower */)
	return core.ValidateStruct(lr)
}

type LoginResponse struct {
	Token      string `json:"token"`
	Role       string `json:"role"`
	IsApproved bool   `json:"is_approved"`
	User       *User  `json:"user,omitempty"`
}

// ChangePassword is the settings panel's password form.
type ChangePassword struct {
	Current         string `json:"current_password" validate:"required"`
	Password        string `json:"password" validate:"required,strongpwd,nefield=Current"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (cp *ChangePassword) Validate() error { return core.ValidateStruct(cp) }

// Availability is the backend's answer to a uniqueness check.
type Availability struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}
