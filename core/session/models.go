package session

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/edubanco/recursos/core"
)

// User mirrors the backend's user record. It has no lifecycle of its own
// here: it is fetched on session verification and replaced wholesale after
// profile round trips.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	School         string    `json:"school,omitempty"`
	MaterialsCount int       `json:"materialsCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Session is the server-side state addressed by the browser cookie. The
// backend bearer token never leaves the server.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s Session) Authenticated() bool {
	return s.Token != "" && time.Now().Before(s.ExpiresAt)
}

// Auth is the result of a successful login/register round trip.
type Auth struct {
	User  User
	Token string
}

// Credentials contains the information needed to log a user in.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return validate.Struct(c)
}

// NewAccount contains the information needed to register a new user.
type NewAccount struct {
	Name            string `json:"name" validate:"required,min=2,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	School          string `json:"school" validate:"omitempty,max=200"`
}

func (na *NewAccount) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.School = core.CleanString(na.School)
	return validate.Struct(na)
}

// UpdateProfile defines what a user may change about themselves.
type UpdateProfile struct {
	Name   string `json:"name" validate:"omitempty,min=2,max=100"`
	School string `json:"school" validate:"omitempty,max=200"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	up.Name = core.CleanString(up.Name)
	up.School = core.CleanString(up.School)
	return validate.Struct(up)
}

// ChangePassword is forwarded to the backend verbatim; only presence is
// checked here.
type ChangePassword struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,nefield=CurrentPassword"`
}

func (cp *ChangePassword) Validate(validate *validator.Validate) error {
	return validate.Struct(cp)
}
