package core

import "github.com/pkg/errors"

var (
	// ErrNotAuthenticated is returned whenever an action requires a live
	// session and none exists. The web layer turns it into a login redirect.
	ErrNotAuthenticated = errors.New("não autenticado")

	// ErrSessionExpired is returned when the backend rejected our stored
	// credential (401). Whoever surfaces it to the client must reset the
	// session state first, never leaving a stale user behind.
	ErrSessionExpired = errors.New("sessão expirada")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries field-scoped errors caught at a form boundary,
// before any network call is made.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
