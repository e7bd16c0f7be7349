package session

import (
	"errors"
	"strings"

	"github.com/theirongolddev/finlens/internal/identity"
)

// ErrorKind classifies an authentication failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindEmailInUse
	KindInvalidCredential
	KindUserNotFound
	KindInvalidEmail
	KindWeakCredential
)

func (k ErrorKind) String() string {
	switch k {
	case KindEmailInUse:
		return "EmailInUse"
	case KindInvalidCredential:
		return "InvalidCredential"
	case KindUserNotFound:
		return "UserNotFound"
	case KindInvalidEmail:
		return "InvalidEmail"
	case KindWeakCredential:
		return "WeakCredential"
	}
	return "Unknown"
}

// AuthError is returned by SignUp and SignIn. Err is the provider error.
type AuthError struct {
	Kind ErrorKind
	Code string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return "session: " + e.Err.Error()
	}
	return "session: " + e.Kind.String()
}

func (e *AuthError) Unwrap() error { return e.Err }

// ErrInvalidInput is returned by ValidateCredentials.
var ErrInvalidInput = errors.New("session: invalid credentials input")

// InputError is a form validation failure caught before contacting the provider.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// signUpKinds and signInKinds restrict each operation to the kinds it can
// report; any other provider code becomes KindUnknown.
var signUpKinds = map[string]ErrorKind{
	identity.CodeEmailInUse:   KindEmailInUse,
	identity.CodeInvalidEmail: KindInvalidEmail,
	identity.CodeWeakPassword: KindWeakCredential,
}

var signInKinds = map[string]ErrorKind{
	identity.CodeInvalidCredential: KindInvalidCredential,
	identity.CodeWrongPassword:     KindInvalidCredential,
	identity.CodeUserNotFound:      KindUserNotFound,
	identity.CodeInvalidEmail:      KindInvalidEmail,
}

func classify(kinds map[string]ErrorKind, err error) *AuthError {
	code := identity.CodeOf(err)
	return &AuthError{Kind: kinds[code], Code: code, Err: err}
}

// UserMessage returns the text shown next to the login form for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ie *InputError
	if errors.As(err, &ie) {
		return ie.Message
	}

	var ae *AuthError
	if errors.As(err, &ae) {
		switch ae.Kind {
		case KindEmailInUse:
			return "Email already in use. Try logging in instead."
		case KindInvalidCredential:
			return "Invalid email or password"
		case KindUserNotFound:
			return "No account found. Try signing up instead."
		case KindInvalidEmail:
			return "Invalid email address"
		case KindWeakCredential:
			return "Password must be at least 6 characters"
		}
		if ae.Err != nil {
			err = ae.Err
		}
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "Authentication failed"
}

// ValidateCredentials checks the login form before it is submitted.
func ValidateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return &InputError{Message: "Enter email and password"}
	}
	if len(password) < 6 {
		return &InputError{Message: "Password must be at least 6 characters"}
	}
	return nil
}
