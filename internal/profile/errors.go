package profile

import (
	"context"
	"errors"
	"net"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind classifies a document store failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTransport
	KindPermissionDenied
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "Transport"
	case KindPermissionDenied:
		return "PermissionDenied"
	}
	return "Unknown"
}

// StoreError is the only error type Store operations return, apart from
// input validation errors.
type StoreError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return "profile: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

// ErrInvalidInput marks onboarding or transaction input rejected before any
// store call.
var ErrInvalidInput = errors.New("profile: invalid input")

// InputError carries the message shown for rejected input.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func wrap(op string, err error) error {
	return &StoreError{Kind: classify(err), Op: op, Err: err}
}

func classify(err error) ErrorKind {
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return KindPermissionDenied
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return KindTransport
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransport
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransport
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission"):
		return KindPermissionDenied
	case strings.Contains(msg, "network"):
		return KindTransport
	}
	return KindUnknown
}

// UserMessage returns the text shown next to the onboarding form for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ie *InputError
	if errors.As(err, &ie) {
		return ie.Message
	}
	var se *StoreError
	if errors.As(err, &se) {
		switch se.Kind {
		case KindPermissionDenied:
			return "Permission denied. Check the document store security rules for the users collection."
		case KindTransport:
			return "Network error. Check your internet connection."
		}
		if se.Err != nil && se.Err.Error() != "" {
			return se.Err.Error()
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Failed to save profile"
}
