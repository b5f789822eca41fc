package api

import (
	"errors"
	"fmt"
)

// Kind discriminates transport failures into the categories callers act on.
type Kind int

const (
	// KindOperation covers any non-2xx outcome without a more specific
	// meaning, including a server that never responded.
	KindOperation Kind = iota

	// KindAuthentication means the credentials were rejected or the token
	// was invalid or expired on a protected call.
	KindAuthentication

	// KindValidation means the server rejected the input fields.
	KindValidation

	// KindHasDependents means a delete was blocked by records that still
	// reference the target.
	KindHasDependents
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication_failed"
	case KindValidation:
		return "validation_failed"
	case KindHasDependents:
		return "has_dependents"
	default:
		return "operation_failed"
	}
}

// Error is the tagged transport error, constructed once at the client
// boundary. Callers branch on Kind and never re-inspect response shapes.
type Error struct {
	Kind   Kind
	Status int    // HTTP status; 0 when no response arrived
	Detail string // server-provided detail, or a static fallback
	Op     string // "METHOD path"
	Err    error  // underlying transport error, if any
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Kind, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d", e.Op, e.Kind, e.Status)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError unwraps err to the client's tagged error, if it carries one.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsAuthentication reports whether err is an authentication failure.
func IsAuthentication(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindAuthentication
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindValidation
}

// IsHasDependents reports whether err is a referential-integrity block.
func IsHasDependents(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindHasDependents
}
