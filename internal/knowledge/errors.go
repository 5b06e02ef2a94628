package knowledge

import (
	"errors"
	"fmt"
)

// Kind categorizes a domain error so the tool boundary can surface a
// machine-readable label alongside the message.
type Kind int

const (
	// KindNotFound - the named element has no record
	KindNotFound Kind = iota
	// KindDuplicateID - create collided with an existing id
	KindDuplicateID
	// KindInvalidType - element type outside the known enum
	KindInvalidType
	// KindEmptyID - empty string where an id is required
	KindEmptyID
	// KindInvalidID - id unusable as a file name
	KindInvalidID
	// KindIOFailure - persistence could not complete
	KindIOFailure
	// KindMalformedRecord - on-disk state failed validation
	KindMalformedRecord
)

// String returns the wire label for the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindDuplicateID:
		return "duplicate_id"
	case KindInvalidType:
		return "invalid_type"
	case KindEmptyID:
		return "empty_id"
	case KindInvalidID:
		return "invalid_id"
	case KindIOFailure:
		return "io_failure"
	case KindMalformedRecord:
		return "malformed_record"
	default:
		return "unknown"
	}
}

// Error is a structured domain error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by kind, so errors.Is(err, knowledge.NotFound(""))
// works regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf extracts the kind from err. The second return is false when err
// is not a domain error anywhere in its chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Constructors for the error vocabulary

// NotFound reports that id has no record.
func NotFound(id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("element %q not found", id)}
}

// DuplicateID reports a create collision on id.
func DuplicateID(id string) *Error {
	return &Error{Kind: KindDuplicateID, Message: fmt.Sprintf("element %q already exists", id)}
}

// InvalidType reports an element type outside the known enum.
func InvalidType(t string) *Error {
	return &Error{Kind: KindInvalidType, Message: fmt.Sprintf("invalid element type %q (want function, module, constant or variable)", t)}
}

// EmptyID reports a missing id.
func EmptyID() *Error {
	return &Error{Kind: KindEmptyID, Message: "element id must not be empty"}
}

// InvalidID reports an id that cannot name an element file.
func InvalidID(id, reason string) *Error {
	return &Error{Kind: KindInvalidID, Message: fmt.Sprintf("invalid element id %q: %s", id, reason)}
}

// IOFailure wraps a persistence failure.
func IOFailure(err error, message string) *Error {
	return &Error{Kind: KindIOFailure, Message: message, Cause: err}
}

// IOFailuref wraps a persistence failure with formatting.
func IOFailuref(err error, format string, args ...any) *Error {
	return &Error{Kind: KindIOFailure, Message: fmt.Sprintf(format, args...), Cause: err}
}

// MalformedRecord reports on-disk state that failed validation.
func MalformedRecord(err error, format string, args ...any) *Error {
	return &Error{Kind: KindMalformedRecord, Message: fmt.Sprintf(format, args...), Cause: err}
}
