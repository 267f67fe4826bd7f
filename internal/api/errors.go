package api

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("api: not found")
	ErrUnauthorized    = errors.New("api: unauthorized")
	ErrInvalidResponse = errors.New("api: invalid response format")
)

// Kind classifies a failed call.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindServer
	KindShape
	KindNotFound
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	case KindShape:
		return "shape"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// User-facing fallbacks, in the platform's language.
const (
	FallbackMessage  = "Une erreur est survenue"
	TransportMessage = "Impossible de joindre le serveur"
	ShapeMessage     = "Format de réponse invalide"
)

// Error is returned by every Client call that fails.
type Error struct {
	Kind       Kind
	Method     string
	Path       string
	StatusCode int
	// Message is the server-provided text, empty when the body had none.
	Message   string
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %s (status %d): %s", e.Method, e.Path, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Method, e.Path, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrInvalidResponse:
		return e.Kind == KindShape
	}
	return false
}

// Message extracts the text to show a user for err: the server's message when
// it sent one, otherwise a fallback matching the failure kind.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return FallbackMessage
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	switch apiErr.Kind {
	case KindTransport:
		return TransportMessage
	case KindShape:
		return ShapeMessage
	default:
		return FallbackMessage
	}
}

func shapeError(method, path, requestID, format string, args ...any) *Error {
	return &Error{
		Kind:      KindShape,
		Method:    method,
		Path:      path,
		RequestID: requestID,
		Err:       fmt.Errorf("%w: %s", ErrInvalidResponse, fmt.Sprintf(format, args...)),
	}
}
