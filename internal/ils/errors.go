package ils

import (
	"errors"
	"fmt"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
)

// Kind classifies an adapter failure.
type Kind int

const (
	KindFatal Kind = iota
	KindNotFound
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	default:
		return "fatal"
	}
}

// maxAuditBody bounds the response body kept for audit data.
const maxAuditBody = 2000

// Error is a failed call to a host system.
type Error struct {
	Kind       Kind
	System     string
	Op         string
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s", e.System, e.Op)
	if e.Method != "" {
		msg += fmt.Sprintf(": %s %s", e.Method, e.URL)
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" returned %d", e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, domain.ErrNotFound) match not-found adapter errors.
func (e *Error) Is(target error) bool {
	return target == domain.ErrNotFound && e.Kind == KindNotFound
}

// AuditData returns the request/response diagnostics for an audit row.
func (e *Error) AuditData() map[string]any {
	data := map[string]any{
		"system":    e.System,
		"operation": e.Op,
		"errorKind": e.Kind.String(),
	}
	if e.Method != "" {
		data["requestMethod"] = e.Method
	}
	if e.URL != "" {
		data["requestUrl"] = e.URL
	}
	if e.StatusCode != 0 {
		data["responseStatusCode"] = e.StatusCode
	}
	if e.Body != "" {
		data["responseBody"] = domain.TruncateMessage(e.Body, maxAuditBody)
	}
	return data
}

// NotFound builds a not-found error for op.
func NotFound(system, op, what string) *Error {
	return &Error{Kind: KindNotFound, System: system, Op: op, Err: fmt.Errorf("%s not found", what)}
}

// IsNotFound reports whether err is a not-found adapter error.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindNotFound
}

// IsTransient reports whether err is worth retrying on a later pass.
func IsTransient(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindTransient
}

// AuditDataFrom extracts adapter diagnostics from anywhere in err's chain.
func AuditDataFrom(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) {
		return e.AuditData()
	}
	return nil
}
