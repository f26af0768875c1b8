package jiraerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies a failure independent of which client produced it.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthentication
	KindPermission
	KindNotFound
	KindValidation
	KindConflict
	KindRateLimit
	KindServer
	KindConnection
)

// String returns the name used in log lines and printed errors.
func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not-found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindRateLimit:
		return "rate-limit"
	case KindServer:
		return "server"
	case KindConnection:
		return "connection"
	default:
		return "jira"
	}
}

// Domain tells which API family raised the error.
type Domain int

const (
	DomainPlatform Domain = iota
	DomainServiceManagement
	DomainAutomation
)

// String returns a short label for the domain.
func (d Domain) String() string {
	switch d {
	case DomainServiceManagement:
		return "jsm"
	case DomainAutomation:
		return "automation"
	default:
		return "platform"
	}
}

// Error is the single error type returned by the real and the mock client.
type Error struct {
	Kind       Kind
	Domain     Domain
	StatusCode int               // 0 when no HTTP response was received
	Message    string            // human readable, already sanitized
	Operation  string            // e.g. "get issue PROJ-1"
	Details    map[string]string // field errors from the "errors" object
	RetryAfter int               // seconds, only set for rate limits
	Err        error             // underlying cause
}

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Operation != "" {
		b.WriteString(e.Operation)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "; %s: %s", k, e.Details[k])
		}
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of the given kind with a sanitized message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: Sanitize(fmt.Sprintf(format, args...))}
}

// Wrap returns an Error of the given kind that keeps err as its cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	e := New(kind, format, args...)
	e.Err = err
	return e
}

// NotFound is shorthand for New(KindNotFound, ...).
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

// Validation is shorthand for New(KindValidation, ...).
func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// ServiceManagement returns an error tagged with the JSM domain.
func ServiceManagement(kind Kind, format string, args ...any) *Error {
	e := New(kind, format, args...)
	e.Domain = DomainServiceManagement
	return e
}

// Automation returns an error tagged with the automation domain.
func Automation(kind Kind, format string, args ...any) *Error {
	e := New(kind, format, args...)
	e.Domain = DomainAutomation
	return e
}

// KindForStatus maps an HTTP status code onto a Kind.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusBadRequest:
		return KindValidation
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusForbidden:
		return KindPermission
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// FromStatus builds an Error for a status code with a fixed message.
func FromStatus(status int, operation, message string) *Error {
	if strings.TrimSpace(message) == "" {
		message = defaultMessage(status)
	}
	return &Error{
		Kind:       KindForStatus(status),
		StatusCode: status,
		Operation:  operation,
		Message:    Sanitize(message),
	}
}

// errorBody is the shape Jira uses for error responses.
type errorBody struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
	Message       string            `json:"message"`     // some JSM/agile endpoints
	ErrorMessage  string            `json:"errorMessage"` // servicedeskapi
}

// FromResponse builds an Error from a status code and a Jira error body.
func FromResponse(status int, body []byte, operation string) *Error {
	e := FromStatus(status, operation, "")

	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		msgs := make([]string, 0, len(eb.ErrorMessages)+2)
		msgs = append(msgs, eb.ErrorMessages...)
		if eb.Message != "" {
			msgs = append(msgs, eb.Message)
		}
		if eb.ErrorMessage != "" {
			msgs = append(msgs, eb.ErrorMessage)
		}
		if len(msgs) > 0 {
			e.Message = Sanitize(strings.Join(msgs, "; "))
		}
		if len(eb.Errors) > 0 {
			e.Details = make(map[string]string, len(eb.Errors))
			for k, v := range eb.Errors {
				e.Details[k] = Sanitize(v)
			}
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) < 512 {
		e.Message = Sanitize(text)
	}

	return e
}

// defaultMessage returns the fallback message for a status code.
func defaultMessage(status int) string {
	switch KindForStatus(status) {
	case KindAuthentication:
		return "authentication failed"
	case KindPermission:
		return "permission denied"
	case KindNotFound:
		return "resource not found"
	case KindValidation:
		return "invalid request"
	case KindConflict:
		return "conflicting change"
	case KindRateLimit:
		return "rate limit exceeded"
	case KindServer:
		return "jira server error"
	default:
		if text := http.StatusText(status); text != "" {
			return strings.ToLower(text)
		}
		return "unexpected response"
	}
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Retryable reports whether a request that failed with err may be retried.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindConnection, KindServer, KindRateLimit:
		return true
	default:
		return false
	}
}
