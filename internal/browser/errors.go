// File: internal/browser/errors.go
package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/xkilldash9x/mediumctl/internal/credentials"
)

// ErrTransport marks failures talking to Chrome: launch, tab creation, CDP commands.
var ErrTransport = errors.New("browser transport failure")

// ErrorKind classifies errors returned by this package.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTransport
	KindTimeout
	KindHTTP
	KindCredentials
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindHTTP:
		return "http"
	case KindCredentials:
		return "credentials"
	default:
		return "unknown"
	}
}

// KindOf reports which class err belongs to. A nil error is KindUnknown.
func KindOf(err error) ErrorKind {
	var httpErr *HTTPError
	var timeoutErr *TimeoutError
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &httpErr):
		return KindHTTP
	case errors.As(err, &timeoutErr):
		return KindTimeout
	case errors.Is(err, credentials.ErrNotFound), errors.Is(err, credentials.ErrCorrupt):
		return KindCredentials
	case errors.Is(err, ErrTransport):
		return KindTransport
	default:
		return KindUnknown
	}
}

// HTTPError reports that the response defining an operation carried an error status.
type HTTPError struct {
	Status int
	Reason string
}

func newHTTPError(status int) *HTTPError {
	return &HTTPError{Status: status, Reason: StatusText(status)}
}

// Error renders as "<status> <reason>", e.g. "410 Gone".
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Reason)
}

// TimeoutError is returned when a bounded wait expires.
type TimeoutError struct {
	Bound time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("waiting failed: timeout %dms exceeded", e.Bound.Milliseconds())
}

func transportError(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrTransport, err)
}

// statusReasons covers the client and server error codes the platform can answer with.
var statusReasons = map[int]string{
	400: "Bad Request",
	401: "Unauthorized",
	402: "Payment Required",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	406: "Not Acceptable",
	407: "Proxy Authentication Required",
	408: "Request Timeout",
	409: "Conflict",
	410: "Gone",
	411: "Length Required",
	412: "Precondition Failed",
	413: "Payload Too Large",
	414: "URI Too Long",
	415: "Unsupported Media Type",
	416: "Range Not Satisfiable",
	417: "Expectation Failed",
	418: "I'm a teapot",
	421: "Misdirected Request",
	422: "Unprocessable Entity",
	423: "Locked",
	424: "Failed Dependency",
	426: "Upgrade Required",
	451: "Unavailable For Legal Reasons",
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
	506: "Variant Also Negotiates",
	507: "Insufficient Storage",
	508: "Loop Detected",
	509: "Bandwidth Limit Exceeded",
	510: "Not Extended",
}

// StatusText returns the reason phrase for code, or "Unknown".
func StatusText(code int) string {
	if reason, ok := statusReasons[code]; ok {
		return reason
	}
	return "Unknown"
}
