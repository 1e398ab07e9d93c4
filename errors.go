package tiramisu

import (
	"errors"
	"fmt"
)

type ErrorType int

const (
	UnknownError ErrorType = iota
	ConfigurationError
	AuthenticationError
	RequestError
	TransactionError
	PollingTimeoutError
)

var errorTypeNames = map[ErrorType]string{
	UnknownError:        "unknown error",
	ConfigurationError:  "configuration error",
	AuthenticationError: "authentication error",
	RequestError:        "request error",
	TransactionError:    "transaction error",
	PollingTimeoutError: "polling timeout",
}

func (t ErrorType) String() string {
	if s, ok := errorTypeNames[t]; ok {
		return s
	}
	return errorTypeNames[UnknownError]
}

// Error is returned by every operation of the client. Type tells the failure
// class apart, the remaining fields are filled depending on it.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Err     error     `json:"-"`

	// RequestError and AuthenticationError
	Method     string `json:"method,omitempty"`
	Path       string `json:"path,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Body       string `json:"body,omitempty"`

	// TransactionError and PollingTimeoutError
	TransactionID int64  `json:"transaction_id,omitempty"`
	Status        Status `json:"status,omitempty"`
	Description   string `json:"status_description,omitempty"`
	Attempts      int    `json:"attempts,omitempty"`
}

// Sentinels for errors.Is. They match any *Error of the same Type.
var (
	ErrConfiguration  = &Error{Type: ConfigurationError}
	ErrAuthentication = &Error{Type: AuthenticationError}
	ErrRequest        = &Error{Type: RequestError}
	ErrTransaction    = &Error{Type: TransactionError}
	ErrPollingTimeout = &Error{Type: PollingTimeoutError}
)

func (e *Error) Error() string {
	switch e.Type {
	case RequestError, AuthenticationError:
		if e.StatusCode != 0 {
			return fmt.Sprintf("%s: %s %s returned %d: %s", e.Type, e.Method, e.Path, e.StatusCode, e.Body)
		}
	case TransactionError:
		return fmt.Sprintf("%s: transaction %d: %s", e.Type, e.TransactionID, e.Description)
	case PollingTimeoutError:
		return fmt.Sprintf("%s: transaction %d still %q after %d attempts", e.Type, e.TransactionID, e.Status, e.Attempts)
	}
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Type, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// Detail returns the diagnostic detail the backend attached to err: the raw
// response body of a failed request or the status_description of a failed
// transaction. It falls back to err.Error().
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Type {
	case RequestError, AuthenticationError:
		if e.Body != "" {
			return e.Body
		}
	case TransactionError:
		return e.Description
	}
	return e.Error()
}

func newConfigurationError(format string, args ...interface{}) *Error {
	return &Error{Type: ConfigurationError, Message: fmt.Sprintf(format, args...)}
}
