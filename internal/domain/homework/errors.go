// internal/domain/homework/errors.go
package homework

import (
	"errors"
	"fmt"
)

// Kind classifies failures of a polling cycle.
type Kind int

const (
	KindUnexpected     Kind = iota // anything the loop does not recognise
	KindConfig                     // required setting missing
	KindShape                      // response without the expected fields
	KindUpstreamStatus             // API answered with a non-200 code
	KindParse                      // homework record cannot be rendered
	KindNetwork                    // request never got a response
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindShape:
		return "shape"
	case KindUpstreamStatus:
		return "upstream_status"
	case KindParse:
		return "parse"
	case KindNetwork:
		return "network"
	default:
		return "unexpected"
	}
}

// Recoverable reports whether the loop keeps running after an error of this kind.
func (k Kind) Recoverable() bool {
	switch k {
	case KindShape, KindUpstreamStatus, KindParse, KindNetwork:
		return true
	default:
		return false
	}
}

// Error is a classified polling failure. Its text is what the chat receives.
type Error struct {
	Kind Kind
	Msg  string
	Code int   // HTTP status code, KindUpstreamStatus only
	Err  error // underlying cause, if any
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error with a formatted message.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NewUpstreamStatusError reports an unexpected HTTP status code from the API.
func NewUpstreamStatusError(code int) *Error {
	return &Error{
		Kind: KindUpstreamStatus,
		Msg:  fmt.Sprintf("Ошибка при запросе к эндпойту. %d", code),
		Code: code,
	}
}

// NewNetworkError wraps a transport level failure.
func NewNetworkError(cause error) *Error {
	return &Error{
		Kind: KindNetwork,
		Msg:  fmt.Sprintf("Сбой при запросе к эндпойту: %v", cause),
		Err:  cause,
	}
}

// KindOf returns the kind of err, KindUnexpected for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}
