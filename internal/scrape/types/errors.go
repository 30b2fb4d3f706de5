package types

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrorKind is the stable classification recorded for a failed company.
type ErrorKind string

const (
	KindNetwork ErrorKind = "network"
	KindParse   ErrorKind = "parse"
	KindUnknown ErrorKind = "unknown"
)

var (
	// ErrBlocked is returned when a site answers with a bot wall.
	ErrBlocked = errors.New("blocked by upstream")
	// ErrUnknownAdapter is returned when no adapter is registered for a type.
	ErrUnknownAdapter = errors.New("unknown adapter")
)

// AdapterError tags an adapter failure with its kind.
type AdapterError struct {
	Kind ErrorKind
	Err  error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

func NetworkError(err error) error {
	if err == nil {
		return nil
	}
	return &AdapterError{Kind: KindNetwork, Err: err}
}

func ParseError(err error) error {
	if err == nil {
		return nil
	}
	return &AdapterError{Kind: KindParse, Err: err}
}

// StatusError reports a non-2xx HTTP answer. It classifies as network.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Status)
}

// Classify maps any adapter error onto an ErrorKind. Explicit AdapterError
// tags win; otherwise transport level errors count as network failures.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	var se *StatusError
	if errors.As(err, &se) {
		return KindNetwork
	}
	if errors.Is(err, ErrBlocked) {
		return KindNetwork
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return KindNetwork
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return KindNetwork
	}
	return KindUnknown
}
