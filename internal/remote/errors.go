package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
)

// Kind classifies a failed remote call for logging and fallback decisions.
type Kind string

const (
	KindConnectionRefused Kind = "connection_refused"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindTimeout           Kind = "timeout"
	KindStatus            Kind = "status"
	KindDecode            Kind = "decode"
	KindOther             Kind = "other"
)

// Error is returned by every Client method on failure.
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Message string // message from the response body, if any
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("remote %s: %s (%s)", e.Op, e.Message, e.Kind)
	case e.Status != 0:
		return fmt.Sprintf("remote %s: status %d (%s)", e.Op, e.Status, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("remote %s: %v (%s)", e.Op, e.Err, e.Kind)
	default:
		return fmt.Sprintf("remote %s failed (%s)", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a remote error, or KindOther for anything else.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindOther
}

func transportError(op string, err error) *Error {
	kind := KindOther
	var netErr net.Error
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		kind = KindConnectionRefused
	case errors.As(err, &urlErr) && urlErr.Timeout():
		kind = KindTimeout
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

func statusKind(status int) Kind {
	switch status {
	case 401:
		return KindUnauthorized
	case 403:
		return KindForbidden
	default:
		return KindStatus
	}
}
