package domain

import (
	"errors"
	"fmt"
)

// InvalidArgumentError is a caller mistake: bad input, sold out, out of range.
type InvalidArgumentError struct {
	Msg string
	Err error
}

func (e InvalidArgumentError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "invalid argument"
}

func (e InvalidArgumentError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Msg string
	Err error
}

func (e NotFoundError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "not found"
}

func (e NotFoundError) Unwrap() error { return e.Err }

func InvalidArgument(format string, args ...any) error {
	return InvalidArgumentError{Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

func IsInvalidArgument(err error) bool {
	var target InvalidArgumentError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}
