package protocol

import (
	"errors"
	"fmt"
)

// Code classifies protocol-level decode failures. Both codes are
// recoverable: the caller decides whether to log, ignore or surface them.
type Code string

const (
	// CodeMalformed marks input that is not valid JSON or is missing the
	// fields its command kind requires.
	CodeMalformed Code = "malformed"
	// CodeUnknownCommand marks a well-formed message whose "command"
	// discriminator is not part of the closed set. Callers may skip these
	// for forward compatibility.
	CodeUnknownCommand Code = "unknown_command"
)

// Error is a protocol-level failure to decode an inbound frame.
type Error struct {
	Code Code
	// Command holds the unrecognized discriminator for CodeUnknownCommand.
	Command string
	Err     error
}

func (e *Error) Error() string {
	switch e.Code {
	case CodeUnknownCommand:
		return fmt.Sprintf("unknown command %q", e.Command)
	default:
		if e.Err != nil {
			return "malformed message: " + e.Err.Error()
		}
		return "malformed message"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsMalformed reports whether err is a protocol error with CodeMalformed.
func IsMalformed(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Code == CodeMalformed
}

// IsUnknownCommand reports whether err is a protocol error with
// CodeUnknownCommand.
func IsUnknownCommand(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Code == CodeUnknownCommand
}

func malformed(err error) *Error {
	return &Error{Code: CodeMalformed, Err: err}
}
