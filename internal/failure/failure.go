// Package failure defines the error taxonomy of a batch run. Every error the
// pipeline reports carries a Code so callers can tell file-level failures,
// which are counted and isolated, from batch-fatal ones.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Code categorizes failures.
type Code string

const (
	CodeProbe        Code = "PROBE_FAILURE"
	CodePlanning     Code = "PLANNING_FAILURE"
	CodeTranscode    Code = "TRANSCODE_FAILURE"
	CodeMissingInput Code = "MISSING_INPUT"
	CodeUnexpected   Code = "UNEXPECTED_FAILURE"
)

// Error is the structured failure carried through the pipeline.
type Error struct {
	Code    Code
	Op      string // short step name, e.g. "probe" or "concat start silence"
	Path    string // file the failure concerns, if any
	Message string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ToolError describes a failed ffmpeg or ffprobe invocation.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + truncate(tail, 200)
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Cause
}

// Probe wraps a metadata inspection failure.
func Probe(path string, cause error) *Error {
	return &Error{Code: CodeProbe, Op: "probe", Path: path, Message: "cannot read metadata", Cause: cause}
}

// Planning wraps a recoverable output planning failure.
func Planning(op, path string, cause error) *Error {
	return &Error{Code: CodePlanning, Op: op, Path: path, Message: "cannot " + op, Cause: cause}
}

// Transcode wraps a failed external transcode step for one file.
func Transcode(op, path string, cause error) *Error {
	return &Error{Code: CodeTranscode, Op: op, Path: path, Message: op + " failed", Cause: cause}
}

// MissingInput reports an input that vanished before it could be processed.
func MissingInput(path string) *Error {
	return &Error{Code: CodeMissingInput, Op: "stat", Path: path, Message: "input file not found"}
}

// Unexpected wraps a batch-fatal condition.
func Unexpected(message string, cause error) *Error {
	return &Error{Code: CodeUnexpected, Message: message, Cause: cause}
}

// CodeOf returns the Code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
