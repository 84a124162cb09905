// Package danzoerr defines the error taxonomy shared by every component of
// the download core, and the exit-code mapping the CLI reports to the OS.
package danzoerr

import "fmt"

// Kind identifies one of the abstract error kinds the core can surface.
type Kind int

const (
	Usage Kind = iota
	Network
	Parse
	NoVariant
	UnsupportedEncryption
	Key
	Decrypt
	Write
	RemuxUnavailable
	RemuxFailed
	Cancelled
)

var exitCodes = map[Kind]int{
	Usage:                 2,
	Network:                3,
	Parse:                  4,
	NoVariant:              4,
	UnsupportedEncryption:  5,
	Key:                    5,
	Decrypt:                5,
	Write:                  3,
	RemuxUnavailable:       6,
	RemuxFailed:            6,
	Cancelled:              130,
}

var kindNames = map[Kind]string{
	Usage:                 "UsageError",
	Network:               "NetworkError",
	Parse:                 "ParseError",
	NoVariant:             "NoVariantError",
	UnsupportedEncryption: "UnsupportedEncryption",
	Key:                   "KeyError",
	Decrypt:               "DecryptError",
	Write:                 "WriteError",
	RemuxUnavailable:      "RemuxUnavailable",
	RemuxFailed:           "RemuxFailed",
	Cancelled:             "Cancelled",
}

// Error is a structured, wrapped error carrying one of the abstract kinds.
type Error struct {
	Kind    Kind
	Context string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", kindNames[e.Kind], e.Context, e.Err)
	}
	return fmt.Sprintf("%s: %s", kindNames[e.Kind], e.Context)
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode returns the process exit code for this error per the CLI contract.
func (e *Error) ExitCode() int { return exitCodes[e.Kind] }

func New(kind Kind, context string, err error) *Error {
	return &Error{Kind: kind, Context: context, Err: err}
}

// ExitCode maps any error to its exit code, defaulting to 1 for untyped errors.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var de *Error
	if asError(err, &de) {
		return de.ExitCode()
	}
	return 1
}

// As reports whether err (or something it wraps) is a *Error, setting
// target if so.
func As(err error, target **Error) bool {
	return asError(err, target)
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
