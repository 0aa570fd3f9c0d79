package projfs

import "errors"

// Error taxonomy shared by every component. Callers test with errors.Is.
var (
	ErrPathEscape    = errors.New("path escapes project root")
	ErrEmptyInput    = errors.New("empty input")
	ErrNotFound      = errors.New("no such directory")
	ErrNotADirectory = errors.New("not a directory")
	ErrAlreadyExists = errors.New("file already exists")
)

// ErrorCode is the stable wire identifier of an error in the taxonomy
type ErrorCode string

const (
	CodePathEscape    ErrorCode = "path_escape"
	CodeEmptyInput    ErrorCode = "empty_input"
	CodeNotFound      ErrorCode = "not_found"
	CodeNotADirectory ErrorCode = "not_a_directory"
	CodeAlreadyExists ErrorCode = "already_exists"
	CodeInternal      ErrorCode = "internal"

	// CodeBadRequest marks malformed requests rejected by the transport
	// before any operation ran. It has no sentinel.
	CodeBadRequest ErrorCode = "bad_request"
)

var codeErrs = []struct {
	code ErrorCode
	err  error
}{
	{CodePathEscape, ErrPathEscape},
	{CodeEmptyInput, ErrEmptyInput},
	{CodeNotFound, ErrNotFound},
	{CodeNotADirectory, ErrNotADirectory},
	{CodeAlreadyExists, ErrAlreadyExists},
}

// CodeOf maps err onto its ErrorCode; anything outside the taxonomy is
// CodeInternal
func CodeOf(err error) ErrorCode {
	for _, ce := range codeErrs {
		if errors.Is(err, ce.err) {
			return ce.code
		}
	}
	return CodeInternal
}

// ErrorFromCode rebuilds an error received over the wire so that errors.Is
// keeps working on the client side. msg is the server's message.
func ErrorFromCode(code ErrorCode, msg string) error {
	for _, ce := range codeErrs {
		if ce.code == code {
			if msg == "" || msg == ce.err.Error() {
				return ce.err
			}
			return &remoteError{msg: msg, err: ce.err}
		}
	}
	if msg == "" {
		msg = "unknown error"
	}
	return errors.New(msg)
}

// remoteError keeps the server's message while unwrapping to the sentinel
type remoteError struct {
	msg string
	err error
}

func (e *remoteError) Error() string { return e.msg }

func (e *remoteError) Unwrap() error { return e.err }
