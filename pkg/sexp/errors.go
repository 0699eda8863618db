package sexp

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput      = errors.New("empty input")
	ErrUnexpectedChar  = errors.New("unexpected character")
	ErrUnexpectedEOF   = errors.New("unexpected end of input")
	ErrUnexpectedClose = errors.New("unexpected closing bracket")
	ErrMismatchedClose = errors.New("mismatched closing bracket")
	ErrTrailingInput   = errors.New("trailing input after expression")
)

// ReadError reports where in the source text reading failed.
type ReadError struct {
	Line int
	Col  int
	Msg  string
	Err  error // one of the Err* sentinels
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Col, e.Msg)
}

func (e *ReadError) Unwrap() error { return e.Err }

func errorAt(line, col int, sentinel error, format string, args ...any) error {
	return &ReadError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...), Err: sentinel}
}

// IsIncomplete reports whether err means the input ended inside an open
// list, so more text could still complete it.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrUnexpectedEOF)
}
