package bovespa

import (
	"errors"
	"fmt"
)

// ErrFormat is the root of every structural or textual problem found in an
// exchange extract. A format error aborts the whole import.
var ErrFormat = errors.New("bovespa format error")

var (
	ErrEmptyInput      = fmt.Errorf("%w: empty input", ErrFormat)
	ErrUnknownFileType = fmt.Errorf("%w: unknown file type", ErrFormat)
	ErrUnknownRegister = fmt.Errorf("%w: unknown register type", ErrFormat)
	ErrHeaderGarbage   = fmt.Errorf("%w: heading garbage", ErrFormat)
	ErrDuplicateHeader = fmt.Errorf("%w: duplicate header register", ErrFormat)
	ErrTrailingGarbage = fmt.Errorf("%w: trailing garbage", ErrFormat)
	ErrTrailerMismatch = fmt.Errorf("%w: trailer field mismatch", ErrFormat)
	ErrRegisterCount   = fmt.Errorf("%w: register count mismatch", ErrFormat)
	ErrIncompleteFile  = fmt.Errorf("%w: missing trailer register", ErrFormat)
	ErrBadNumber       = fmt.Errorf("%w: not an unsigned integer", ErrFormat)
	ErrBadDate         = fmt.Errorf("%w: invalid trading date", ErrFormat)
	ErrBadStockID      = fmt.Errorf("%w: invalid stock id", ErrFormat)
)

// RegisterError locates a format error inside the input stream.
type RegisterError struct {
	Register int // 1-based line number
	Err      error
}

func (e *RegisterError) Error() string {
	return fmt.Sprintf("register %d: %v", e.Register, e.Err)
}

func (e *RegisterError) Unwrap() error {
	return e.Err
}
