package diag

import (
	"errors"
	"fmt"
)

// Error kinds shared by the pipeline. Only ErrIO ever aborts a unit of work;
// the others route an issue to the suggestion path.
var (
	ErrIO                  = errors.New("io error")
	ErrParseAmbiguity      = errors.New("text matches no diagnostic shape")
	ErrEditConflict        = errors.New("edit conflict")
	ErrUnsupportedCategory = errors.New("category has no automatic fix")
)

// IOError reports a log source or source file that could not be read.
type IOError struct {
	Source string
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Source, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrIO) true for every IOError.
func (e *IOError) Is(target error) bool { return target == ErrIO }
