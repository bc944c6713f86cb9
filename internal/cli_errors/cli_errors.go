package clierrors

import (
	"fmt"
)

// Process exit codes. A finished apply run with failed patches gets its
// own code so scripts can tell it apart from operational errors.
const (
	ExitNormal      int = 0
	ExitErrored     int = 1
	ExitApplyFailed int = 2
)

// Carries an exit code along with an error so the app can exit correctly
type ExitError struct {
	Err  error
	Code int
}

func (e ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%d", e.Code)
	}

	return fmt.Sprintf("%d: %s", e.Code, e.Err.Error())
}

func (e ExitError) Unwrap() error {
	return e.Err
}

// Wrap an error with an exit code
func ExitErrorWrap(code int, err error) error {
	return ExitError{Code: code, Err: err}
}
