package runner

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidConfig marks caller mistakes that are reported before any
// process is started.
var ErrInvalidConfig = errors.New("invalid run config")

// LaunchError means the OS could not create the process.
type LaunchError struct {
	Argv []string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %q: %v", strings.Join(e.Argv, " "), e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// TimeoutError is returned when the process was killed for running longer
// than the configured limit.
type TimeoutError struct {
	Limit   time.Duration
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("process timed out after %s (limit %s)", e.Elapsed.Round(time.Millisecond), e.Limit)
}

// ExitError is returned when Config.CheckExitCode is set and the process
// exited with a nonzero code. Result holds everything captured.
type ExitError struct {
	Code   int
	Result *Result
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process exited with code %d", e.Code)
}

// IsTimeout reports whether err carries a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
