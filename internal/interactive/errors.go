package interactive

import (
	"fmt"
	"time"
)

// SolverTimeoutError means the solver did not exit within its limit. Both
// processes have been killed.
type SolverTimeoutError struct {
	Limit time.Duration
}

func (e *SolverTimeoutError) Error() string {
	return fmt.Sprintf("solver timed out (limit %s)", e.Limit)
}

// SolverFailedError means the solver exited with a nonzero code. The judge
// has been killed.
type SolverFailedError struct {
	ExitCode int
}

func (e *SolverFailedError) Error() string {
	return fmt.Sprintf("solver exited with code %d", e.ExitCode)
}

// JudgeTimeoutError means the judge did not exit within its limit after the
// solver had finished.
type JudgeTimeoutError struct {
	Limit time.Duration
}

func (e *JudgeTimeoutError) Error() string {
	return fmt.Sprintf("judge did not finish within %s after the solver exited", e.Limit)
}
