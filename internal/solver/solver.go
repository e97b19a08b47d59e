// Package solver runs solutions and classifies how they ended.
package solver

import (
	"context"
	"errors"
	"fmt"

	"github.com/programme-lv/cpmaker/internal/runner"
)

type Verdict int

const (
	Success Verdict = iota
	Fail
	Timeout
)

func (v Verdict) String() string {
	switch v {
	case Success:
		return "Success"
	case Fail:
		return "Fail"
	case Timeout:
		return "Timeout"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// Result carries the run only when the solver exited on its own. A timed
// out solver has no run result.
type Result struct {
	Verdict Verdict
	Run     *runner.Result
}

// Solve runs cmd under cfg. A timeout becomes Timeout, a nonzero exit
// becomes Fail. Launch failures and invalid configuration are returned as
// errors since they say nothing about the solution.
func Solve(ctx context.Context, cmd []string, cfg runner.Config) (*Result, error) {
	res, err := runner.Run(ctx, cmd, cfg)
	if err != nil {
		var exitErr *runner.ExitError
		switch {
		case runner.IsTimeout(err):
			return &Result{Verdict: Timeout}, nil
		case errors.As(err, &exitErr):
			return &Result{Verdict: Fail}, nil
		default:
			return nil, fmt.Errorf("failed to run solver: %w", err)
		}
	}
	if res.ExitCode != 0 {
		return &Result{Verdict: Fail, Run: res}, nil
	}
	return &Result{Verdict: Success, Run: res}, nil
}
