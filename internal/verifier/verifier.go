// Package verifier runs input validators.
package verifier

import (
	"context"
	"fmt"
	"os"

	"github.com/programme-lv/cpmaker/internal/runner"
)

type Verdict int

const (
	Passed Verdict = iota
	Failed
)

func (v Verdict) String() string {
	switch v {
	case Passed:
		return "Passed"
	case Failed:
		return "Failed"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

type Result struct {
	Verdict Verdict
	Run     *runner.Result
}

// Verify runs cmd with the input file on stdin. Exit code 0 means the
// input is valid, anything else means it is not.
func Verify(ctx context.Context, cmd []string, inputPath string, cfg runner.Config) (*Result, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer in.Close()

	cfg.Stdin = in
	cfg.CheckExitCode = false
	res, err := runner.Run(ctx, cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to run verifier: %w", err)
	}
	if res.ExitCode != 0 {
		return &Result{Verdict: Failed, Run: res}, nil
	}
	return &Result{Verdict: Passed, Run: res}, nil
}
