// Package checker runs checker programs and turns their exit codes into
// verdicts.
package checker

import (
	"context"
	"fmt"
	"os"

	"github.com/programme-lv/cpmaker/internal/interactive"
	"github.com/programme-lv/cpmaker/internal/runner"
)

type Style string

const (
	// StyleTestlib checkers get <input> <output> <answer>.
	StyleTestlib Style = "testlib"
	// StyleYukicoder checkers get <input> <answer> and read the output
	// from stdin.
	StyleYukicoder Style = "yukicoder"
)

// Files are the paths a checker works on.
type Files struct {
	Input  string
	Output string
	Answer string
}

type Result struct {
	Verdict Verdict
	Run     *runner.Result
}

type InteractiveResult struct {
	Verdict Verdict
	Run     *interactive.Result
}

type Checker interface {
	Style() Style
	// Args appends the file arguments to the checker command.
	Args(cmd []string, f Files) []string
	// Check runs the checker on a finished output file.
	Check(ctx context.Context, cmd []string, f Files, cfg runner.Config) (*Result, error)
	// CheckInteractive runs the checker as the judge of an interactive
	// solver. f.Output receives whatever the judge writes there.
	CheckInteractive(ctx context.Context, cmd []string, f Files, p interactive.Params) (*InteractiveResult, error)
}

// New returns the checker for style. The exit code table is validated here.
func New(style Style, codes ExitCodes) (Checker, error) {
	if err := codes.Validate(); err != nil {
		return nil, fmt.Errorf("invalid checker exit codes: %w", err)
	}
	switch style {
	case StyleTestlib:
		return &TestlibChecker{codes: codes}, nil
	case StyleYukicoder:
		return &YukicoderChecker{codes: codes}, nil
	default:
		return nil, fmt.Errorf("unknown checker style %q", style)
	}
}

type TestlibChecker struct {
	codes ExitCodes
}

func (c *TestlibChecker) Style() Style { return StyleTestlib }

func (c *TestlibChecker) Args(cmd []string, f Files) []string {
	return append(append([]string{}, cmd...), f.Input, f.Output, f.Answer)
}

func (c *TestlibChecker) Check(ctx context.Context, cmd []string, f Files, cfg runner.Config) (*Result, error) {
	return check(ctx, c.Args(cmd, f), f, cfg, c.codes)
}

func (c *TestlibChecker) CheckInteractive(ctx context.Context, cmd []string, f Files, p interactive.Params) (*InteractiveResult, error) {
	return checkInteractive(ctx, c.Args(cmd, f), p, c.codes)
}

type YukicoderChecker struct {
	codes ExitCodes
}

func (c *YukicoderChecker) Style() Style { return StyleYukicoder }

func (c *YukicoderChecker) Args(cmd []string, f Files) []string {
	return append(append([]string{}, cmd...), f.Input, f.Answer)
}

func (c *YukicoderChecker) Check(ctx context.Context, cmd []string, f Files, cfg runner.Config) (*Result, error) {
	return check(ctx, c.Args(cmd, f), f, cfg, c.codes)
}

func (c *YukicoderChecker) CheckInteractive(ctx context.Context, cmd []string, f Files, p interactive.Params) (*InteractiveResult, error) {
	return checkInteractive(ctx, c.Args(cmd, f), p, c.codes)
}

// check runs argv with the candidate output on stdin unless the caller
// already bound stdin. The exit code is always a verdict signal here.
func check(ctx context.Context, argv []string, f Files, cfg runner.Config, codes ExitCodes) (*Result, error) {
	if cfg.Stdin == nil {
		out, err := os.Open(f.Output)
		if err != nil {
			return nil, fmt.Errorf("failed to open output file: %w", err)
		}
		defer out.Close()
		cfg.Stdin = out
	}
	cfg.CheckExitCode = false

	res, err := runner.Run(ctx, argv, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to run checker: %w", err)
	}
	verdict, err := codes.Lookup(res.ExitCode)
	if err != nil {
		return nil, err
	}
	return &Result{Verdict: verdict, Run: res}, nil
}

func checkInteractive(ctx context.Context, judgeArgv []string, p interactive.Params, codes ExitCodes) (*InteractiveResult, error) {
	p.JudgeArgs = judgeArgv
	res, err := interactive.Run(ctx, p)
	if err != nil {
		return nil, err
	}
	verdict, err := codes.Lookup(res.ExitCode)
	if err != nil {
		return nil, err
	}
	return &InteractiveResult{Verdict: verdict, Run: res}, nil
}
