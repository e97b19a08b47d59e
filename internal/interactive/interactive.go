// Package interactive runs a judge and a solver whose standard streams are
// cross-connected, so that they can talk to each other while running.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/programme-lv/cpmaker/internal/runner"
)

// DefaultJudgeTimeout is how long the judge may keep running after the
// solver exited.
const DefaultJudgeTimeout = time.Second

type Params struct {
	JudgeArgs  []string
	SolverArgs []string

	// SolverTimeout bounds the solver, zero means unbounded.
	SolverTimeout time.Duration
	// JudgeTimeout bounds the judge once the solver has exited,
	// zero means DefaultJudgeTimeout.
	JudgeTimeout time.Duration
	// SolverMemoryLimitMiB caps the solver address space, zero means none.
	SolverMemoryLimitMiB int

	JudgeStderr  io.Writer
	SolverStderr io.Writer

	Dir    string
	Logger *slog.Logger
}

func (p *Params) judgeTimeout() time.Duration {
	if p.JudgeTimeout > 0 {
		return p.JudgeTimeout
	}
	return DefaultJudgeTimeout
}

func (p *Params) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Result has the judge exit code together with the solver's elapsed time
// and peak memory. Stdout and Stderr are always empty, the streams are
// connected to the other process rather than captured.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Elapsed   time.Duration
	MemoryMiB float64
}

// pipes holds both directions of the judge-solver connection.
//
//	solver stdout -> toJudge | judgeIn -> judge stdin
//	judge stdout -> judgeOut | fromJudge -> solver stdin
type pipes struct {
	judgeIn, toJudge    *os.File
	fromJudge, judgeOut *os.File
}

func newPipes() (*pipes, error) {
	judgeIn, toJudge, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create judge input pipe: %w", err)
	}
	fromJudge, judgeOut, err := os.Pipe()
	if err != nil {
		_ = judgeIn.Close()
		_ = toJudge.Close()
		return nil, fmt.Errorf("failed to create judge output pipe: %w", err)
	}
	return &pipes{judgeIn: judgeIn, toJudge: toJudge, fromJudge: fromJudge, judgeOut: judgeOut}, nil
}

// closeChildEnds drops the parent's copies of the ends owned by the
// children. toJudge stays open until the solver has exited successfully.
func (p *pipes) closeChildEnds() {
	_ = p.judgeIn.Close()
	_ = p.judgeOut.Close()
	_ = p.fromJudge.Close()
}

func (p *pipes) closeAll() {
	p.closeChildEnds()
	_ = p.toJudge.Close()
}

// Run starts the judge, then the solver, and supervises both.
//
// A solver that times out or exits with a nonzero code gets the judge
// killed, the judge exit code is never looked at in that case. After a
// clean solver exit the judge sees end of input and has JudgeTimeout to
// finish; its exit code, whatever it is, is returned in the result.
func Run(ctx context.Context, p Params) (*Result, error) {
	if p.SolverTimeout < 0 || p.JudgeTimeout < 0 {
		return nil, fmt.Errorf("%w: negative timeout", runner.ErrInvalidConfig)
	}
	log := p.logger()

	judge, err := runner.Command(p.JudgeArgs, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare judge: %w", err)
	}
	solver, err := runner.Command(p.SolverArgs, p.SolverMemoryLimitMiB)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare solver: %w", err)
	}

	pp, err := newPipes()
	if err != nil {
		return nil, err
	}
	defer pp.closeAll()

	judge.Dir = p.Dir
	judge.Stdin = pp.judgeIn
	judge.Stdout = pp.judgeOut
	judge.Stderr = p.JudgeStderr
	solver.Dir = p.Dir
	solver.Stdin = pp.fromJudge
	solver.Stdout = pp.toJudge
	solver.Stderr = p.SolverStderr

	log.Debug("starting judge", "argv", p.JudgeArgs)
	if err := judge.Start(); err != nil {
		return nil, &runner.LaunchError{Argv: p.JudgeArgs, Err: err}
	}

	log.Debug("starting solver", "argv", p.SolverArgs, "timeout", p.SolverTimeout)
	start := time.Now()
	if err := solver.Start(); err != nil {
		killJudge(judge)
		return nil, &runner.LaunchError{Argv: p.SolverArgs, Err: err}
	}
	sampler := runner.Watch(solver, p.SolverMemoryLimitMiB)
	pp.closeChildEnds()

	timedOut, waitErr := runner.Wait(ctx, solver, p.SolverTimeout)
	elapsed := time.Since(start)
	peak := sampler.Stop()

	if timedOut {
		log.Debug("solver timed out, killing judge", "elapsed", elapsed)
		killJudge(judge)
		return nil, &SolverTimeoutError{Limit: p.SolverTimeout}
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !solver.ProcessState.Success() {
		killJudge(judge)
		return nil, fmt.Errorf("failed to run solver: %w", ctxErr)
	}
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) && !errors.Is(waitErr, exec.ErrWaitDelay) {
		killJudge(judge)
		return nil, fmt.Errorf("failed to wait for solver: %w", waitErr)
	}
	if code := solver.ProcessState.ExitCode(); code != 0 {
		log.Debug("solver failed, killing judge", "exit_code", code)
		killJudge(judge)
		return nil, &SolverFailedError{ExitCode: code}
	}

	// end of input for the judge
	_ = pp.toJudge.Close()

	judgeTimeout := p.judgeTimeout()
	timedOut, waitErr = runner.Wait(ctx, judge, judgeTimeout)
	if timedOut {
		log.Debug("judge timed out", "limit", judgeTimeout)
		return nil, &JudgeTimeoutError{Limit: judgeTimeout}
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !judge.ProcessState.Success() {
		return nil, fmt.Errorf("failed to run judge: %w", ctxErr)
	}
	if waitErr != nil && !errors.As(waitErr, &exitErr) && !errors.Is(waitErr, exec.ErrWaitDelay) {
		return nil, fmt.Errorf("failed to wait for judge: %w", waitErr)
	}

	res := &Result{
		ExitCode:  judge.ProcessState.ExitCode(),
		Elapsed:   elapsed,
		MemoryMiB: peak,
	}
	log.Debug("interaction finished", "judge_exit_code", res.ExitCode,
		"elapsed", res.Elapsed, "memory_mib", res.MemoryMiB)
	return res, nil
}

// killJudge kills the judge and reaps it without looking at its outcome.
func killJudge(judge *exec.Cmd) {
	runner.Kill(judge)
	_ = judge.Wait()
}
