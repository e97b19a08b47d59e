package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/programme-lv/cpmaker/internal/checker"
	"github.com/programme-lv/cpmaker/internal/config"
	"github.com/programme-lv/cpmaker/internal/interactive"
	"github.com/programme-lv/cpmaker/internal/runner"
	"github.com/programme-lv/cpmaker/internal/solver"
	"github.com/programme-lv/cpmaker/internal/testcase"
	"golang.org/x/sync/errgroup"
)

type CheckOptions struct {
	// Targets are solution names from problem.toml. Empty means all.
	Targets []string
	All     bool
	// Interactive runs the checker as the judge talking to the solution.
	Interactive bool
	// Jobs is how many solutions are judged at once. Values below 1 mean
	// one at a time, which keeps the time measurements honest.
	Jobs int
}

// Check judges the target solutions on every test case and evaluates their
// policies. It returns the summaries together with ErrCheckFailed when a
// solution misbehaved.
func (p *Pipeline) Check(ctx context.Context, opts CheckOptions) (sums []*Summary, err error) {
	p.reporter.StartJob("check", p.problem.Title)
	defer func() { p.reporter.FinishJob(err) }()
	return p.check(ctx, opts)
}

func (p *Pipeline) check(ctx context.Context, opts CheckOptions) ([]*Summary, error) {
	p.logger.Info("checking the solutions")
	targets, err := p.targetSolutions(opts)
	if err != nil {
		return nil, err
	}
	for _, sol := range targets {
		path := p.project.SolutionFile(sol.Name)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("solution %q not found: %w", path, err)
		}
	}

	checkerCmd, err := p.langs.Compile(ctx, p.project.CheckerFile())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare checker: %w", err)
	}

	sums := make([]*Summary, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Jobs, 1))
	for i, sol := range targets {
		g.Go(func() error {
			sum, err := p.judgeSolution(gctx, sol, checkerCmd.Cmd, opts.Interactive)
			if err != nil {
				return fmt.Errorf("failed to judge %s: %w", sol.Name, err)
			}
			sums[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := false
	for _, sum := range sums {
		p.logger.Info("summary of the solution", "solution", sum.Solution, "summary", sum.String())
		if sum.OK() {
			p.logger.Info("solution has worked expectedly", "solution", sum.Solution)
			continue
		}
		failed = true
		for _, msg := range sum.Errors {
			p.logger.Error("solution has an error", "solution", sum.Solution, "error", msg)
		}
	}
	if failed {
		return sums, ErrCheckFailed
	}
	return sums, nil
}

func (p *Pipeline) targetSolutions(opts CheckOptions) ([]config.Solution, error) {
	if opts.All || len(opts.Targets) == 0 {
		if len(p.problem.Solutions) == 0 {
			return nil, errors.New("no solution to check")
		}
		return p.problem.Solutions, nil
	}
	targets := make([]config.Solution, 0, len(opts.Targets))
	for _, name := range opts.Targets {
		sol, ok := p.problem.Solution(name)
		if !ok {
			return nil, fmt.Errorf("solution %q has no configuration", name)
		}
		targets = append(targets, sol)
	}
	return targets, nil
}

// judgeSolution runs one solution over all test cases, sequentially.
func (p *Pipeline) judgeSolution(ctx context.Context, sol config.Solution, checkerCmd []string, interactive bool) (*Summary, error) {
	solCmd, err := p.langs.CompileSolver(ctx, p.project.SolutionFile(sol.Name))
	if err != nil {
		return nil, err
	}

	sum := newSummary(sol.Name)
	for _, test := range p.problem.Tests {
		for i := range test.Number {
			key := testcase.Key{Group: test.Name, Index: i}
			p.reporter.ReachTest(sol.Name, key)

			var res *CaseResult
			if interactive {
				res, err = p.judgeInteractive(ctx, solCmd.Cmd, checkerCmd, key)
			} else {
				res, err = p.judge(ctx, solCmd.Cmd, checkerCmd, key)
			}
			if err != nil {
				return nil, fmt.Errorf("test %s: %w", key.Stem(), err)
			}
			res.Solution = sol.Name
			p.logger.Info(res.String(), "solution", sol.Name, "case", key.Stem())
			p.reporter.FinishTest(res)
			sum.add(res)
		}
	}
	sum.evaluate(sol)
	p.reporter.FinishSolution(sum)
	return sum, nil
}

// tempOutput creates an empty file for the candidate output. The caller
// removes it.
func tempOutput() (string, error) {
	f, err := os.CreateTemp("", "cpmaker-*.out")
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	return f.Name(), f.Close()
}

func (p *Pipeline) judge(ctx context.Context, solCmd, checkerCmd []string, key testcase.Key) (*CaseResult, error) {
	files := checker.Files{
		Input:  p.project.InputFile(key),
		Answer: p.project.OutputFile(key),
	}
	output, err := tempOutput()
	if err != nil {
		return nil, err
	}
	defer os.Remove(output)
	files.Output = output

	sres, err := p.solve(ctx, solCmd, files)
	if err != nil {
		return nil, err
	}
	res := &CaseResult{Key: key}
	if sres.Run != nil {
		res.HasRun = true
		res.Elapsed = sres.Run.Elapsed
		res.MemoryMiB = sres.Run.MemoryMiB
	}
	switch sres.Verdict {
	case solver.Timeout:
		res.Status = TimeLimitExceeded
		return res, nil
	case solver.Fail:
		res.Status = RuntimeError
		return res, nil
	}

	cres, err := p.checker.Check(ctx, checkerCmd, files, runner.Config{Stderr: p.stderr, Logger: p.logger})
	if err != nil {
		return nil, err
	}
	res.Status = fromChecker(cres.Verdict)
	res.CheckerMessage = cres.Run.Stderr
	return res, nil
}

func (p *Pipeline) solve(ctx context.Context, cmd []string, files checker.Files) (*solver.Result, error) {
	in, err := os.Open(files.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer in.Close()
	out, err := os.Create(files.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	return solver.Solve(ctx, cmd, runner.Config{
		Stdin:          in,
		Stdout:         out,
		Stderr:         p.stderr,
		Timeout:        p.problem.TimeLimitDuration(),
		MemoryLimitMiB: p.problem.MemoryLimitMiB(),
		Logger:         p.logger,
	})
}

func (p *Pipeline) judgeInteractive(ctx context.Context, solCmd, checkerCmd []string, key testcase.Key) (*CaseResult, error) {
	files := checker.Files{
		Input:  p.project.InputFile(key),
		Answer: p.project.OutputFile(key),
	}
	output, err := tempOutput()
	if err != nil {
		return nil, err
	}
	defer os.Remove(output)
	files.Output = output

	ires, err := p.checker.CheckInteractive(ctx, checkerCmd, files, interactive.Params{
		SolverArgs:           solCmd,
		SolverTimeout:        p.problem.TimeLimitDuration(),
		JudgeTimeout:         p.tool.Interactive.JudgeTimeoutDuration(),
		SolverMemoryLimitMiB: p.problem.MemoryLimitMiB(),
		JudgeStderr:          p.stderr,
		SolverStderr:         p.stderr,
		Logger:               p.logger,
	})

	res := &CaseResult{Key: key}
	var (
		solverTimeout *interactive.SolverTimeoutError
		solverFailed  *interactive.SolverFailedError
		judgeTimeout  *interactive.JudgeTimeoutError
	)
	switch {
	case errors.As(err, &solverTimeout):
		res.Status = TimeLimitExceeded
	case errors.As(err, &solverFailed):
		res.Status = RuntimeError
	case errors.As(err, &judgeTimeout):
		p.logger.Warn("judge did not finish in time", "case", key.Stem(), "limit", judgeTimeout.Limit)
		res.Status = Fail
	case err != nil:
		return nil, err
	default:
		res.Status = fromChecker(ires.Verdict)
		res.HasRun = true
		res.Elapsed = ires.Run.Elapsed
		res.MemoryMiB = ires.Run.MemoryMiB
	}
	return res, nil
}

func fromChecker(v checker.Verdict) JudgeStatus {
	switch v {
	case checker.Accepted:
		return Accepted
	case checker.WrongAnswer:
		return WrongAnswer
	case checker.PresentationError:
		return PresentationError
	default:
		return Fail
	}
}
