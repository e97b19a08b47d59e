package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/programme-lv/cpmaker/internal/config"
	"github.com/programme-lv/cpmaker/internal/generator"
	"github.com/programme-lv/cpmaker/internal/langs"
	"github.com/programme-lv/cpmaker/internal/runner"
	"github.com/programme-lv/cpmaker/internal/solver"
	"github.com/programme-lv/cpmaker/internal/testcase"
	"github.com/programme-lv/cpmaker/internal/verifier"
)

type GenOptions struct {
	// Solver produces the answers instead of the expected solution.
	Solver string
	// ErrorOnUnused fails when the generators directory holds files that
	// no test group uses.
	ErrorOnUnused bool
	// Interactive problems have no answers to compute unless Solver is
	// set; the answer files are then copies of the inputs.
	Interactive bool
	// NoCheck skips judging the expected solution afterwards.
	NoCheck bool
}

// GenCases generates every test case of every group: input, verification,
// answer. The expected solution is checked afterwards unless opts.NoCheck.
func (p *Pipeline) GenCases(ctx context.Context, opts GenOptions) (err error) {
	p.reporter.StartJob("gen-cases", p.problem.Title)
	defer func() { p.reporter.FinishJob(err) }()

	p.logger.Info("generating test cases")
	if opts.Interactive && opts.Solver == "" {
		p.logger.Warn("solver is missing for the interactive problem, answer files will be the same as input")
	}

	for _, dir := range []string{p.project.InputsDir(), p.project.OutputsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	verifierCmd, err := p.langs.Compile(ctx, p.project.VerifierFile())
	if err != nil {
		return fmt.Errorf("failed to prepare verifier: %w", err)
	}

	var answerCmd []string
	switch {
	case opts.Solver != "":
		c, err := p.langs.CompileSolver(ctx, opts.Solver)
		if err != nil {
			return fmt.Errorf("failed to prepare solver: %w", err)
		}
		answerCmd = c.Cmd
	case !opts.Interactive:
		c, err := p.langs.CompileSolver(ctx, p.project.SolutionFile(p.problem.ExpectedSolution().Name))
		if err != nil {
			return fmt.Errorf("failed to prepare expected solution: %w", err)
		}
		answerCmd = c.Cmd
	}

	unused, err := p.generatorFiles()
	if err != nil {
		return err
	}
	for _, test := range p.problem.Tests {
		used, err := p.genGroup(ctx, test, verifierCmd.Cmd, answerCmd)
		if err != nil {
			return err
		}
		unused = unused.Difference(used)
	}

	if unused.Cardinality() > 0 {
		names := unused.ToSlice()
		slices.Sort(names)
		if opts.ErrorOnUnused {
			return fmt.Errorf("unused generators: %s", strings.Join(names, ", "))
		}
		p.logger.Warn("unused generators", "files", names)
	}

	if opts.NoCheck {
		return nil
	}
	_, err = p.check(ctx, CheckOptions{
		Targets:     []string{p.problem.ExpectedSolution().Name},
		Interactive: opts.Interactive,
	})
	return err
}

func (p *Pipeline) generatorFiles() (mapset.Set[string], error) {
	files := mapset.NewSet[string]()
	entries, err := os.ReadDir(p.project.GeneratorsDir())
	if err != nil {
		return nil, fmt.Errorf("failed to list generators: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			files.Add(e.Name())
		}
	}
	return files, nil
}

// genGroup generates all cases of one group and returns the names of the
// generator files it used.
func (p *Pipeline) genGroup(ctx context.Context, test config.Test, verifierCmd, answerCmd []string) (mapset.Set[string], error) {
	p.logger.Info("generating test cases for the group", "group", test.Name, "count", test.Number)

	used := mapset.NewSet[string]()
	compiled, err := p.langs.Compile(ctx, p.project.GeneratorFile(test.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare generator %s: %w", test.Name, err)
	}
	gen := generator.ForSource(compiled.Raw())
	if !compiled.Raw() {
		used.Add(test.Name)
		used.Add(filepath.Base(langs.ExecPath(test.Name)))
	}

	for i := range test.Number {
		key := testcase.Key{Group: test.Name, Index: i}
		cmd := compiled.Cmd
		if compiled.Raw() {
			raw := p.project.RawGeneratorFile(key)
			c, err := langs.TextCat{}.Compile(ctx, raw)
			if err != nil {
				return nil, err
			}
			cmd = c.Cmd
			used.Add(filepath.Base(raw))
		}
		if err := p.genCase(ctx, gen, cmd, key, verifierCmd, answerCmd); err != nil {
			return nil, err
		}
	}
	return used, nil
}

func (p *Pipeline) genCase(ctx context.Context, gen generator.Generator, cmd []string, key testcase.Key, verifierCmd, answerCmd []string) error {
	log := p.logger.With("case", key.Stem())
	inputPath := p.project.InputFile(key)
	outputPath := p.project.OutputFile(key)

	log.Info("generating input file", "file", filepath.Base(inputPath))
	in, err := os.Create(inputPath)
	if err != nil {
		return fmt.Errorf("failed to create input file: %w", err)
	}
	_, err = gen.Generate(ctx, cmd, key, in, runner.Config{Stderr: p.stderr, Logger: p.logger})
	if closeErr := in.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to write input file: %w", closeErr)
	}
	if err != nil {
		return fmt.Errorf("failed to generate %s: %w", key.InputName(), err)
	}

	log.Info("verifying input file")
	vres, err := verifier.Verify(ctx, verifierCmd, inputPath, runner.Config{Stderr: p.stderr, Logger: p.logger})
	if err != nil {
		return err
	}
	if vres.Verdict != verifier.Passed {
		return fmt.Errorf("verifier rejected %s with exit code %d", key.InputName(), vres.Run.ExitCode)
	}

	if answerCmd == nil {
		if err := copyFile(outputPath, inputPath); err != nil {
			return err
		}
	} else {
		log.Info("generating answer file", "file", filepath.Base(outputPath))
		if err := p.answer(ctx, answerCmd, key, inputPath, outputPath); err != nil {
			return err
		}
	}

	p.reporter.GenerateCase(key, preview(inputPath), preview(outputPath))
	return nil
}

func (p *Pipeline) answer(ctx context.Context, cmd []string, key testcase.Key, inputPath, outputPath string) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer in.Close()
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create answer file: %w", err)
	}

	res, err := solver.Solve(ctx, cmd, runner.Config{
		Stdin:          in,
		Stdout:         out,
		Stderr:         p.stderr,
		Timeout:        p.problem.TimeLimitDuration(),
		MemoryLimitMiB: p.problem.MemoryLimitMiB(),
		Logger:         p.logger,
	})
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to write answer file: %w", closeErr)
	}
	if err != nil {
		return err
	}
	if res.Verdict != solver.Success {
		return fmt.Errorf("answer for %s could not be produced: solver %s", key.InputName(), res.Verdict)
	}
	return nil
}
