// Package generator produces test inputs, either by running a generator
// program or by copying a hand-written input file.
package generator

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/programme-lv/cpmaker/internal/runner"
	"github.com/programme-lv/cpmaker/internal/testcase"
)

type Generator interface {
	// Args returns the argv that produces the input for key.
	Args(cmd []string, key testcase.Key) []string
	// Generate writes the input for key to dest. Any nonzero exit is an
	// error.
	Generate(ctx context.Context, cmd []string, key testcase.Key, dest io.Writer, cfg runner.Config) (*runner.Result, error)
}

// ForSource picks the generator kind: raw for literal input files, source
// for generator programs.
func ForSource(raw bool) Generator {
	if raw {
		return RawGenerator{}
	}
	return SourceGenerator{}
}

// SourceGenerator gets <case_index> <seed> appended to its command.
type SourceGenerator struct{}

func (SourceGenerator) Args(cmd []string, key testcase.Key) []string {
	return append(append([]string{}, cmd...),
		strconv.Itoa(key.Index),
		strconv.FormatUint(uint64(key.Seed()), 10))
}

func (g SourceGenerator) Generate(ctx context.Context, cmd []string, key testcase.Key, dest io.Writer, cfg runner.Config) (*runner.Result, error) {
	return generate(ctx, g.Args(cmd, key), dest, cfg)
}

// RawGenerator runs its command as is. The command is expected to print a
// literal input file, such as "cat 01_sample_00.in".
type RawGenerator struct{}

func (RawGenerator) Args(cmd []string, _ testcase.Key) []string {
	return append([]string{}, cmd...)
}

func (g RawGenerator) Generate(ctx context.Context, cmd []string, key testcase.Key, dest io.Writer, cfg runner.Config) (*runner.Result, error) {
	return generate(ctx, g.Args(cmd, key), dest, cfg)
}

func generate(ctx context.Context, argv []string, dest io.Writer, cfg runner.Config) (*runner.Result, error) {
	cfg.Stdout = dest
	cfg.CheckExitCode = true
	res, err := runner.Run(ctx, argv, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to generate input: %w", err)
	}
	return res, nil
}
