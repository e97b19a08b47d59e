// Package pipeline drives the problem workflow: generating test cases
// with their answers and judging solutions against them.
package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/programme-lv/cpmaker/internal/checker"
	"github.com/programme-lv/cpmaker/internal/config"
	"github.com/programme-lv/cpmaker/internal/langs"
	"github.com/programme-lv/cpmaker/internal/params"
	"github.com/programme-lv/cpmaker/internal/project"
)

// previewBytes is how much of each generated file goes to GenerateCase.
const previewBytes = 4 << 10

// ErrCheckFailed is returned by Check when some solution did not behave as
// its policies say.
var ErrCheckFailed = errors.New("some solutions have errors")

type Pipeline struct {
	project *project.Project
	tool    *config.Tool
	problem *config.Problem
	langs   *langs.Registry
	checker checker.Checker

	reporter Reporter
	stderr   io.Writer
	logger   *slog.Logger
}

type Option func(*Pipeline)

// WithReporter sets where progress events go.
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) { p.reporter = r }
}

// WithStderr sets where the stderr of generators, solutions, verifiers and
// checkers goes. It defaults to os.Stderr; pass io.Discard to hide it.
func WithStderr(w io.Writer) Option {
	return func(p *Pipeline) { p.stderr = w }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithRegistry shares a language registry, and with it the compile cache.
func WithRegistry(r *langs.Registry) Option {
	return func(p *Pipeline) { p.langs = r }
}

func New(proj *project.Project, tool *config.Tool, problem *config.Problem, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		project:  proj,
		tool:     tool,
		problem:  problem,
		reporter: nopReporter{},
		stderr:   os.Stderr,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.langs == nil {
		p.langs = langs.NewRegistry(tool.Language, langs.WithLogger(p.logger), langs.WithCompilerOutput(p.stderr))
	}

	chk, err := checker.New(tool.Checker.Style, tool.Checker.ExitCode)
	if err != nil {
		return nil, err
	}
	p.checker = chk
	return p, nil
}

// GenParams writes the params file of the project.
func (p *Pipeline) GenParams() error {
	path := p.project.ParamsFile()
	p.logger.Info("generating problem parameters", "path", path)
	return params.Write(path, p.problem.Params, p.tool.Language.Default)
}

// preview returns up to previewBytes from the start of path.
func preview(path string) []byte {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	buf := make([]byte, previewBytes)
	n, _ := io.ReadFull(bufio.NewReader(f), buf)
	return buf[:n]
}

func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
