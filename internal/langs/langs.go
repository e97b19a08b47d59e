// Package langs turns source files into runnable commands. C++ sources are
// compiled once per run, Python sources and literal text files only need
// an interpreter or cat in front of them.
package langs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/programme-lv/cpmaker/internal/config"
)

const (
	NameCpp     = config.LangCpp
	NamePython  = config.LangPython
	NameTextCat = "Text (cat)"
)

// Compiled is a runnable command for a source file.
type Compiled struct {
	Language string
	Cmd      []string
}

// Raw reports whether the command prints a literal file instead of running
// a program.
func (c *Compiled) Raw() bool {
	return c.Language == NameTextCat
}

type Language interface {
	Name() string
	Extensions() []string
	Compile(ctx context.Context, path string) (*Compiled, error)
}

// Registry holds one instance per language so that compile caches are
// shared by everyone using the same registry.
type Registry struct {
	cpp       *Cpp
	solverCpp *Cpp
	python    *Python
	textCat   TextCat
}

type Option func(*options)

type options struct {
	compilerOutput io.Writer
	logger         *slog.Logger
}

// WithCompilerOutput sends compiler diagnostics to w instead of os.Stderr.
func WithCompilerOutput(w io.Writer) Option {
	return func(o *options) { o.compilerOutput = w }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func NewRegistry(cfg config.Language, opts ...Option) *Registry {
	o := options{compilerOutput: os.Stderr, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		cpp:       newCpp(cfg.Cpp.Compiler, cfg.Cpp.Flags, o),
		solverCpp: newCpp(cfg.Cpp.ForSolver().Compiler, cfg.Cpp.ForSolver().Flags, o),
		python:    &Python{Interpreter: cfg.Python.Python},
	}
}

// Detect picks the language of path by its extension. C++ sources get the
// general compiler settings.
func (r *Registry) Detect(path string) (Language, error) {
	ext := filepath.Ext(path)
	for _, lang := range []Language{r.cpp, r.python, r.textCat} {
		if slices.Contains(lang.Extensions(), ext) {
			return lang, nil
		}
	}
	return nil, fmt.Errorf("unsupported language for file %s", path)
}

// DetectSolver is Detect with the solver override applied to C++.
func (r *Registry) DetectSolver(path string) (Language, error) {
	lang, err := r.Detect(path)
	if err != nil {
		return nil, err
	}
	if lang == Language(r.cpp) {
		return r.solverCpp, nil
	}
	return lang, nil
}

// Compile detects the language of path and compiles it.
func (r *Registry) Compile(ctx context.Context, path string) (*Compiled, error) {
	lang, err := r.Detect(path)
	if err != nil {
		return nil, err
	}
	return lang.Compile(ctx, path)
}

// CompileSolver compiles a solution, honoring the solver override.
func (r *Registry) CompileSolver(ctx context.Context, path string) (*Compiled, error) {
	lang, err := r.DetectSolver(path)
	if err != nil {
		return nil, err
	}
	return lang.Compile(ctx, path)
}

// DefaultExtension is the extension used for sources of the named language
// when a configured path omits one.
func DefaultExtension(language string) string {
	if language == NamePython {
		return ".py"
	}
	return ".cpp"
}
