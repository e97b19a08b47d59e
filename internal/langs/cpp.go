package langs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/programme-lv/cpmaker/internal/runner"
	"github.com/puzpuzpuz/xsync/v3"
)

// Cpp compiles next to the source: a.cpp becomes the executable a.
// Results are cached per resolved source path, failures included.
type Cpp struct {
	Compiler string
	Flags    []string

	output io.Writer
	logger *slog.Logger
	cache  *xsync.MapOf[string, *compileEntry]
}

type compileEntry struct {
	once     sync.Once
	compiled *Compiled
	err      error
}

func newCpp(compiler string, flags []string, o options) *Cpp {
	return &Cpp{
		Compiler: compiler,
		Flags:    flags,
		output:   o.compilerOutput,
		logger:   o.logger,
		cache:    xsync.NewMapOf[string, *compileEntry](),
	}
}

func (*Cpp) Name() string { return NameCpp }

func (*Cpp) Extensions() []string {
	return []string{".cpp", ".cc", ".cxx", ".c++"}
}

// ExecPath is where the executable for src is written.
func ExecPath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src))
}

func (c *Cpp) Compile(ctx context.Context, path string) (*Compiled, error) {
	src, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(src); err == nil {
		src = resolved
	}

	entry, _ := c.cache.LoadOrStore(src, &compileEntry{})
	entry.once.Do(func() {
		entry.compiled, entry.err = c.compile(ctx, src)
	})
	return entry.compiled, entry.err
}

func (c *Cpp) compile(ctx context.Context, src string) (*Compiled, error) {
	exe := ExecPath(src)
	argv := append(append([]string{c.Compiler}, c.Flags...), "-o", exe, src)

	c.logger.Info("compiling", "source", src)
	c.logger.Debug("running compiler", "argv", argv)
	_, err := runner.Run(ctx, argv, runner.Config{
		Stdout:        c.output,
		Stderr:        c.output,
		CheckExitCode: true,
		Logger:        c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", src, err)
	}
	return &Compiled{Language: NameCpp, Cmd: []string{exe}}, nil
}
