// Package project knows the on-disk layout of a problem: where its root
// is, where sources and tests live and how test files are named.
package project

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/programme-lv/cpmaker/internal/config"
	"github.com/programme-lv/cpmaker/internal/testcase"
)

const (
	// MarkerDir marks a problem root and holds the local configuration.
	MarkerDir       = ".cp_problem_maker"
	localConfigName = "config.toml"
)

// ErrNoRoot is returned when no ancestor directory holds MarkerDir.
var ErrNoRoot = errors.New("problem root not found")

// SearchRoot walks up from start until it finds a directory containing
// MarkerDir.
func SearchRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", start, err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, MarkerDir)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no %s above %s", ErrNoRoot, MarkerDir, start)
		}
		dir = parent
	}
}

// LocalConfigPath is the problem-local tool configuration under root.
func LocalConfigPath(root string) string {
	return filepath.Join(root, MarkerDir, localConfigName)
}

type Project struct {
	Root        string
	Paths       config.Path
	DefaultLang string
}

func New(root string, tool *config.Tool) *Project {
	return &Project{
		Root:        root,
		Paths:       tool.Path,
		DefaultLang: tool.Language.Default,
	}
}

// Open resolves the problem root (searching upwards when search is set,
// otherwise taking path as is) and loads the layered tool configuration.
// An empty path means the working directory.
func Open(path string, search bool, globalConfig string) (*Project, *config.Tool, error) {
	if path == "" {
		path = "."
	}
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if search {
		if root, err = SearchRoot(root); err != nil {
			return nil, nil, err
		}
	}
	slog.Debug("problem root", "root", root)

	tool, err := config.LoadTool(globalConfig, LocalConfigPath(root))
	if err != nil {
		return nil, nil, err
	}
	return New(root, tool), tool, nil
}

// LoadProblem reads problem.toml of the project.
func (p *Project) LoadProblem() (*config.Problem, error) {
	return config.LoadProblem(p.ProblemConfigFile())
}

func (p *Project) path(rel string) string {
	return filepath.Join(p.Root, rel)
}

func withDefaultExt(path, ext string) string {
	if filepath.Ext(path) != "" {
		return path
	}
	return path + ext
}

func (p *Project) sourceExt() string {
	if p.DefaultLang == config.LangPython {
		return ".py"
	}
	return ".cpp"
}

func (p *Project) ConfigDir() string         { return p.path(MarkerDir) }
func (p *Project) LocalConfigFile() string   { return LocalConfigPath(p.Root) }
func (p *Project) ProblemConfigFile() string { return p.path(p.Paths.ProblemConfig) }
func (p *Project) GeneratorsDir() string     { return p.path(p.Paths.Generators) }
func (p *Project) SolutionsDir() string      { return p.path(p.Paths.Solutions) }
func (p *Project) InputsDir() string         { return p.path(p.Paths.Inputs) }
func (p *Project) OutputsDir() string        { return p.path(p.Paths.Outputs) }

func (p *Project) CheckerFile() string {
	return withDefaultExt(p.path(p.Paths.Checker), p.sourceExt())
}

func (p *Project) VerifierFile() string {
	return withDefaultExt(p.path(p.Paths.Verifier), p.sourceExt())
}

// ParamsFile is a C header or a Python module, depending on the default
// language.
func (p *Project) ParamsFile() string {
	ext := ".h"
	if p.DefaultLang == config.LangPython {
		ext = ".py"
	}
	return withDefaultExt(p.path(p.Paths.Params), ext)
}

func (p *Project) GeneratorFile(name string) string {
	return filepath.Join(p.GeneratorsDir(), name)
}

func (p *Project) SolutionFile(name string) string {
	return filepath.Join(p.SolutionsDir(), name)
}

func (p *Project) InputFile(key testcase.Key) string {
	return filepath.Join(p.InputsDir(), key.InputName())
}

func (p *Project) OutputFile(key testcase.Key) string {
	return filepath.Join(p.OutputsDir(), key.OutputName())
}

// RawGeneratorFile is the hand-written input for key when its group is a
// literal text file: group "00_sample.txt" index 1 maps to
// "00_sample_01.txt" in the generators directory.
func (p *Project) RawGeneratorFile(key testcase.Key) string {
	return filepath.Join(p.GeneratorsDir(), key.Stem()+filepath.Ext(key.Group))
}

// Init creates the problem skeleton under Root. Existing files are kept,
// an empty problem configuration gets an example. A path that exists with
// the wrong kind (a directory where a file goes or the other way round)
// aborts before anything is created.
func (p *Project) Init() error {
	files := []string{
		p.LocalConfigFile(),
		p.ProblemConfigFile(),
		p.CheckerFile(),
		p.VerifierFile(),
		p.ParamsFile(),
	}
	dirs := []string{
		p.Root,
		p.ConfigDir(),
		p.GeneratorsDir(),
		p.SolutionsDir(),
		p.InputsDir(),
		p.OutputsDir(),
	}
	for _, f := range files {
		dirs = append(dirs, filepath.Dir(f))
	}

	var conflicts []error
	for _, f := range files {
		if info, err := os.Stat(f); err == nil && info.IsDir() {
			conflicts = append(conflicts, fmt.Errorf("%s is a directory", f))
		}
	}
	for _, d := range dirs {
		if info, err := os.Stat(d); err == nil && !info.IsDir() {
			conflicts = append(conflicts, fmt.Errorf("%s is not a directory", d))
		}
	}
	if len(conflicts) > 0 {
		return fmt.Errorf("cannot initialize %s: %w", p.Root, errors.Join(conflicts...))
	}

	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", d, err)
		}
	}
	for _, f := range files {
		if err := touch(f); err != nil {
			return err
		}
	}

	info, err := os.Stat(p.ProblemConfigFile())
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", p.ProblemConfigFile(), err)
	}
	if info.Size() == 0 {
		if err := os.WriteFile(p.ProblemConfigFile(), []byte(ExampleProblemConfig), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", p.ProblemConfigFile(), err)
		}
	}
	slog.Info("initialized problem", "root", p.Root)
	return nil
}

func touch(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f.Close()
}

// ExampleProblemConfig is written into a fresh problem.toml.
const ExampleProblemConfig = `title = "A + B"
timelimit = 2.0
memorylimit = 256

[[tests]]
name = "00_sample.txt"
number = 1

[[tests]]
name = "01_random.cpp"
number = 10

[[solutions]]
name = "correct.cpp"
expected = true

[[solutions]]
name = "slow.py"
tle = "expected"

[params]
MIN_N = 1
MAX_N = 1000000000
`
