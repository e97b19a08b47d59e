// Package config holds the tool settings (checker style, compilers, project
// layout) and the per-problem settings read from problem.toml.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/programme-lv/cpmaker/internal/checker"
)

const (
	LangCpp    = "C++"
	LangPython = "Python"
)

// Tool is the effective tool configuration. Built-in defaults are
// overlaid by the global file and then by the problem-local file.
type Tool struct {
	Checker     Checker     `toml:"checker"`
	Language    Language    `toml:"language"`
	Path        Path        `toml:"path"`
	Interactive Interactive `toml:"interactive"`
}

type Checker struct {
	Style    checker.Style     `toml:"style"`
	ExitCode checker.ExitCodes `toml:"exit_code"`
}

type Language struct {
	// Default decides file extensions of the scaffolded sources and the
	// format of the generated params file.
	Default string `toml:"default"`
	Cpp     Cpp    `toml:"cpp"`
	Python  Python `toml:"python"`
}

type Cpp struct {
	Compiler string   `toml:"compiler"`
	Flags    []string `toml:"flags"`
	// Solver overrides compiler settings for solutions.
	Solver *CppOverride `toml:"solver"`
}

type CppOverride struct {
	Compiler string   `toml:"compiler,omitempty"`
	Flags    []string `toml:"flags,omitempty"`
}

// ForSolver returns the C++ settings used to build solutions.
func (c Cpp) ForSolver() Cpp {
	res := Cpp{Compiler: c.Compiler, Flags: c.Flags}
	if c.Solver == nil {
		return res
	}
	if c.Solver.Compiler != "" {
		res.Compiler = c.Solver.Compiler
	}
	if c.Solver.Flags != nil {
		res.Flags = c.Solver.Flags
	}
	return res
}

type Python struct {
	Python string `toml:"python"`
}

// Path is the project layout relative to the problem root.
type Path struct {
	ProblemConfig string `toml:"problem_config"`
	Inputs        string `toml:"inputs"`
	Outputs       string `toml:"outputs"`
	Solutions     string `toml:"solutions"`
	Generators    string `toml:"generators"`
	// Checker, Verifier and Params may omit the extension, the default
	// language then decides it.
	Checker  string `toml:"checker"`
	Verifier string `toml:"verifier"`
	Params   string `toml:"params"`
}

type Interactive struct {
	// JudgeTimeout is in seconds.
	JudgeTimeout float64 `toml:"judge_timeout"`
}

func (i Interactive) JudgeTimeoutDuration() time.Duration {
	return time.Duration(i.JudgeTimeout * float64(time.Second))
}

func DefaultTool() Tool {
	return Tool{
		Checker: Checker{
			Style:    checker.StyleTestlib,
			ExitCode: checker.DefaultExitCodes(),
		},
		Language: Language{
			Default: LangCpp,
			Cpp: Cpp{
				Compiler: "g++",
				Flags:    []string{"-std=c++20", "-Wall", "-Wextra", "-fsplit-stack", "-g", "-fsanitize=address"},
				Solver: &CppOverride{
					Flags: []string{"-std=c++20", "-Wall", "-Wextra", "-fsplit-stack", "-O2"},
				},
			},
			Python: Python{Python: "python"},
		},
		Path: Path{
			ProblemConfig: "problem.toml",
			Inputs:        "test/in/",
			Outputs:       "test/out/",
			Solutions:     "src/sol/",
			Generators:    "src/gen/",
			Checker:       "src/checker",
			Verifier:      "src/verifier",
			Params:        "src/params",
		},
		Interactive: Interactive{JudgeTimeout: 1.0},
	}
}

func (t *Tool) Validate() error {
	switch t.Checker.Style {
	case checker.StyleTestlib, checker.StyleYukicoder:
	default:
		return fmt.Errorf("checker.style must be %q or %q, got %q",
			checker.StyleTestlib, checker.StyleYukicoder, t.Checker.Style)
	}
	if err := t.Checker.ExitCode.Validate(); err != nil {
		return fmt.Errorf("checker.exit_code: %w", err)
	}
	if !slices.Contains([]string{LangCpp, LangPython}, t.Language.Default) {
		return fmt.Errorf("language.default must be %q or %q, got %q", LangCpp, LangPython, t.Language.Default)
	}
	if t.Language.Cpp.Compiler == "" {
		return fmt.Errorf("language.cpp.compiler must not be empty")
	}
	if t.Language.Python.Python == "" {
		return fmt.Errorf("language.python.python must not be empty")
	}
	if t.Interactive.JudgeTimeout <= 0 {
		return fmt.Errorf("interactive.judge_timeout must be positive, got %v", t.Interactive.JudgeTimeout)
	}
	return nil
}
