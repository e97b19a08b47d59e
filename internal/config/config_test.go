package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/programme-lv/cpmaker/internal/checker"
	"github.com/programme-lv/cpmaker/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultToolIsValid(t *testing.T) {
	tool := config.DefaultTool()
	require.NoError(t, tool.Validate())
	assert.Equal(t, checker.StyleTestlib, tool.Checker.Style)
	assert.Equal(t, checker.DefaultExitCodes(), tool.Checker.ExitCode)
	assert.Equal(t, time.Second, tool.Interactive.JudgeTimeoutDuration())

	solverCpp := tool.Language.Cpp.ForSolver()
	assert.Equal(t, "g++", solverCpp.Compiler)
	assert.Contains(t, solverCpp.Flags, "-O2")
	assert.NotContains(t, tool.Language.Cpp.Flags, "-O2")
}

func TestLoadToolMissingFilesGiveDefaults(t *testing.T) {
	dir := t.TempDir()
	tool, err := config.LoadTool(filepath.Join(dir, "nope.toml"), "")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTool(), *tool)
}

func TestLoadToolGlobalThenLocal(t *testing.T) {
	dir := t.TempDir()
	global := writeFile(t, dir, "global.toml", `
[checker]
style = "yukicoder"
[language]
default = "Python"
`)
	local := writeFile(t, dir, "local.toml", `
[path]
problem_config = "AAAAA.toml"
[language]
default = "C++"
[language.cpp]
compiler = "clang++"
`)

	tool, err := config.LoadTool(global, local)
	require.NoError(t, err)
	assert.Equal(t, checker.StyleYukicoder, tool.Checker.Style)
	assert.Equal(t, "AAAAA.toml", tool.Path.ProblemConfig)
	assert.Equal(t, config.LangCpp, tool.Language.Default)
	assert.Equal(t, "clang++", tool.Language.Cpp.Compiler)
	// untouched keys keep their defaults
	assert.Equal(t, "test/in/", tool.Path.Inputs)
	assert.Equal(t, "clang++", tool.Language.Cpp.ForSolver().Compiler)
}

func TestLoadToolRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()

	unknown := writeFile(t, dir, "unknown.toml", "[checker]\ncolour = \"red\"\n")
	_, err := config.LoadTool(unknown, "")
	assert.Error(t, err)

	dup := writeFile(t, dir, "dup.toml", "[checker.exit_code]\nAC = 1\n")
	_, err = config.LoadTool(dup, "")
	assert.Error(t, err)

	style := writeFile(t, dir, "style.toml", "[checker]\nstyle = \"codeforces\"\n")
	_, err = config.LoadTool(style, "")
	assert.Error(t, err)
}

const sampleProblem = `
title = "Sample"
timelimit = 1.5
memorylimit = 256

[[tests]]
name = "00_sample.txt"
number = 2

[[tests]]
name = "01_random.cpp"
number = 10

[[solutions]]
name = "correct.cpp"
expected = true

[[solutions]]
name = "slow.py"
tle = "expected"
re = "allow"

[params]
N_MIN = 1
N_MAX = 100000
EPS = 1e-6
NAME = "sample"
`

func TestLoadProblem(t *testing.T) {
	path := writeFile(t, t.TempDir(), "problem.toml", sampleProblem)
	p, err := config.LoadProblem(path)
	require.NoError(t, err)

	assert.Equal(t, "Sample", p.Title)
	assert.Equal(t, 1500*time.Millisecond, p.TimeLimitDuration())
	assert.Equal(t, 256, p.MemoryLimitMiB())
	require.Len(t, p.Tests, 2)
	assert.Equal(t, config.Test{Name: "01_random.cpp", Number: 10}, p.Tests[1])

	assert.Equal(t, "correct.cpp", p.ExpectedSolution().Name)
	slow, ok := p.Solution("slow.py")
	require.True(t, ok)
	assert.Equal(t, config.PolicyExpected, slow.TLE)
	assert.Equal(t, config.PolicyNever, slow.WA)
	assert.Equal(t, config.PolicyAllow, slow.RE)

	assert.Equal(t, int64(100000), p.Params["N_MAX"])
	assert.Equal(t, 1e-6, p.Params["EPS"])
	assert.Equal(t, "sample", p.Params["NAME"])
}

func TestLoadProblemDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "problem.toml", `
title = "t"
[[tests]]
name = "gen.py"
number = 1
[[solutions]]
name = "a.cpp"
expected = true
`)
	p, err := config.LoadProblem(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, p.TimeLimitDuration())
	assert.Equal(t, 0, p.MemoryLimitMiB())
}

func TestLoadProblemValidation(t *testing.T) {
	base := `
title = "t"
[[tests]]
name = "gen.py"
number = 1
`
	cases := map[string]string{
		"no expected solution": base + `
[[solutions]]
name = "a.cpp"
`,
		"two expected solutions": base + `
[[solutions]]
name = "a.cpp"
expected = true
[[solutions]]
name = "b.cpp"
expected = true
`,
		"expected solution allows tle": base + `
[[solutions]]
name = "a.cpp"
expected = true
tle = "allow"
`,
		"unknown policy": base + `
[[solutions]]
name = "a.cpp"
expected = true
[[solutions]]
name = "b.cpp"
wa = "sometimes"
`,
		"zero memory limit": "memorylimit = 0\n" + base + `
[[solutions]]
name = "a.cpp"
expected = true
`,
		"negative time limit": "timelimit = -1.0\n" + base + `
[[solutions]]
name = "a.cpp"
expected = true
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "problem.toml", content)
			_, err := config.LoadProblem(path)
			assert.Error(t, err)
		})
	}

	_, err := config.LoadProblem(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestGetAndSet(t *testing.T) {
	global := filepath.Join(t.TempDir(), "cpmaker", "config.toml")

	v, err := config.Get(global, "checker.style")
	require.NoError(t, err)
	assert.Equal(t, `'testlib'`, v)

	require.NoError(t, config.Set(global, "checker.style", "yukicoder"))
	require.NoError(t, config.Set(global, "language.cpp.flags", `["-std=c++17", "-O2"]`))
	require.NoError(t, config.Set(global, "checker.exit_code.FAIL", "7"))

	tool, err := config.LoadTool(global, "")
	require.NoError(t, err)
	assert.Equal(t, checker.StyleYukicoder, tool.Checker.Style)
	assert.Equal(t, []string{"-std=c++17", "-O2"}, tool.Language.Cpp.Flags)
	assert.Equal(t, 7, tool.Checker.ExitCode.FAIL)

	table, err := config.Get(global, "checker")
	require.NoError(t, err)
	assert.Contains(t, table, "yukicoder")

	assert.Error(t, config.Set(global, "checker.colour", "red"))
	assert.Error(t, config.Set(global, "checker.exit_code.WA", "0"))
	_, err = config.Get(global, "checker.nope")
	assert.Error(t, err)
}
