package langs_test

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/programme-lv/cpmaker/internal/config"
	"github.com/programme-lv/cpmaker/internal/langs"
	"github.com/programme-lv/cpmaker/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompiler writes a shell script that "compiles" by emitting a script
// printing the flags it was given. Every invocation appends a line to log.
func fakeCompiler(t *testing.T, dir string, fail bool) (compiler, log string) {
	t.Helper()
	compiler = filepath.Join(dir, "fakecc")
	log = filepath.Join(dir, "fakecc.log")
	exit := "0"
	if fail {
		exit = "1"
	}
	script := `#!/bin/sh
echo "$@" >> ` + log + `
flags=""
while [ $# -gt 1 ]; do
  case "$1" in
    -o) out="$2"; shift 2 ;;
    *) flags="$flags $1"; shift ;;
  esac
done
if [ ` + exit + ` -ne 0 ]; then echo "syntax error" >&2; exit ` + exit + `; fi
printf '#!/bin/sh\necho built with%s\n' "$flags" > "$out"
chmod +x "$out"
`
	require.NoError(t, os.WriteFile(compiler, []byte(script), 0o755))
	return compiler, log
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return strings.Count(string(data), "\n")
}

func newRegistry(compiler string, out *bytes.Buffer) *langs.Registry {
	cfg := config.DefaultTool().Language
	cfg.Cpp.Compiler = compiler
	cfg.Cpp.Flags = []string{"-DGENERAL"}
	cfg.Cpp.Solver = &config.CppOverride{Flags: []string{"-DSOLVER"}}
	return langs.NewRegistry(cfg, langs.WithCompilerOutput(out))
}

func TestDetect(t *testing.T) {
	reg := langs.NewRegistry(config.DefaultTool().Language)

	cases := map[string]string{
		"a.cpp":   langs.NameCpp,
		"a.cc":    langs.NameCpp,
		"a.cxx":   langs.NameCpp,
		"a.c++":   langs.NameCpp,
		"gen.py":  langs.NamePython,
		"s.txt":   langs.NameTextCat,
		"x_00.in": langs.NameTextCat,
	}
	for path, want := range cases {
		lang, err := reg.Detect(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, lang.Name(), path)
	}

	_, err := reg.Detect("main.rs")
	assert.Error(t, err)
	_, err = reg.Detect("Makefile")
	assert.Error(t, err)
}

func TestScriptLanguages(t *testing.T) {
	reg := langs.NewRegistry(config.DefaultTool().Language)
	dir := t.TempDir()

	py, err := reg.Compile(context.Background(), filepath.Join(dir, "gen.py"))
	require.NoError(t, err)
	assert.Equal(t, []string{"python", filepath.Join(dir, "gen.py")}, py.Cmd)
	assert.False(t, py.Raw())

	txt, err := reg.Compile(context.Background(), filepath.Join(dir, "00_sample.txt"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", filepath.Join(dir, "00_sample.txt")}, txt.Cmd)
	assert.True(t, txt.Raw())
}

func TestCppCompilesOnce(t *testing.T) {
	dir := t.TempDir()
	compiler, log := fakeCompiler(t, dir, false)
	var out bytes.Buffer
	reg := newRegistry(compiler, &out)

	src := filepath.Join(dir, "sol.cpp")
	require.NoError(t, os.WriteFile(src, []byte("int main() {}\n"), 0o644))

	var wg sync.WaitGroup
	results := make([]*langs.Compiled, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := reg.Compile(context.Background(), src)
			assert.NoError(t, err)
			results[i] = c
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, countLines(t, log))
	for _, c := range results {
		assert.Same(t, results[0], c)
	}
	assert.Equal(t, []string{filepath.Join(dir, "sol")}, results[0].Cmd)

	res, err := runner.Run(context.Background(), results[0].Cmd, runner.Config{CheckExitCode: true})
	require.NoError(t, err)
	assert.Equal(t, "built with -DGENERAL\n", res.Stdout)
}

func TestSolverOverride(t *testing.T) {
	dir := t.TempDir()
	compiler, log := fakeCompiler(t, dir, false)
	var out bytes.Buffer
	reg := newRegistry(compiler, &out)

	src := filepath.Join(dir, "sol.cc")
	require.NoError(t, os.WriteFile(src, []byte("int main() {}\n"), 0o644))

	c, err := reg.CompileSolver(context.Background(), src)
	require.NoError(t, err)
	res, err := runner.Run(context.Background(), c.Cmd, runner.Config{CheckExitCode: true})
	require.NoError(t, err)
	assert.Equal(t, "built with -DSOLVER\n", res.Stdout)

	// the general and solver caches are separate
	_, err = reg.Compile(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 2, countLines(t, log))

	py, err := reg.CompileSolver(context.Background(), filepath.Join(dir, "sol.py"))
	require.NoError(t, err)
	assert.Equal(t, langs.NamePython, py.Language)
}

func TestCppCompileFailure(t *testing.T) {
	dir := t.TempDir()
	compiler, log := fakeCompiler(t, dir, true)
	var out bytes.Buffer
	reg := newRegistry(compiler, &out)

	src := filepath.Join(dir, "broken.cpp")
	require.NoError(t, os.WriteFile(src, []byte("int main( {}\n"), 0o644))

	_, err := reg.Compile(context.Background(), src)
	require.Error(t, err)
	var exitErr *runner.ExitError
	assert.ErrorAs(t, err, &exitErr)
	assert.Contains(t, out.String(), "syntax error")

	// failures are cached as well
	_, err = reg.Compile(context.Background(), src)
	assert.Error(t, err)
	assert.Equal(t, 1, countLines(t, log))
}

func TestRealCompiler(t *testing.T) {
	if _, err := exec.LookPath("g++"); err != nil {
		t.Skip("g++ not available")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "hello.cpp")
	require.NoError(t, os.WriteFile(src, []byte(
		"#include <cstdio>\nint main() { std::puts(\"hello\"); }\n"), 0o644))

	cfg := config.DefaultTool().Language
	reg := langs.NewRegistry(cfg)
	c, err := reg.CompileSolver(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, langs.ExecPath(src), c.Cmd[0])

	res, err := runner.Run(context.Background(), c.Cmd, runner.Config{CheckExitCode: true})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", res.Stdout)
}

func TestDefaultExtension(t *testing.T) {
	assert.Equal(t, ".cpp", langs.DefaultExtension(langs.NameCpp))
	assert.Equal(t, ".py", langs.DefaultExtension(langs.NamePython))
}
