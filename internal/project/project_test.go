package project_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/programme-lv/cpmaker/internal/config"
	"github.com/programme-lv/cpmaker/internal/project"
	"github.com/programme-lv/cpmaker/internal/testcase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, project.MarkerDir), 0o755))
	deep := filepath.Join(root, "src", "gen", "more")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	got, err := project.SearchRoot(deep)
	require.NoError(t, err)
	assert.Equal(t, root, got)

	got, err = project.SearchRoot(root)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestSearchRootNotFound(t *testing.T) {
	_, err := project.SearchRoot(t.TempDir())
	assert.ErrorIs(t, err, project.ErrNoRoot)
}

func TestPaths(t *testing.T) {
	tool := config.DefaultTool()
	p := project.New("/prob", &tool)

	assert.Equal(t, "/prob/.cp_problem_maker/config.toml", p.LocalConfigFile())
	assert.Equal(t, "/prob/problem.toml", p.ProblemConfigFile())
	assert.Equal(t, "/prob/src/checker.cpp", p.CheckerFile())
	assert.Equal(t, "/prob/src/verifier.cpp", p.VerifierFile())
	assert.Equal(t, "/prob/src/params.h", p.ParamsFile())
	assert.Equal(t, "/prob/src/gen/01_random.cpp", p.GeneratorFile("01_random.cpp"))
	assert.Equal(t, "/prob/src/sol/a.py", p.SolutionFile("a.py"))

	key := testcase.Key{Group: "01_random.cpp", Index: 3}
	assert.Equal(t, "/prob/test/in/01_random_03.in", p.InputFile(key))
	assert.Equal(t, "/prob/test/out/01_random_03.out", p.OutputFile(key))

	raw := testcase.Key{Group: "00_sample.txt", Index: 1}
	assert.Equal(t, "/prob/src/gen/00_sample_01.txt", p.RawGeneratorFile(raw))
}

func TestPathsPythonDefaults(t *testing.T) {
	tool := config.DefaultTool()
	tool.Language.Default = config.LangPython
	tool.Path.Verifier = "src/verifier.cpp"
	p := project.New("/prob", &tool)

	assert.Equal(t, "/prob/src/checker.py", p.CheckerFile())
	assert.Equal(t, "/prob/src/verifier.cpp", p.VerifierFile())
	assert.Equal(t, "/prob/src/params.py", p.ParamsFile())
}

func TestInit(t *testing.T) {
	root := filepath.Join(t.TempDir(), "aplusb")
	tool := config.DefaultTool()
	p := project.New(root, &tool)
	require.NoError(t, p.Init())

	for _, d := range []string{p.ConfigDir(), p.GeneratorsDir(), p.SolutionsDir(), p.InputsDir(), p.OutputsDir()} {
		assert.DirExists(t, d)
	}
	for _, f := range []string{p.LocalConfigFile(), p.CheckerFile(), p.VerifierFile(), p.ParamsFile()} {
		assert.FileExists(t, f)
	}

	problem, err := p.LoadProblem()
	require.NoError(t, err)
	assert.Equal(t, "A + B", problem.Title)

	found, err := project.SearchRoot(p.GeneratorsDir())
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestInitKeepsExistingFiles(t *testing.T) {
	root := t.TempDir()
	tool := config.DefaultTool()
	p := project.New(root, &tool)

	require.NoError(t, os.WriteFile(p.ProblemConfigFile(), []byte("title = \"mine\"\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Dir(p.CheckerFile()), 0o755))
	require.NoError(t, os.WriteFile(p.CheckerFile(), []byte("// checker\n"), 0o644))

	require.NoError(t, p.Init())
	data, err := os.ReadFile(p.ProblemConfigFile())
	require.NoError(t, err)
	assert.Equal(t, "title = \"mine\"\n", string(data))
	data, err = os.ReadFile(p.CheckerFile())
	require.NoError(t, err)
	assert.Equal(t, "// checker\n", string(data))
}

func TestInitConflicts(t *testing.T) {
	root := t.TempDir()
	tool := config.DefaultTool()
	p := project.New(root, &tool)

	// a file where the inputs directory goes
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Clean(p.InputsDir())), 0o755))
	require.NoError(t, os.WriteFile(filepath.Clean(p.InputsDir()), nil, 0o644))
	// a directory where problem.toml goes
	require.NoError(t, os.MkdirAll(p.ProblemConfigFile(), 0o755))

	err := p.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
	assert.Contains(t, err.Error(), "is not a directory")
	assert.NoDirExists(t, p.ConfigDir())
}

func TestOpen(t *testing.T) {
	root := t.TempDir()
	tool := config.DefaultTool()
	require.NoError(t, project.New(root, &tool).Init())
	require.NoError(t, os.WriteFile(project.LocalConfigPath(root),
		[]byte("[language]\ndefault = \"Python\"\n"), 0o644))

	p, loaded, err := project.Open(filepath.Join(root, "src"), true, filepath.Join(root, "no-global.toml"))
	require.NoError(t, err)
	assert.Equal(t, root, p.Root)
	assert.Equal(t, config.LangPython, loaded.Language.Default)
	assert.Equal(t, filepath.Join(root, "src", "params.py"), p.ParamsFile())

	_, _, err = project.Open(t.TempDir(), true, "")
	assert.ErrorIs(t, err, project.ErrNoRoot)
}
