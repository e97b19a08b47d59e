package archive_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/programme-lv/cpmaker/internal/archive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPackUnpack(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "problem.toml"), "title = \"A + B\"\n")
	writeFile(t, filepath.Join(root, "tests", "in", "00_sample_00.in"), "1 2\n")
	writeFile(t, filepath.Join(root, "tests", "in", "01_random_00.in"), "5 7\n")
	writeFile(t, filepath.Join(root, "tests", "out", "00_sample_00.out"), "3\n")
	writeFile(t, filepath.Join(root, "tests", "out", "01_random_00.out"), "12\n")
	writeFile(t, filepath.Join(root, "solutions", "correct.cpp"), "int main() {}\n")

	dst := filepath.Join(t.TempDir(), archive.FileName("A + B"))
	n, err := archive.Pack(dst, root, []string{"tests/in", "tests/out", "problem.toml", "missing"})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	out := t.TempDir()
	require.NoError(t, archive.Unpack(dst, out))

	got, err := os.ReadFile(filepath.Join(out, "tests", "out", "01_random_00.out"))
	require.NoError(t, err)
	assert.Equal(t, "12\n", string(got))

	got, err = os.ReadFile(filepath.Join(out, "problem.toml"))
	require.NoError(t, err)
	assert.Equal(t, "title = \"A + B\"\n", string(got))

	assert.NoFileExists(t, filepath.Join(out, "solutions", "correct.cpp"))
}

func TestPackEmpty(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "empty"+archive.Ext)
	n, err := archive.Pack(dst, t.TempDir(), []string{"tests"})
	require.NoError(t, err)
	assert.Zero(t, n)

	out := t.TempDir()
	require.NoError(t, archive.Unpack(dst, out))
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUnpackNotArchive(t *testing.T) {
	src := filepath.Join(t.TempDir(), "junk"+archive.Ext)
	writeFile(t, src, "definitely not zstd")
	assert.Error(t, archive.Unpack(src, t.TempDir()))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "A + B.tar.zst", archive.FileName("A + B"))
	assert.Equal(t, "a_b.tar.zst", archive.FileName(" a/b "))
	assert.Equal(t, "problem.tar.zst", archive.FileName(""))
}
