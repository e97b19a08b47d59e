package verifier_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/docker/docker/pkg/reexec"
	"github.com/programme-lv/cpmaker/internal/runner"
	"github.com/programme-lv/cpmaker/internal/verifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if reexec.Init() {
		return
	}
	os.Exit(m.Run())
}

// accepts a single integer within 1..100
const rangeVerifier = `read n; [ "$n" -ge 1 ] && [ "$n" -le 100 ] || { echo "n out of range" >&2; exit 1; }`

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.in")
	bad := filepath.Join(dir, "bad.in")
	require.NoError(t, os.WriteFile(good, []byte("50\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("500\n"), 0o644))

	cmd := []string{"sh", "-c", rangeVerifier}

	res, err := verifier.Verify(context.Background(), cmd, good, runner.Config{})
	require.NoError(t, err)
	assert.Equal(t, verifier.Passed, res.Verdict)

	var stderr bytes.Buffer
	res, err = verifier.Verify(context.Background(), cmd, bad, runner.Config{Stderr: &stderr})
	require.NoError(t, err)
	assert.Equal(t, verifier.Failed, res.Verdict)
	assert.Equal(t, "n out of range\n", stderr.String())
}

func TestVerifyMissingInput(t *testing.T) {
	_, err := verifier.Verify(context.Background(), []string{"true"}, filepath.Join(t.TempDir(), "nope.in"), runner.Config{})
	assert.Error(t, err)
}
