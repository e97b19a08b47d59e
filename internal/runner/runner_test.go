package runner_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/pkg/reexec"
	"github.com/programme-lv/cpmaker/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// workloadEnv switches the test binary into a helper program when set.
const workloadEnv = "RUNNER_TEST_ALLOC_MIB"

var sink []byte

func TestMain(m *testing.M) {
	if reexec.Init() {
		return
	}
	if v := os.Getenv(workloadEnv); v != "" {
		allocAndSleep(v)
		return
	}
	os.Exit(m.Run())
}

func allocAndSleep(v string) {
	mib, err := strconv.Atoi(v)
	if err != nil {
		os.Exit(100)
	}
	sink = make([]byte, mib<<20)
	for i := range sink {
		sink[i] = byte(i)
	}
	time.Sleep(200 * time.Millisecond)
	os.Exit(0)
}

func selfExe(t *testing.T) string {
	exe, err := os.Executable()
	require.NoError(t, err)
	return exe
}

func TestRunCapturesOutput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	res, err := runner.Run(context.Background(),
		[]string{"sh", "-c", "echo out; echo err >&2"},
		runner.Config{Stdout: &stdout, Stderr: &stderr})
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
	assert.Greater(t, res.Elapsed, time.Duration(0))
}

func TestRunFeedsStdin(t *testing.T) {
	var stdout bytes.Buffer
	res, err := runner.Run(context.Background(), []string{"cat"},
		runner.Config{Stdin: strings.NewReader("1 2 3\n"), Stdout: &stdout})
	require.NoError(t, err)
	assert.Equal(t, "1 2 3\n", res.Stdout)
	assert.Equal(t, "1 2 3\n", stdout.String())
}

func TestRunNonZeroExit(t *testing.T) {
	res, err := runner.Run(context.Background(), []string{"sh", "-c", "exit 3"}, runner.Config{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)

	res, err = runner.Run(context.Background(), []string{"sh", "-c", "echo partial; exit 3"},
		runner.Config{CheckExitCode: true})
	var exitErr *runner.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "partial\n", exitErr.Result.Stdout)
	assert.Same(t, exitErr.Result, res)
}

func TestRunTimeout(t *testing.T) {
	const limit = 200 * time.Millisecond
	var stdout bytes.Buffer
	start := time.Now()
	res, err := runner.Run(context.Background(), []string{"sleep", "5"},
		runner.Config{Timeout: limit, Stdout: &stdout})
	took := time.Since(start)

	require.Nil(t, res)
	var te *runner.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.True(t, runner.IsTimeout(err))
	assert.Equal(t, limit, te.Limit)
	assert.GreaterOrEqual(t, te.Elapsed, limit)
	assert.Less(t, took, 2*time.Second)
	assert.Empty(t, stdout.String())
}

// processGone reports whether pid no longer runs. A killed orphan may stay
// a zombie until init reaps it.
func processGone(pid int) bool {
	stat, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return true
	}
	_, rest, ok := strings.Cut(string(stat), ") ")
	return ok && (strings.HasPrefix(rest, "Z") || strings.HasPrefix(rest, "X"))
}

func TestRunTimeoutKillsSpawnedProcesses(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "child.pid")
	start := time.Now()
	_, err := runner.Run(context.Background(),
		[]string{"sh", "-c", `sleep 10 & echo $! > "$0"; wait`, pidFile},
		runner.Config{Timeout: 200 * time.Millisecond})
	require.True(t, runner.IsTimeout(err))
	assert.Less(t, time.Since(start), 2*time.Second)

	raw, err := os.ReadFile(pidFile)
	require.NoError(t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return processGone(pid) }, 2*time.Second, 20*time.Millisecond)
}

func TestRunContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := runner.Run(ctx, []string{"sleep", "5"}, runner.Config{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, runner.IsTimeout(err))
}

func TestRunLaunchFailure(t *testing.T) {
	_, err := runner.Run(context.Background(), []string{"./definitely-not-a-program"}, runner.Config{})
	var le *runner.LaunchError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "./definitely-not-a-program", le.Argv[0])
}

func TestRunInvalidConfig(t *testing.T) {
	_, err := runner.Run(context.Background(), []string{"true"}, runner.Config{MemoryLimitMiB: -1})
	assert.ErrorIs(t, err, runner.ErrInvalidConfig)

	_, err = runner.Run(context.Background(), []string{"true"}, runner.Config{Timeout: -time.Second})
	assert.ErrorIs(t, err, runner.ErrInvalidConfig)

	_, err = runner.Run(context.Background(), nil, runner.Config{})
	assert.ErrorIs(t, err, runner.ErrInvalidConfig)
}

func TestRunMeasuresMemory(t *testing.T) {
	t.Setenv(workloadEnv, "64")
	res, err := runner.Run(context.Background(), []string{selfExe(t)}, runner.Config{CheckExitCode: true})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.MemoryMiB, 64.0)
	assert.Less(t, res.MemoryMiB, 64.0+40.0)
}

func TestRunMemoryLimitAllowsSmallProgram(t *testing.T) {
	res, err := runner.Run(context.Background(), []string{"sh", "-c", "echo ok"},
		runner.Config{MemoryLimitMiB: 64, CheckExitCode: true})
	require.NoError(t, err)
	assert.Equal(t, "ok\n", res.Stdout)
}

func TestRunMemoryLimitExceeded(t *testing.T) {
	t.Setenv(workloadEnv, "256")
	res, err := runner.Run(context.Background(), []string{selfExe(t)},
		runner.Config{MemoryLimitMiB: 32})
	require.NoError(t, err)
	assert.NotEqual(t, 0, res.ExitCode)

	_, err = runner.Run(context.Background(), []string{selfExe(t)},
		runner.Config{MemoryLimitMiB: 32, CheckExitCode: true})
	var exitErr *runner.ExitError
	assert.ErrorAs(t, err, &exitErr)
}
