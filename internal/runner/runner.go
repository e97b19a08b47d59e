// Package runner executes a single external program under a wall-clock
// timeout and an optional address-space cap, measuring elapsed time and
// peak resident memory.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/programme-lv/cpmaker/internal/memwatch"
)

// waitDelay bounds how long Wait keeps reading output after the process
// exited while some descendant still holds the pipes open.
const waitDelay = time.Second

// Config is the per-invocation run configuration.
type Config struct {
	// Stdin is fed to the process; nil means /dev/null.
	Stdin io.Reader
	// Stdout and Stderr receive the captured streams after the process
	// exits; nil discards them.
	Stdout io.Writer
	Stderr io.Writer

	// Timeout is the wall-clock limit, zero means none.
	Timeout time.Duration
	// MemoryLimitMiB caps the address space of the process, zero means none.
	MemoryLimitMiB int
	// CheckExitCode turns a nonzero exit into an *ExitError.
	CheckExitCode bool

	Dir    string
	Logger *slog.Logger
}

func (c *Config) validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout %s", ErrInvalidConfig, c.Timeout)
	}
	return nil
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Result is produced once per finished invocation.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Elapsed   time.Duration
	MemoryMiB float64
}

// ElapsedSeconds returns the wall time in seconds.
func (r *Result) ElapsedSeconds() float64 {
	return r.Elapsed.Seconds()
}

// Run executes argv and waits for it to finish.
//
// A process still running when cfg.Timeout elapses is killed and a
// *TimeoutError is returned. With cfg.CheckExitCode a nonzero exit code
// yields an *ExitError that still carries the result. Exceeding the memory
// cap shows up as an abnormal exit, it is not reported separately.
func Run(ctx context.Context, argv []string, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := cfg.logger()

	cmd, err := Command(argv, cfg.MemoryLimitMiB)
	if err != nil {
		return nil, err
	}
	var stdout, stderr bytes.Buffer
	cmd.Dir = cfg.Dir
	cmd.Stdin = cfg.Stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("running command", "argv", argv, "timeout", cfg.Timeout, "memory_limit_mib", cfg.MemoryLimitMiB)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Argv: argv, Err: err}
	}
	sampler := Watch(cmd, cfg.MemoryLimitMiB)

	timedOut, waitErr := Wait(ctx, cmd, cfg.Timeout)
	elapsed := time.Since(start)
	peak := sampler.Stop()

	if timedOut {
		log.Debug("command timed out", "argv", argv, "elapsed", elapsed)
		return nil, &TimeoutError{Limit: cfg.Timeout, Elapsed: elapsed}
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !cmd.ProcessState.Success() {
		return nil, fmt.Errorf("failed to run %s: %w", argv[0], ctxErr)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(waitErr, &exitErr):
		case errors.Is(waitErr, exec.ErrWaitDelay):
			log.Warn("output pipes outlived the process", "argv", argv)
		default:
			return nil, fmt.Errorf("failed to wait for %s: %w", argv[0], waitErr)
		}
	}

	res := &Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		ExitCode:  cmd.ProcessState.ExitCode(),
		Elapsed:   elapsed,
		MemoryMiB: peak,
	}
	log.Debug("command finished", "argv", argv, "exit_code", res.ExitCode,
		"elapsed", res.Elapsed, "memory_mib", res.MemoryMiB)

	if err := writeCaptured(cfg.Stdout, stdout.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to write stdout: %w", err)
	}
	if err := writeCaptured(cfg.Stderr, stderr.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to write stderr: %w", err)
	}

	if cfg.CheckExitCode && res.ExitCode != 0 {
		return res, &ExitError{Code: res.ExitCode, Result: res}
	}
	return res, nil
}

// Command resolves argv[0] and returns an unstarted command that applies
// the memory cap, if any, before the program image runs. The process gets
// its own process group so that Kill also reaches whatever it spawned.
// The caller owns the redirections.
func Command(argv []string, memoryLimitMiB int) (*exec.Cmd, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, fmt.Errorf("%w: empty command", ErrInvalidConfig)
	}
	if memoryLimitMiB < 0 {
		return nil, fmt.Errorf("%w: memory limit must be positive, got %d MiB", ErrInvalidConfig, memoryLimitMiB)
	}
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, &LaunchError{Argv: argv, Err: err}
	}
	var cmd *exec.Cmd
	if memoryLimitMiB > 0 {
		cmd, err = limitedCommand(path, argv, memoryLimitMiB)
		if err != nil {
			return nil, &LaunchError{Argv: argv, Err: err}
		}
	} else {
		cmd = exec.Command(path, argv[1:]...)
		cmd.Args[0] = argv[0]
	}
	setOwnGroup(cmd)
	cmd.WaitDelay = waitDelay
	return cmd, nil
}

// Kill sends SIGKILL to the process group of a command started with
// Command. Call it before the command is waited for.
func Kill(cmd *exec.Cmd) {
	killGroup(cmd.Process)
}

// Watch starts sampling the memory of a command started with Command.
func Watch(cmd *exec.Cmd, memoryLimitMiB int) *memwatch.Sampler {
	var opts []memwatch.Option
	if memoryLimitMiB > 0 {
		opts = append(opts, memwatch.SkipWhileArg0(launcherArg0))
	}
	return memwatch.Start(cmd.Process.Pid, opts...)
}

// Wait waits for a started cmd to exit, killing its process group when the
// timeout elapses or ctx is done. It reports whether the timeout fired. The
// watchdog goroutine is joined before returning.
func Wait(ctx context.Context, cmd *exec.Cmd, timeout time.Duration) (bool, error) {
	var timedOut atomic.Bool
	done := make(chan struct{})
	watchdogDone := make(chan struct{})
	go func() {
		defer close(watchdogDone)
		var timer <-chan time.Time
		if timeout > 0 {
			t := time.NewTimer(timeout)
			defer t.Stop()
			timer = t.C
		}
		select {
		case <-ctx.Done():
			killGroup(cmd.Process)
		case <-timer:
			timedOut.Store(true)
			killGroup(cmd.Process)
		case <-done:
		}
	}()

	err := cmd.Wait()
	close(done)
	<-watchdogDone
	return timedOut.Load(), err
}

func writeCaptured(w io.Writer, b []byte) error {
	if w == nil || len(b) == 0 {
		return nil
	}
	_, err := w.Write(b)
	return err
}
