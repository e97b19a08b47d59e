//go:build linux

package runner

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"unsafe"

	"github.com/criyle/go-sandbox/pkg/rlimit"
	"github.com/docker/docker/pkg/reexec"
	"golang.org/x/sys/unix"
)

// launcherArg0 is the argv[0] the binary is re-executed with to apply the
// address-space cap before becoming the target program.
const launcherArg0 = "cpmaker-rlimit-exec"

// launcherExitCode is used when the launcher fails before exec.
const launcherExitCode = 127

func init() {
	reexec.Register(launcherArg0, launcherMain)
}

// limitedCommand builds a command that re-executes the current binary as
// the launcher: os.Args = [launcherArg0, <mib>, <path>, <argv...>].
func limitedCommand(path string, argv []string, memoryLimitMiB int) (*exec.Cmd, error) {
	args := append([]string{launcherArg0, strconv.Itoa(memoryLimitMiB), path}, argv...)
	return reexec.Command(args...), nil
}

func setOwnGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// killGroup kills the group led by p, falling back to p alone when the
// group is already gone.
func killGroup(p *os.Process) {
	if err := unix.Kill(-p.Pid, unix.SIGKILL); err != nil {
		_ = p.Kill()
	}
}

func launcherMain() {
	if len(os.Args) < 4 {
		fmt.Fprintf(os.Stderr, "%s: expected <mib> <path> <argv...>\n", launcherArg0)
		os.Exit(launcherExitCode)
	}
	mib, err := strconv.ParseUint(os.Args[1], 10, 64)
	if err != nil || mib == 0 {
		fmt.Fprintf(os.Stderr, "%s: bad memory limit %q\n", launcherArg0, os.Args[1])
		os.Exit(launcherExitCode)
	}
	err = execWithAddressSpace(mib<<20, os.Args[2], os.Args[3:], os.Environ())
	fmt.Fprintf(os.Stderr, "%s: %v\n", launcherArg0, err)
	os.Exit(launcherExitCode)
}

// execWithAddressSpace applies RLIMIT_AS and replaces the process image.
// Everything execve needs is allocated before the limit is set so the Go
// runtime does not have to grow its heap under the new cap.
func execWithAddressSpace(bytes uint64, path string, argv []string, env []string) error {
	pathp, err := syscall.BytePtrFromString(path)
	if err != nil {
		return fmt.Errorf("failed to convert path: %w", err)
	}
	argvp, err := syscall.SlicePtrFromStrings(argv)
	if err != nil {
		return fmt.Errorf("failed to convert argv: %w", err)
	}
	envp, err := syscall.SlicePtrFromStrings(env)
	if err != nil {
		return fmt.Errorf("failed to convert env: %w", err)
	}

	limits := rlimit.RLimits{AddressSpace: bytes}
	for _, rl := range limits.PrepareRLimit() {
		lim := unix.Rlimit{Cur: rl.Rlim.Cur, Max: rl.Rlim.Max}
		if err := unix.Setrlimit(rl.Res, &lim); err != nil {
			return fmt.Errorf("failed to set %s: %w", rl, err)
		}
	}

	_, _, errno := unix.RawSyscall(unix.SYS_EXECVE,
		uintptr(unsafe.Pointer(pathp)),
		uintptr(unsafe.Pointer(&argvp[0])),
		uintptr(unsafe.Pointer(&envp[0])))
	return fmt.Errorf("failed to exec %s: %w", path, errno)
}
