//go:build !linux

package runner

import (
	"errors"
	"os"
	"os/exec"
)

const launcherArg0 = ""

func limitedCommand(path string, argv []string, memoryLimitMiB int) (*exec.Cmd, error) {
	return nil, errors.New("memory limits are only supported on linux")
}

func setOwnGroup(cmd *exec.Cmd) {}

func killGroup(p *os.Process) {
	_ = p.Kill()
}
