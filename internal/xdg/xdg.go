// Package xdg resolves user directories following the XDG Base Directory
// layout.
package xdg

import (
	"os"
	"path/filepath"
)

// XDGDirs provides access to XDG Base Directory compliant paths
type XDGDirs struct {
	configHome string
	configDirs []string
}

// NewXDGDirs reads XDG_CONFIG_HOME and XDG_CONFIG_DIRS, falling back to the
// documented defaults when they are unset.
func NewXDGDirs() *XDGDirs {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
		if homeDir == "" {
			homeDir = "/tmp" // last resort
		}
	}

	xdg := &XDGDirs{}

	xdg.configHome = os.Getenv("XDG_CONFIG_HOME")
	if xdg.configHome == "" || !filepath.IsAbs(xdg.configHome) {
		xdg.configHome = filepath.Join(homeDir, ".config")
	}

	configDirsEnv := os.Getenv("XDG_CONFIG_DIRS")
	if configDirsEnv == "" {
		xdg.configDirs = []string{"/etc/xdg"}
	} else {
		xdg.configDirs = filepath.SplitList(configDirsEnv)
	}

	return xdg
}

// ConfigHome returns the base directory for user-specific configuration files
func (x *XDGDirs) ConfigHome() string {
	return x.configHome
}

// ConfigDirs returns the preference-ordered base directories for configuration files
func (x *XDGDirs) ConfigDirs() []string {
	return append([]string{x.configHome}, x.configDirs...)
}

// AppConfigDir returns the application-specific config directory
func (x *XDGDirs) AppConfigDir(appName string) string {
	return filepath.Join(x.configHome, appName)
}

// EnsureDir creates the directory if it doesn't exist
func (x *XDGDirs) EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
