package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/programme-lv/cpmaker/internal/xdg"
)

const appName = "cpmaker"

// GlobalPath is where the user-wide configuration lives.
func GlobalPath() string {
	return filepath.Join(xdg.NewXDGDirs().AppConfigDir(appName), "config.toml")
}

// LoadTool returns the defaults overlaid with globalPath and then with
// localPath. Files that do not exist are skipped, empty paths too.
func LoadTool(globalPath, localPath string) (*Tool, error) {
	tool := DefaultTool()
	for _, path := range []string{globalPath, localPath} {
		if path == "" {
			continue
		}
		found, err := decodeFile(path, &tool)
		if err != nil {
			return nil, err
		}
		if found {
			slog.Debug("loaded tool configuration", "path", path)
		}
	}
	if err := tool.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tool configuration: %w", err)
	}
	return &tool, nil
}

// LoadProblem reads and validates problem.toml.
func LoadProblem(path string) (*Problem, error) {
	problem := Problem{TimeLimit: 2.0}
	found, err := decodeFile(path, &problem)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("problem configuration %s does not exist", path)
	}
	problem.applyDefaults()
	if err := problem.Validate(); err != nil {
		return nil, fmt.Errorf("invalid problem configuration %s: %w", path, err)
	}
	return &problem, nil
}

// decodeFile overlays the TOML file at path onto dst. Keys that dst does
// not know are rejected.
func decodeFile(path string, dst any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := decode(data, dst); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return true, nil
}

func decode(data []byte, dst any) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return fmt.Errorf("unknown keys:\n%s", strictErr.String())
		}
		return err
	}
	return nil
}
