package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Get renders the value under a dotted key, like "language.cpp.flags", of
// the configuration made of the defaults and the global file. The key "."
// renders everything.
func Get(globalPath, key string) (string, error) {
	tool, err := LoadTool(globalPath, "")
	if err != nil {
		return "", err
	}
	tree, err := toTree(tool)
	if err != nil {
		return "", err
	}

	var node any = tree
	for _, part := range splitKey(key) {
		table, ok := node.(map[string]any)
		if !ok {
			return "", fmt.Errorf("key %q does not name a table", key)
		}
		node, ok = table[part]
		if !ok {
			return "", fmt.Errorf("unknown key %q", key)
		}
	}

	if table, ok := node.(map[string]any); ok {
		out, err := toml.Marshal(table)
		if err != nil {
			return "", fmt.Errorf("failed to render %q: %w", key, err)
		}
		return string(out), nil
	}
	out, err := toml.Marshal(map[string]any{"v": node})
	if err != nil {
		return "", fmt.Errorf("failed to render %q: %w", key, err)
	}
	return strings.TrimSpace(strings.TrimPrefix(string(out), "v = ")), nil
}

// Set stores value under the dotted key in the global file and leaves the
// other entries of that file alone. The value is read as a TOML value when
// possible, as a plain string otherwise.
func Set(globalPath, key, value string) error {
	parts := splitKey(key)
	if len(parts) == 0 {
		return fmt.Errorf("a key is required to set a value")
	}

	tree := map[string]any{}
	data, err := os.ReadFile(globalPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read %s: %w", globalPath, err)
	}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("failed to parse %s: %w", globalPath, err)
		}
	}

	table := tree
	for _, part := range parts[:len(parts)-1] {
		next, ok := table[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			table[part] = next
		}
		table = next
	}
	table[parts[len(parts)-1]] = parseValue(value)

	out, err := toml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	check := DefaultTool()
	if err := decode(out, &check); err != nil {
		return fmt.Errorf("invalid key %q: %w", key, err)
	}
	if err := check.Validate(); err != nil {
		return fmt.Errorf("invalid value for %q: %w", key, err)
	}

	if err := os.MkdirAll(filepath.Dir(globalPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(globalPath, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", globalPath, err)
	}
	return nil
}

func parseValue(value string) any {
	var doc struct {
		V any `toml:"v"`
	}
	if err := toml.Unmarshal([]byte("v = "+value), &doc); err != nil || doc.V == nil {
		return value
	}
	return doc.V
}

func toTree(tool *Tool) (map[string]any, error) {
	raw, err := toml.Marshal(tool)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	tree := map[string]any{}
	if err := toml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return tree, nil
}

func splitKey(key string) []string {
	if key == "." || key == "" {
		return nil
	}
	return strings.Split(key, ".")
}
