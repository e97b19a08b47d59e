// Package params renders the [params] table of problem.toml as a C++
// header or a Python module so that every program of the problem can share
// the same constants.
package params

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/programme-lv/cpmaker/internal/config"
)

const includeGuard = "CP_PROBLEM_MAKER_PARAMS_H"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Render returns the params file contents for lang. Names are emitted in
// sorted order.
func Render(params map[string]any, lang string) (string, error) {
	if lang != config.LangCpp && lang != config.LangPython {
		return "", fmt.Errorf("unknown language: %s", lang)
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	slices.Sort(names)

	var lines []string
	if lang == config.LangCpp {
		lines = append(lines, "#ifndef "+includeGuard, "#define "+includeGuard)
	}
	for _, name := range names {
		if !identifier.MatchString(name) {
			return "", fmt.Errorf("param %q is not a valid identifier", name)
		}
		value, err := formatValue(params[name])
		if err != nil {
			return "", fmt.Errorf("param %q: %w", name, err)
		}
		if lang == config.LangCpp {
			lines = append(lines, fmt.Sprintf("#define %s %s", name, value))
		} else {
			lines = append(lines, fmt.Sprintf("%s = %s", name, value))
		}
	}
	if lang == config.LangCpp {
		lines = append(lines, "#endif")
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n"), nil
}

// Write renders params into path, replacing the file.
func Write(path string, params map[string]any, lang string) error {
	content, err := Render(params, lang)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write params file: %w", err)
	}
	return nil
}

func formatValue(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	case float64:
		return formatFloat(v), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// formatFloat keeps a decimal point on integral values so that C++ sees
// a double, and switches to exponent notation for very small or very large
// magnitudes.
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
