package natsgath

import (
	"strings"
)

// trimStrToRect keeps at most maxHeight lines of at most maxWidth bytes,
// marking every cut with "[...]".
func trimStrToRect(s string, maxHeight int, maxWidth int) string {
	if s == "" {
		return ""
	}
	var res strings.Builder
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	cut := len(lines) > maxHeight
	if cut {
		lines = lines[:maxHeight]
	}
	for i, line := range lines {
		if i > 0 {
			res.WriteByte('\n')
		}
		if len(line) > maxWidth {
			res.WriteString(line[:maxWidth])
			res.WriteString("[...]")
		} else {
			res.WriteString(line)
		}
	}
	if cut {
		res.WriteString("\n[...]")
	}
	return res.String()
}

// trimmedPtr trims s and returns nil when nothing is left.
func trimmedPtr(s string) *string {
	t := trimStrToRect(s, maxHeight, maxWidth)
	if t == "" {
		return nil
	}
	return &t
}
