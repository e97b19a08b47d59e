package checker

import (
	"fmt"
)

type Verdict int

const (
	Accepted Verdict = iota
	WrongAnswer
	PresentationError
	Fail
)

var verdictNames = map[Verdict]string{
	Accepted:          "AC",
	WrongAnswer:       "WA",
	PresentationError: "PE",
	Fail:              "FAIL",
}

func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// ExitCodes maps checker exit codes to verdicts. The defaults follow testlib.
type ExitCodes struct {
	AC   int `toml:"AC"`
	WA   int `toml:"WA"`
	PE   int `toml:"PE"`
	FAIL int `toml:"FAIL"`
}

func DefaultExitCodes() ExitCodes {
	return ExitCodes{AC: 0, WA: 1, PE: 2, FAIL: 3}
}

// Validate requires four pairwise distinct codes that a process can
// actually exit with. Negative values are what Go reports for signal
// deaths and can never come from the checker itself.
func (c ExitCodes) Validate() error {
	seen := make(map[int]string, 4)
	for _, e := range c.entries() {
		if e.code < 0 || e.code > 255 {
			return fmt.Errorf("exit code for %s must be within 0..255, got %d", e.name, e.code)
		}
		if other, dup := seen[e.code]; dup {
			return fmt.Errorf("exit codes must be unique: %s and %s both use %d", other, e.name, e.code)
		}
		seen[e.code] = e.name
	}
	return nil
}

// Lookup returns the verdict for an exit code. A code that is not in the
// table is an error, never a guess.
func (c ExitCodes) Lookup(code int) (Verdict, error) {
	for _, e := range c.entries() {
		if e.code == code {
			return e.verdict, nil
		}
	}
	return 0, &UnmappedExitCodeError{Code: code}
}

type exitCodeEntry struct {
	name    string
	code    int
	verdict Verdict
}

func (c ExitCodes) entries() []exitCodeEntry {
	return []exitCodeEntry{
		{"AC", c.AC, Accepted},
		{"WA", c.WA, WrongAnswer},
		{"PE", c.PE, PresentationError},
		{"FAIL", c.FAIL, Fail},
	}
}

type UnmappedExitCodeError struct {
	Code int
}

func (e *UnmappedExitCodeError) Error() string {
	return fmt.Sprintf("checker exited with unmapped code %d", e.Code)
}
