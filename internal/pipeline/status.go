package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/programme-lv/cpmaker/internal/config"
	"github.com/programme-lv/cpmaker/internal/testcase"
)

// JudgeStatus is the outcome of one solution on one test case.
type JudgeStatus string

const (
	Accepted          JudgeStatus = "AC"
	WrongAnswer       JudgeStatus = "WA"
	RuntimeError      JudgeStatus = "RE"
	TimeLimitExceeded JudgeStatus = "TLE"
	PresentationError JudgeStatus = "PE"
	Fail              JudgeStatus = "FAIL"
)

// statusOrder is the order statuses appear in summaries.
var statusOrder = []JudgeStatus{Accepted, WrongAnswer, RuntimeError, TimeLimitExceeded, PresentationError, Fail}

// CaseResult is reported after every judged test case. Elapsed and
// MemoryMiB are only meaningful when HasRun is set; a solver killed on
// timeout has no measurements.
type CaseResult struct {
	Solution  string
	Key       testcase.Key
	Status    JudgeStatus
	HasRun    bool
	Elapsed   time.Duration
	MemoryMiB float64
	// CheckerMessage is what the checker printed to stderr, usually the
	// reason for a rejection.
	CheckerMessage string
}

func (r *CaseResult) String() string {
	if !r.HasRun {
		return fmt.Sprintf("Status = %s, Time = N/A ms, Memory = N/A MiB", r.Status)
	}
	return fmt.Sprintf("Status = %s, Time = %d ms, Memory = %.0f MiB",
		r.Status, r.Elapsed.Milliseconds(), r.MemoryMiB)
}

// Summary aggregates the results of one solution over all test cases.
type Summary struct {
	Solution     string
	Counts       map[JudgeStatus]int
	MaxTime      time.Duration
	MaxMemoryMiB float64
	// Errors lists policy violations. A solution behaved as configured
	// when it is empty.
	Errors []string
}

func newSummary(solution string) *Summary {
	return &Summary{Solution: solution, Counts: make(map[JudgeStatus]int)}
}

func (s *Summary) add(r *CaseResult) {
	s.Counts[r.Status]++
	if !r.HasRun {
		return
	}
	s.MaxTime = max(s.MaxTime, r.Elapsed)
	s.MaxMemoryMiB = max(s.MaxMemoryMiB, r.MemoryMiB)
}

// String renders e.g. "Status={AC:9, TLE:1}, Time=N/A ms, Memory=12 MiB".
// The time is not meaningful once a test timed out.
func (s *Summary) String() string {
	var counts []string
	for _, st := range statusOrder {
		if n := s.Counts[st]; n > 0 {
			counts = append(counts, fmt.Sprintf("%s:%d", st, n))
		}
	}
	timeStr := fmt.Sprintf("%d ms", s.MaxTime.Milliseconds())
	if s.Counts[TimeLimitExceeded] > 0 {
		timeStr = "N/A ms"
	}
	return fmt.Sprintf("Status={%s}, Time=%s, Memory=%.0f MiB",
		strings.Join(counts, ", "), timeStr, s.MaxMemoryMiB)
}

// OK reports whether the solution matched its policies.
func (s *Summary) OK() bool {
	return len(s.Errors) == 0
}

// evaluate checks the counts against the wa, tle and re policies.
func (s *Summary) evaluate(sol config.Solution) {
	s.Errors = nil
	for _, p := range []struct {
		key    string
		status JudgeStatus
		policy config.Policy
	}{
		{"wa", WrongAnswer, sol.WA},
		{"tle", TimeLimitExceeded, sol.TLE},
		{"re", RuntimeError, sol.RE},
	} {
		seen := s.Counts[p.status] > 0
		switch {
		case p.policy == config.PolicyNever && seen:
			s.Errors = append(s.Errors, fmt.Sprintf("'%s' is set to 'never', but there is %s", p.key, p.status))
		case p.policy == config.PolicyExpected && !seen:
			s.Errors = append(s.Errors, fmt.Sprintf("'%s' is set to 'expected', but there is no %s", p.key, p.status))
		}
	}
}
