package config

import (
	"fmt"
	"time"
)

// Policy says how a solution is allowed to behave for one kind of failure.
type Policy string

const (
	PolicyNever    Policy = "never"
	PolicyAllow    Policy = "allow"
	PolicyExpected Policy = "expected"
)

func (p Policy) valid() bool {
	switch p {
	case PolicyNever, PolicyAllow, PolicyExpected:
		return true
	}
	return false
}

// Problem mirrors problem.toml.
type Problem struct {
	Title string `toml:"title"`
	// TimeLimit is in seconds.
	TimeLimit float64 `toml:"timelimit"`
	// MemoryLimit is in MiB, nil means unlimited.
	MemoryLimit *int       `toml:"memorylimit"`
	Tests       []Test     `toml:"tests"`
	Solutions   []Solution `toml:"solutions"`
	// Params are constants shared by generators, verifier, checker and
	// solutions. Values are int64, float64 or string.
	Params map[string]any `toml:"params"`
}

// Test is a group of test cases produced by one generator.
type Test struct {
	Name   string `toml:"name"`
	Number int    `toml:"number"`
}

type Solution struct {
	Name     string `toml:"name"`
	Expected bool   `toml:"expected"`
	TLE      Policy `toml:"tle"`
	WA       Policy `toml:"wa"`
	RE       Policy `toml:"re"`
}

func (p *Problem) applyDefaults() {
	for i := range p.Solutions {
		s := &p.Solutions[i]
		if s.TLE == "" {
			s.TLE = PolicyNever
		}
		if s.WA == "" {
			s.WA = PolicyNever
		}
		if s.RE == "" {
			s.RE = PolicyNever
		}
	}
}

func (p *Problem) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if p.TimeLimit <= 0 {
		return fmt.Errorf("timelimit must be positive, got %v", p.TimeLimit)
	}
	if p.MemoryLimit != nil && *p.MemoryLimit <= 0 {
		return fmt.Errorf("memorylimit must be positive, got %d", *p.MemoryLimit)
	}
	if len(p.Tests) == 0 {
		return fmt.Errorf("at least one test group is required")
	}
	for _, t := range p.Tests {
		if t.Name == "" {
			return fmt.Errorf("test group name is required")
		}
		if t.Number < 1 {
			return fmt.Errorf("test group %q: number must be at least 1, got %d", t.Name, t.Number)
		}
	}

	expected := 0
	for _, s := range p.Solutions {
		if s.Name == "" {
			return fmt.Errorf("solution name is required")
		}
		for kind, policy := range map[string]Policy{"tle": s.TLE, "wa": s.WA, "re": s.RE} {
			if !policy.valid() {
				return fmt.Errorf("solution %q: %s policy must be never, allow or expected, got %q", s.Name, kind, policy)
			}
		}
		if !s.Expected {
			continue
		}
		expected++
		if s.TLE != PolicyNever || s.WA != PolicyNever || s.RE != PolicyNever {
			return fmt.Errorf("solution %q: the expected solution must have every policy set to never", s.Name)
		}
	}
	if expected != 1 {
		return fmt.Errorf("there must be exactly one expected solution, found %d", expected)
	}

	for name, v := range p.Params {
		switch v.(type) {
		case int64, float64, string:
		default:
			return fmt.Errorf("param %q must be an integer, a float or a string, got %T", name, v)
		}
	}
	return nil
}

// ExpectedSolution returns the reference solution. Validate guarantees
// there is exactly one.
func (p *Problem) ExpectedSolution() Solution {
	for _, s := range p.Solutions {
		if s.Expected {
			return s
		}
	}
	return Solution{}
}

// Solution looks a solution up by file name.
func (p *Problem) Solution(name string) (Solution, bool) {
	for _, s := range p.Solutions {
		if s.Name == name {
			return s, true
		}
	}
	return Solution{}, false
}

func (p *Problem) TimeLimitDuration() time.Duration {
	return time.Duration(p.TimeLimit * float64(time.Second))
}

// MemoryLimitMiB returns the memory cap, 0 when unlimited.
func (p *Problem) MemoryLimitMiB() int {
	if p.MemoryLimit == nil {
		return 0
	}
	return *p.MemoryLimit
}
