// Package memwatch tracks the peak resident memory of a running process
// by polling procfs.
package memwatch

import (
	"sync"
	"time"

	"github.com/prometheus/procfs"
)

// DefaultInterval is the polling period. Keep it well under 50ms so that
// short-lived solutions still get at least a few samples.
const DefaultInterval = 10 * time.Millisecond

type Option func(*Sampler)

// WithInterval overrides the polling period.
func WithInterval(d time.Duration) Option {
	return func(s *Sampler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// SkipWhileArg0 makes the sampler ignore samples taken while the process
// command line still starts with arg0. Used when the watched pid first runs
// a launcher that execs into the real program.
func SkipWhileArg0(arg0 string) Option {
	return func(s *Sampler) {
		s.skipArg0 = arg0
	}
}

type Sampler struct {
	pid      int
	interval time.Duration
	skipArg0 string

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	peakBytes uint64
}

// Start begins sampling pid in a background goroutine. Call Stop to end
// sampling and get the peak.
func Start(pid int, opts ...Option) *Sampler {
	s := &Sampler{
		pid:      pid,
		interval: DefaultInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.loop()
	return s
}

// Stop signals the sampling goroutine, waits for it and returns the peak
// resident memory in MiB. It returns 0 if no sample could be taken.
// Stop may be called more than once.
func (s *Sampler) Stop() float64 {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	return float64(s.peakBytes) / (1 << 20)
}

// Done is closed when sampling has ended, either because Stop was called
// or because the process could no longer be read.
func (s *Sampler) Done() <-chan struct{} {
	return s.done
}

func (s *Sampler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if !s.sample() {
			return
		}
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}
	}
}

// sample reads the process status once. It reports false when the process
// is gone or unreadable, which ends the sampling.
func (s *Sampler) sample() bool {
	proc, err := procfs.NewProc(s.pid)
	if err != nil {
		return false
	}
	if s.skipArg0 != "" {
		cmdline, err := proc.CmdLine()
		if err != nil {
			return false
		}
		if len(cmdline) > 0 && cmdline[0] == s.skipArg0 {
			return true
		}
		// exec replaces the command line, the launcher never comes back
		s.skipArg0 = ""
	}
	status, err := proc.NewStatus()
	if err != nil {
		return false
	}
	peak := max(status.VmRSS, status.VmHWM)
	if peak > s.peakBytes {
		s.peakBytes = peak
	}
	return true
}
