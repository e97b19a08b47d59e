package termgath

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/programme-lv/cpmaker/internal/pipeline"
	"github.com/programme-lv/cpmaker/internal/testcase"
)

var (
	good = color.New(color.FgGreen).SprintFunc()
	bad  = color.New(color.FgRed).SprintFunc()
	warn = color.New(color.FgYellow).SprintFunc()
	bold = color.New(color.Bold).SprintFunc()
)

// TerminalGatherer prints human readable progress.
type TerminalGatherer struct {
	StartedAt time.Time
	// Verbose also prints every test a solution reaches.
	Verbose bool

	out       io.Writer
	job       string
	summaries []*pipeline.Summary
	mu        sync.Mutex
}

var _ pipeline.Reporter = (*TerminalGatherer)(nil)

func New() *TerminalGatherer { return NewWriter(os.Stdout) }

func NewWriter(w io.Writer) *TerminalGatherer {
	return &TerminalGatherer{StartedAt: time.Now(), out: w}
}

func (t *TerminalGatherer) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func (t *TerminalGatherer) StartJob(job string, problem string) {
	t.mu.Lock()
	t.job = job
	t.summaries = nil
	t.StartedAt = time.Now()
	t.mu.Unlock()
	t.printf("== %s started: %s ==\n", bold(job), problem)
}

func (t *TerminalGatherer) GenerateCase(key testcase.Key, input []byte, answer []byte) {
	t.printf("-> %s generated (%d B in, %d B out)\n", key.Stem(), len(input), len(answer))
}

func (t *TerminalGatherer) ReachTest(solution string, key testcase.Key) {
	if !t.Verbose {
		return
	}
	t.printf("-> [%s] %s reached\n", solution, key.Stem())
}

func statusColor(st pipeline.JudgeStatus) string {
	switch st {
	case pipeline.Accepted:
		return good(st)
	case pipeline.TimeLimitExceeded:
		return warn(st)
	default:
		return bad(st)
	}
}

func (t *TerminalGatherer) FinishTest(res *pipeline.CaseResult) {
	var b strings.Builder
	fmt.Fprintf(&b, "<- [%s] %s %s", res.Solution, res.Key.Stem(), statusColor(res.Status))
	if res.HasRun {
		fmt.Fprintf(&b, " wall=%dms mem=%.0fMiB", res.Elapsed.Milliseconds(), res.MemoryMiB)
	}
	b.WriteByte('\n')
	if res.Status != pipeline.Accepted && res.CheckerMessage != "" {
		line, _, _ := strings.Cut(strings.TrimSpace(res.CheckerMessage), "\n")
		fmt.Fprintf(&b, "  chkr: %s\n", line)
	}
	t.printf("%s", b.String())
}

func (t *TerminalGatherer) FinishSolution(sum *pipeline.Summary) {
	var b strings.Builder
	mark := good("OK")
	if !sum.OK() {
		mark = bad("FAILED")
	}
	fmt.Fprintf(&b, "-- %s %s: %s --\n", bold(sum.Solution), mark, sum.String())
	for _, msg := range sum.Errors {
		fmt.Fprintf(&b, "  %s\n", bad(msg))
	}
	t.printf("%s", b.String())

	t.mu.Lock()
	t.summaries = append(t.summaries, sum)
	t.mu.Unlock()
}

func (t *TerminalGatherer) FinishJob(err error) {
	t.mu.Lock()
	job := t.job
	sums := slices.Clone(t.summaries)
	started := t.StartedAt
	t.mu.Unlock()
	if len(sums) > 0 {
		t.printf("%s\n", renderSummaries(sums))
	}
	if err != nil {
		t.printf("== %s failed: %s ==\n", job, bad(err.Error()))
		return
	}
	dur := time.Since(started).Round(time.Millisecond)
	t.printf("== %s finished in %s ==\n", job, dur)
}

// renderSummaries draws one row per solution, sorted by name.
func renderSummaries(sums []*pipeline.Summary) string {
	slices.SortFunc(sums, func(a, b *pipeline.Summary) int {
		return strings.Compare(a.Solution, b.Solution)
	})

	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Solution", "Result", "Summary"})
	for _, sum := range sums {
		result := good("OK")
		if !sum.OK() {
			result = bad("FAILED")
		}
		tw.AppendRow(table.Row{sum.Solution, result, sum.String()})
	}
	tw.SetStyle(table.StyleLight)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Result", Align: text.AlignCenter},
	})
	return tw.Render()
}
