package natsgath

import (
	"github.com/programme-lv/cpmaker/api"
	"github.com/programme-lv/cpmaker/internal/pipeline"
	"github.com/programme-lv/cpmaker/internal/testcase"
)

const (
	maxHeight = api.MaxPreviewHeight
	maxWidth  = api.MaxPreviewWidth
)

// NatsGatherer publishes pipeline events as JSON messages.
type NatsGatherer struct {
	pub     publisher
	subject string
	runUuid string
}

var _ pipeline.Reporter = (*NatsGatherer)(nil)

func (s *NatsGatherer) StartJob(job string, problem string) {
	s.send(api.NewStartJob(s.runUuid, job, problem))
}

func (s *NatsGatherer) GenerateCase(key testcase.Key, input []byte, answer []byte) {
	s.send(api.NewGenerateCase(s.runUuid, key.Group, key.Index,
		trimmedPtr(string(input)), trimmedPtr(string(answer))))
}

func (s *NatsGatherer) ReachTest(solution string, key testcase.Key) {
	s.send(api.NewReachTest(s.runUuid, solution, key.Group, key.Index))
}

func (s *NatsGatherer) FinishTest(res *pipeline.CaseResult) {
	msg := api.NewFinishTest(s.runUuid, res.Solution, res.Key.Group, res.Key.Index, string(res.Status))
	if res.HasRun {
		wall := res.Elapsed.Milliseconds()
		mem := mibToKiB(res.MemoryMiB)
		msg.WallMillis = &wall
		msg.MemoryKiBytes = &mem
	}
	msg.CheckerMessage = trimmedPtr(res.CheckerMessage)
	s.send(msg)
}

func (s *NatsGatherer) FinishSolution(sum *pipeline.Summary) {
	counts := make(map[string]int, len(sum.Counts))
	for st, n := range sum.Counts {
		counts[string(st)] = n
	}
	msg := api.NewFinishSolution(s.runUuid, sum.Solution, counts, sum.Errors)
	if sum.Counts[pipeline.TimeLimitExceeded] == 0 {
		wall := sum.MaxTime.Milliseconds()
		msg.MaxWallMillis = &wall
	}
	msg.MaxMemoryKiBytes = mibToKiB(sum.MaxMemoryMiB)
	s.send(msg)
}

func (s *NatsGatherer) FinishJob(err error) {
	var errMsg *string
	if err != nil {
		m := err.Error()
		errMsg = &m
	}
	s.send(api.NewFinishJob(s.runUuid, errMsg))
}

func mibToKiB(mib float64) int64 {
	return int64(mib * 1024)
}
