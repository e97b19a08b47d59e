package pipeline

import "github.com/programme-lv/cpmaker/internal/testcase"

// Reporter receives progress events. Check may judge several solutions at
// once, so implementations must be safe for concurrent use.
type Reporter interface {
	StartJob(job string, problem string)

	// GenerateCase follows a successfully generated, verified and answered
	// test case. input and answer hold at most the first few KiB.
	GenerateCase(key testcase.Key, input []byte, answer []byte)

	ReachTest(solution string, key testcase.Key)
	FinishTest(res *CaseResult)
	FinishSolution(sum *Summary)

	// FinishJob is called once; err is nil when the job succeeded.
	FinishJob(err error)
}

type nopReporter struct{}

func (nopReporter) StartJob(string, string) {}
func (nopReporter) GenerateCase(testcase.Key, []byte, []byte) {}
func (nopReporter) ReachTest(string, testcase.Key) {}
func (nopReporter) FinishTest(*CaseResult) {}
func (nopReporter) FinishSolution(*Summary) {}
func (nopReporter) FinishJob(error) {}

// Reporters fans every event out to all of its members.
type Reporters []Reporter

func (rs Reporters) StartJob(job string, problem string) {
	for _, r := range rs {
		r.StartJob(job, problem)
	}
}

func (rs Reporters) GenerateCase(key testcase.Key, input []byte, answer []byte) {
	for _, r := range rs {
		r.GenerateCase(key, input, answer)
	}
}

func (rs Reporters) ReachTest(solution string, key testcase.Key) {
	for _, r := range rs {
		r.ReachTest(solution, key)
	}
}

func (rs Reporters) FinishTest(res *CaseResult) {
	for _, r := range rs {
		r.FinishTest(res)
	}
}

func (rs Reporters) FinishSolution(sum *Summary) {
	for _, r := range rs {
		r.FinishSolution(sum)
	}
}

func (rs Reporters) FinishJob(err error) {
	for _, r := range rs {
		r.FinishJob(err)
	}
}
