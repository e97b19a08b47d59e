// Package api defines the JSON messages cpmaker streams while it generates
// test cases and judges solutions.
package api

import "time"

// MsgType is a message type for streaming progress
type MsgType string

// Streaming message type constants
const (
	StartJobMsg       MsgType = "job_start"
	GenerateCaseMsg   MsgType = "case_generate"
	ReachTestMsg      MsgType = "test_reach"
	FinishTestMsg     MsgType = "test_finish"
	FinishSolutionMsg MsgType = "solution_finish"
	FinishJobMsg      MsgType = "job_finish"
)

// Size constraints for file previews and program output in messages
const (
	MaxPreviewHeight = 40
	MaxPreviewWidth  = 80
)

// Header is the common header for all streaming messages
type Header struct {
	RunUuid string  `json:"run_uuid"`
	MsgType MsgType `json:"msg_type"`
}

// StartJob message sent when a command begins
type StartJob struct {
	Header
	Job         string `json:"job"`
	Problem     string `json:"problem"`
	StartedTime string `json:"started_time"`
}

// GenerateCase message sent when a test case and its answer are written
type GenerateCase struct {
	Header
	Group  string  `json:"group"`
	Index  int     `json:"index"`
	Input  *string `json:"input"`
	Answer *string `json:"answer"`
}

// ReachTest message sent when a solution starts on a test case
type ReachTest struct {
	Header
	Solution string `json:"solution"`
	Group    string `json:"group"`
	Index    int    `json:"index"`
}

// FinishTest message sent when a solution has been judged on a test case.
// Measurements are null when the solution was killed.
type FinishTest struct {
	Header
	Solution       string  `json:"solution"`
	Group          string  `json:"group"`
	Index          int     `json:"index"`
	Status         string  `json:"status"`
	WallMillis     *int64  `json:"wall_ms"`
	MemoryKiBytes  *int64  `json:"mem_kib"`
	CheckerMessage *string `json:"checker_message"`
}

// FinishSolution message sent when a solution has been judged on every
// test case. MaxWallMillis is null once any test timed out.
type FinishSolution struct {
	Header
	Solution         string         `json:"solution"`
	StatusCounts     map[string]int `json:"status_counts"`
	MaxWallMillis    *int64         `json:"max_wall_ms"`
	MaxMemoryKiBytes int64          `json:"max_mem_kib"`
	Errors           []string       `json:"errors"`
}

// FinishJob message sent when a command completes
type FinishJob struct {
	Header
	ErrorMessage *string `json:"error_message"`
}

// Helper function to create a header
func NewHeader(runUuid string, msgType MsgType) Header {
	return Header{
		RunUuid: runUuid,
		MsgType: msgType,
	}
}

func NewStartJob(runUuid, job, problem string) StartJob {
	return StartJob{
		Header:      NewHeader(runUuid, StartJobMsg),
		Job:         job,
		Problem:     problem,
		StartedTime: time.Now().Format(time.RFC3339),
	}
}

func NewGenerateCase(runUuid, group string, index int, input, answer *string) GenerateCase {
	return GenerateCase{
		Header: NewHeader(runUuid, GenerateCaseMsg),
		Group:  group,
		Index:  index,
		Input:  input,
		Answer: answer,
	}
}

func NewReachTest(runUuid, solution, group string, index int) ReachTest {
	return ReachTest{
		Header:   NewHeader(runUuid, ReachTestMsg),
		Solution: solution,
		Group:    group,
		Index:    index,
	}
}

func NewFinishTest(runUuid, solution, group string, index int, status string) FinishTest {
	return FinishTest{
		Header:   NewHeader(runUuid, FinishTestMsg),
		Solution: solution,
		Group:    group,
		Index:    index,
		Status:   status,
	}
}

func NewFinishSolution(runUuid, solution string, counts map[string]int, errors []string) FinishSolution {
	return FinishSolution{
		Header:       NewHeader(runUuid, FinishSolutionMsg),
		Solution:     solution,
		StatusCounts: counts,
		Errors:       errors,
	}
}

func NewFinishJob(runUuid string, errorMessage *string) FinishJob {
	return FinishJob{
		Header:       NewHeader(runUuid, FinishJobMsg),
		ErrorMessage: errorMessage,
	}
}
