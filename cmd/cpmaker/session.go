package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/programme-lv/cpmaker/internal/config"
	"github.com/programme-lv/cpmaker/internal/environment"
	"github.com/programme-lv/cpmaker/internal/gatherer/natsgath"
	"github.com/programme-lv/cpmaker/internal/gatherer/termgath"
	"github.com/programme-lv/cpmaker/internal/pipeline"
	"github.com/programme-lv/cpmaker/internal/project"
)

const flushTimeout = 5 * time.Second

type app struct {
	env          *environment.EnvConfig
	globalConfig string
}

// session is an opened problem together with the reporters of one run.
type session struct {
	project  *project.Project
	tool     *config.Tool
	problem  *config.Problem
	pipeline *pipeline.Pipeline
	term     *termgath.TerminalGatherer
	nc       *nats.Conn
}

type sessionOptions struct {
	path     string
	noStderr bool
	verbose  bool
}

func (a *app) open(opts sessionOptions) (*session, error) {
	proj, tool, err := project.Open(opts.path, true, a.globalConfig)
	if err != nil {
		return nil, err
	}
	problem, err := proj.LoadProblem()
	if err != nil {
		return nil, err
	}

	s := &session{project: proj, tool: tool, problem: problem, term: termgath.New()}
	s.term.Verbose = opts.verbose
	reporters := pipeline.Reporters{s.term}

	if a.env.NatsURL != "" {
		nc, err := nats.Connect(a.env.NatsURL, nats.Name("cpmaker"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to nats at %s: %w", a.env.NatsURL, err)
		}
		s.nc = nc
		runUuid := uuid.NewString()
		slog.Info("streaming progress", "subject", a.env.NatsSubject, "run_uuid", runUuid)
		reporters = append(reporters, natsgath.New(nc, runUuid, a.env.NatsSubject))
	}

	pipeOpts := []pipeline.Option{pipeline.WithReporter(reporters)}
	if opts.noStderr {
		pipeOpts = append(pipeOpts, pipeline.WithStderr(io.Discard))
	}
	s.pipeline, err = pipeline.New(proj, tool, problem, pipeOpts...)
	if err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

// close flushes pending progress messages.
func (s *session) close() {
	if s.nc == nil {
		return
	}
	if err := s.nc.FlushTimeout(flushTimeout); err != nil {
		slog.Warn("failed to flush nats connection", "error", err)
	}
	s.nc.Close()
}
