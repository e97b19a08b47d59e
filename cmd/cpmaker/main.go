package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docker/docker/pkg/reexec"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/programme-lv/cpmaker/internal/config"
	"github.com/programme-lv/cpmaker/internal/environment"
	"github.com/urfave/cli/v3"
)

func main() {
	// memory capped children start as a copy of this binary
	if reexec.Init() {
		return
	}

	env, err := environment.ReadEnvConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read environment: %v\n", err)
		os.Exit(1)
	}
	setupLogger(env.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(env).Run(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func setupLogger(level slog.Level) {
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	slog.SetDefault(slog.New(handler))
}

func newApp(env *environment.EnvConfig) *cli.Command {
	a := &app{env: env}
	return &cli.Command{
		Name:  "cpmaker",
		Usage: "tools for creating competitive programming problems",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
				Value: env.LogLevel.String(),
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to the global configuration",
				Value: config.GlobalPath(),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			var level slog.Level
			if err := level.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
				return ctx, fmt.Errorf("invalid log level: %w", err)
			}
			setupLogger(level)
			a.globalConfig = cmd.String("config")
			return ctx, nil
		},
		Commands: []*cli.Command{
			a.initCommand(),
			a.configCommand(),
			a.genParamsCommand(),
			a.genCasesCommand(),
			a.checkCommand(),
			a.testCommand(),
			a.seedCommand(),
			a.archiveCommand(),
		},
	}
}
