package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/programme-lv/cpmaker/internal/archive"
	"github.com/programme-lv/cpmaker/internal/config"
	"github.com/programme-lv/cpmaker/internal/pipeline"
	"github.com/programme-lv/cpmaker/internal/project"
	"github.com/programme-lv/cpmaker/internal/testcase"
	"github.com/urfave/cli/v3"
)

func pathFlag() cli.Flag {
	return &cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "path to the project"}
}

func noStderrFlag() cli.Flag {
	return &cli.BoolFlag{Name: "no-stderr", Usage: "suppress stderr of the solver and the checker"}
}

func interactiveFlag() cli.Flag {
	return &cli.BoolFlag{Name: "interactive", Aliases: []string{"i"}, Usage: "use the checker as an interactive judge"}
}

func solverFlag() cli.Flag {
	return &cli.StringFlag{Name: "solver", Aliases: []string{"s"}, Usage: "path to the answer generator"}
}

func jobsFlag() cli.Flag {
	return &cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Value: 1, Usage: "number of solutions judged at once"}
}

func (a *app) initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "create the skeleton of a problem",
		Flags: []cli.Flag{
			pathFlag(),
			&cli.BoolFlag{Name: "search-root", Usage: "search for the root of the project"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			proj, _, err := project.Open(cmd.String("path"), cmd.Bool("search-root"), a.globalConfig)
			if err != nil {
				return err
			}
			return proj.Init()
		},
	}
}

func (a *app) configCommand() *cli.Command {
	return &cli.Command{
		Name:      "config",
		Usage:     "get or change the global settings",
		ArgsUsage: "<key> [value]",
		Description: "Keys are written like 'language.cpp.flags'. " +
			"The key '.' shows the whole configuration.",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			switch args.Len() {
			case 1:
				out, err := config.Get(a.globalConfig, args.Get(0))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.Root().Writer, out)
				return nil
			case 2:
				slog.Info("setting configuration", "key", args.Get(0), "value", args.Get(1), "path", a.globalConfig)
				return config.Set(a.globalConfig, args.Get(0), args.Get(1))
			default:
				return errors.New("expected a key and an optional value")
			}
		},
	}
}

func (a *app) genParamsCommand() *cli.Command {
	return &cli.Command{
		Name:  "gen-params",
		Usage: "write the parameter header of the problem",
		Flags: []cli.Flag{pathFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := a.open(sessionOptions{path: cmd.String("path")})
			if err != nil {
				return err
			}
			defer s.close()
			return s.pipeline.GenParams()
		},
	}
}

func (a *app) genCasesCommand() *cli.Command {
	return &cli.Command{
		Name:  "gen-cases",
		Usage: "generate the test cases and their answers",
		Flags: []cli.Flag{
			pathFlag(),
			&cli.BoolFlag{Name: "error-on-unused", Usage: "fail on unused generators"},
			&cli.BoolFlag{Name: "no-update-params", Usage: "do not update the parameters"},
			&cli.BoolFlag{Name: "no-check", Usage: "do not check the expected solution"},
			interactiveFlag(),
			solverFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := a.open(sessionOptions{path: cmd.String("path")})
			if err != nil {
				return err
			}
			defer s.close()

			if !cmd.Bool("no-update-params") {
				if err := s.pipeline.GenParams(); err != nil {
					return err
				}
			}
			return s.pipeline.GenCases(ctx, pipeline.GenOptions{
				Solver:        cmd.String("solver"),
				ErrorOnUnused: cmd.Bool("error-on-unused"),
				Interactive:   cmd.Bool("interactive"),
				NoCheck:       cmd.Bool("no-check"),
			})
		},
	}
}

func (a *app) checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "judge solutions on the generated test cases",
		ArgsUsage: "[solution...]",
		Flags: []cli.Flag{
			pathFlag(),
			&cli.BoolFlag{Name: "all", Usage: "check all the solutions"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "print every test a solution reaches"},
			noStderrFlag(),
			interactiveFlag(),
			jobsFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := a.open(sessionOptions{
				path:     cmd.String("path"),
				noStderr: cmd.Bool("no-stderr"),
				verbose:  cmd.Bool("verbose"),
			})
			if err != nil {
				return err
			}
			defer s.close()

			_, err = s.pipeline.Check(ctx, pipeline.CheckOptions{
				Targets:     cmd.Args().Slice(),
				All:         cmd.Bool("all"),
				Interactive: cmd.Bool("interactive"),
				Jobs:        cmd.Int("jobs"),
			})
			return err
		},
	}
}

func (a *app) testCommand() *cli.Command {
	return &cli.Command{
		Name:  "test",
		Usage: "generate the test cases and check all the solutions",
		Flags: []cli.Flag{
			pathFlag(),
			noStderrFlag(),
			interactiveFlag(),
			solverFlag(),
			jobsFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			proj, _, err := project.Open(cmd.String("path"), true, a.globalConfig)
			if err != nil {
				return err
			}
			if err := proj.Init(); err != nil {
				return err
			}

			s, err := a.open(sessionOptions{path: proj.Root, noStderr: cmd.Bool("no-stderr")})
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.pipeline.GenParams(); err != nil {
				return err
			}
			interactive := cmd.Bool("interactive")
			// every solution is checked below, the expected one included
			err = s.pipeline.GenCases(ctx, pipeline.GenOptions{
				Solver:        cmd.String("solver"),
				ErrorOnUnused: true,
				Interactive:   interactive,
				NoCheck:       true,
			})
			if err != nil {
				return err
			}
			_, err = s.pipeline.Check(ctx, pipeline.CheckOptions{
				All:         true,
				Interactive: interactive,
				Jobs:        cmd.Int("jobs"),
			})
			return err
		},
	}
}

func (a *app) seedCommand() *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "print the seed a generator receives for a test case",
		ArgsUsage: "<group> <index>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return errors.New("expected a group and an index")
			}
			index, err := strconv.Atoi(cmd.Args().Get(1))
			if err != nil || index < 0 {
				return fmt.Errorf("invalid test case index %q", cmd.Args().Get(1))
			}
			fmt.Fprintln(cmd.Root().Writer, testcase.DeriveSeed(cmd.Args().Get(0), index))
			return nil
		},
	}
}

func (a *app) archiveCommand() *cli.Command {
	return &cli.Command{
		Name:  "archive",
		Usage: "pack the test cases into a .tar.zst file",
		Flags: []cli.Flag{
			pathFlag(),
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "archive path, defaults to <title>" + archive.Ext},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			proj, _, err := project.Open(cmd.String("path"), true, a.globalConfig)
			if err != nil {
				return err
			}
			problem, err := proj.LoadProblem()
			if err != nil {
				return err
			}

			dst := cmd.String("output")
			if dst == "" {
				dst = filepath.Join(proj.Root, archive.FileName(problem.Title))
			}
			var entries []string
			for _, path := range []string{proj.InputsDir(), proj.OutputsDir(), proj.ProblemConfigFile()} {
				rel, err := filepath.Rel(proj.Root, path)
				if err != nil {
					return err
				}
				entries = append(entries, rel)
			}

			n, err := archive.Pack(dst, proj.Root, entries)
			if err != nil {
				return err
			}
			slog.Info("archived test cases", "path", dst, "files", n)
			return nil
		},
	}
}
