package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"ebpretty/config"
	"ebpretty/misc"
	"ebpretty/process"
	"ebpretty/state"
)

const prettyHelp = `%s
SOURCE:
    book, directory or document to process:
        "file.epub" or "file.kepub" - single book
        "directory" - every book found under directory, recursively
        "file.(opf|ncx|xml|xhtml|html|htm|css)" - single document

DESTINATION:
    directory to put results to, source directory structure is kept
    if absent - files are rewritten in place

With --fix-only content documents are re-serialized as well formed XHTML
without changing their layout, nothing else is touched.
`

const dumpHelp = `%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Active configuration is a composition of embedded defaults and values from
configuration file, --default outputs embedded defaults only.
`

// setup runs after command line is parsed and before any subcommand.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.NArg() == 0 {
		return ctx, nil
	}

	var err error
	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		if len(configFile) > 0 {
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData("config/"+filepath.Base(configFile), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started",
		zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("hash", misc.GetGitHash()))
	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	return ctx, nil
}

// teardown closes logs and debug report. Errors go to stderr from here on.
func teardown(ctx context.Context, _ *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()))
	}
	env.RestoreStdLog()

	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := config.PanicLogName(env.Cfg.Logging.FileLogger.Destination)
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log '%s': %w", fname, er))
			}
		}
	}
	return
}

// set when error was already logged, so it is not repeated on stderr
var errLogged bool

func logError(ctx context.Context, _ *cli.Command, err error) {
	if env := state.EnvFromContext(ctx); env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errLogged = true
	}
}

func main() {
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "pretty prints documents of e-books (EPUB, KEPUB) and standalone OPF, NCX, XHTML and CSS files",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          setup,
		After:           teardown,
		ExitErrHandler:  logError,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "produce report archive to help troubleshooting"},
		},
		Commands: []*cli.Command{
			{
				Name:   "pretty",
				Usage:  "Pretty prints book(s) or standalone document",
				Action: process.Run,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "overwrite existing files in destination"},
					&cli.BoolFlag{Name: "fix-only", Aliases: []string{"f"}, Usage: "only re-serialize content documents, do not indent"},
				},
				ArgsUsage:          "SOURCE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(prettyHelp, cli.CommandHelpTemplate),
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				Action:             dumpConfig,
				ArgsUsage:          "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(dumpHelp, cli.CommandHelpTemplate),
			},
		},
	}

	err := app.Run(ctx, os.Args)
	stop()
	if err != nil {
		if !errLogged {
			fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
		}
		os.Exit(1)
	}
}

func dumpConfig(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	var data []byte
	if cmd.Bool("default") {
		data, err = config.Prepare()
	} else {
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	fname := cmd.Args().Get(0)
	if len(fname) == 0 {
		_, err = os.Stdout.Write(data)
	} else {
		err = os.WriteFile(fname, data, 0644)
	}
	if err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	env.Log.Info("Configuration written", zap.Bool("default", cmd.Bool("default")), zap.String("file", fname))
	return nil
}
