package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adnsv/panbook/engine"
	"github.com/adnsv/panbook/log"
	"github.com/adnsv/panbook/manuscript"
	"github.com/adnsv/panbook/model"
	cli "github.com/jawher/mow.cli"
)

func main() {
	app := newApp()
	app.Run(os.Args)
}

func newApp() *cli.Cli {
	app := cli.App("panbook", "Validate and build books with an external publishing engine")
	app.Version("version", "panbook "+appVersion())

	debug := app.Bool(cli.BoolOpt{
		Name: "debug",
		Desc: "verbose logging",
	})
	app.Before = func() {
		lvl := ""
		if *debug {
			lvl = "debug"
		}
		log.Configure(log.Config{Level: lvl, Pretty: true})
	}

	app.Command("check", "validate the book configuration and its entries", cmdCheck)
	app.Command("toc", "print the table of contents of the manuscript", cmdTOC)
	app.Command("export", "write the engine configuration file", cmdExport)
	app.Command("build", "generate all output targets", cmdBuild)
	app.Command("watch", "build, then rebuild whenever the manuscript changes", cmdWatch)
	return app
}

func configOpt(cmd *cli.Cmd) *string {
	return cmd.String(cli.StringOpt{
		Name:   "c config",
		Desc:   fmt.Sprintf("book configuration file (default: first of %v in the current directory)", model.ConfigNames),
		EnvVar: "PANBOOK_CONFIG",
	})
}

func engineOpts(cmd *cli.Cmd) (command *string, args *[]string) {
	command = cmd.String(cli.StringOpt{
		Name:   "e engine",
		Value:  engine.DefaultCommand,
		Desc:   "publishing engine executable",
		EnvVar: "PANBOOK_ENGINE",
	})
	args = cmd.Strings(cli.StringsOpt{
		Name: "engine-arg",
		Desc: "extra argument passed to the engine (repeatable)",
	})
	return
}

func exportOpt(cmd *cli.Cmd) *string {
	return cmd.String(cli.StringOpt{
		Name: "o output",
		Desc: "engine configuration file to write (default: " + engine.DefaultConfigName + " next to the book configuration)",
	})
}

// resolveConfig falls back to the first default config name in the current
// directory.
func resolveConfig(fn string) (string, error) {
	if fn != "" {
		return fn, nil
	}
	return model.FindConfig(".")
}

// loadConfig reads the book configuration and validates it.
func loadConfig(fn string) (*model.BuildConfig, error) {
	fn, err := resolveConfig(fn)
	if err != nil {
		return nil, err
	}
	cfg, err := model.LoadConfig(fn)
	if err != nil {
		return nil, err
	}
	return cfg, checkConfig(cfg)
}

// checkConfig logs ordering warnings and returns validation failures.
func checkConfig(cfg *model.BuildConfig) error {
	logger := log.WithComponent("check")
	for _, w := range model.CheckOrder(cfg) {
		logger.Warn().Msg(w)
	}
	return model.Validate(cfg)
}

func exportPath(cfg *model.BuildConfig, fn string) string {
	if fn != "" {
		return fn
	}
	return filepath.Join(cfg.ConfigDir, engine.DefaultConfigName)
}

// fail reports err and exits with status 1.
func fail(err error) {
	logger := log.Base()
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		for _, fe := range verr.Errors {
			logger.Error().Str("field", fe.Field).Interface("value", fe.Value).Msg(fe.Message)
		}
		logger.Error().Int("problems", len(verr.Errors)).Msg("invalid book configuration")
	} else {
		logger.Error().Err(err).Msg("failed")
	}
	cli.Exit(1)
}

func cmdCheck(cmd *cli.Cmd) {
	cmd.Spec = "[-c=<CONFIG>]"
	configFN := configOpt(cmd)

	cmd.Action = func() {
		cfg, err := loadConfig(*configFN)
		if err != nil {
			fail(err)
		}
		fmt.Printf("%s is valid: %d entries, %d outputs\n", cfg.ConfigPath, len(cfg.Entry), len(cfg.Output))
	}
}

func cmdTOC(cmd *cli.Cmd) {
	cmd.Spec = "[-c=<CONFIG>] [-d=<DEPTH>] [-j=<JOBS>] [--pandoc=<PANDOC>]"
	configFN := configOpt(cmd)
	depth := cmd.Int(cli.IntOpt{
		Name:  "d depth",
		Value: 2,
		Desc:  "heading levels below each chapter title (0 lists chapters only)",
	})
	jobs := cmd.Int(cli.IntOpt{
		Name: "j jobs",
		Desc: "concurrent pandoc processes (default: number of CPUs)",
	})
	pandocCmd := cmd.String(cli.StringOpt{
		Name:   "pandoc",
		Value:  "pandoc",
		Desc:   "pandoc executable",
		EnvVar: "PANBOOK_PANDOC",
	})

	cmd.Action = func() {
		cfg, err := loadConfig(*configFN)
		if err != nil {
			fail(err)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		chapters, err := manuscript.Scan(ctx, cfg, manuscript.ScanOptions{Pandoc: *pandocCmd, Jobs: *jobs})
		if err != nil {
			fail(err)
		}
		fmt.Println(cfg.Title)
		if err := manuscript.WriteTOC(os.Stdout, manuscript.TOC(chapters, *depth)); err != nil {
			fail(err)
		}
	}
}

func cmdExport(cmd *cli.Cmd) {
	cmd.Spec = "[-c=<CONFIG>] [-o=<OUTPUT>]"
	configFN := configOpt(cmd)
	outFN := exportOpt(cmd)

	cmd.Action = func() {
		cfg, err := loadConfig(*configFN)
		if err != nil {
			fail(err)
		}
		if err := engine.ExportFile(cfg, exportPath(cfg, *outFN)); err != nil {
			fail(err)
		}
	}
}

func cmdBuild(cmd *cli.Cmd) {
	cmd.Spec = "[-c=<CONFIG>] [-o=<OUTPUT>] [-e=<ENGINE>] [--engine-arg=<ARG>]..."
	configFN := configOpt(cmd)
	outFN := exportOpt(cmd)
	engineCmd, engineArgs := engineOpts(cmd)

	cmd.Action = func() {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig(*configFN)
		if err != nil {
			fail(err)
		}
		e := &engine.Engine{Command: *engineCmd, Args: *engineArgs}
		if err := build(ctx, e, cfg, *outFN); err != nil {
			fail(err)
		}
		logger := log.Base()
		logger.Info().Msg("mission accomplished")
	}
}

func cmdWatch(cmd *cli.Cmd) {
	cmd.Spec = "[-c=<CONFIG>] [-o=<OUTPUT>] [-e=<ENGINE>] [--engine-arg=<ARG>]..."
	configFN := configOpt(cmd)
	outFN := exportOpt(cmd)
	engineCmd, engineArgs := engineOpts(cmd)

	cmd.Action = func() {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fn, err := resolveConfig(*configFN)
		if err != nil {
			fail(err)
		}
		e := &engine.Engine{Command: *engineCmd, Args: *engineArgs}
		rebuild := func(ctx context.Context, cfg *model.BuildConfig) error {
			if err := checkConfig(cfg); err != nil {
				return err
			}
			return build(ctx, e, cfg, *outFN)
		}
		if err := engine.Watch(ctx, fn, engine.DefaultDebounce, rebuild); err != nil {
			fail(err)
		}
	}
}

// build exports a validated configuration and runs the engine on it.
func build(ctx context.Context, e *engine.Engine, cfg *model.BuildConfig, outFN string) error {
	fn := exportPath(cfg, outFN)
	if err := engine.ExportFile(cfg, fn); err != nil {
		return err
	}
	return e.Build(ctx, cfg, fn)
}
