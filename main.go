package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/go-scripts/refcopy/internal/agent"
	"github.com/go-scripts/refcopy/internal/clipboard"
	"github.com/go-scripts/refcopy/internal/htmldoc"
	"github.com/go-scripts/refcopy/pkg/common"
	"github.com/go-scripts/refcopy/ui"
)

// CLI flags structure
type CLI struct {
	ConfigFile string `help:"Path to configuration file" default:"refcopy.yaml" name:"config" short:"c"`
	LogLevel   string `help:"Log level (debug, info, warn, error)" name:"log-level"`
	DryRun     bool   `help:"Keep copied text in memory instead of the system clipboard" name:"dry-run"`

	Watch   WatchCmd   `cmd:"" default:"withargs" help:"Open the page in a browser and serve the copy button until interrupted"`
	Copy    CopyCmd    `cmd:"" help:"Open the page headless, copy its references once and exit"`
	Extract ExtractCmd `cmd:"" help:"Extract references from a saved HTML page"`
}

// App carries what every command needs
type App struct {
	Config    *common.Configuration
	Logger    *log.Logger
	Console   *ui.Console
	Clipboard agent.Clipboard
}

func (a *App) selectors() htmldoc.Selectors {
	return htmldoc.Selectors{Container: a.Config.Container, Items: a.Config.Items}
}

func (a *App) agentConfig() agent.Config {
	return agent.Config{
		ButtonID:       a.Config.ButtonID,
		ButtonLabel:    a.Config.ButtonLabel,
		Selectors:      a.selectors(),
		NotifyText:     a.Config.NotifyText,
		NotifyDuration: a.Config.NotifyDuration,
		Logger:         a.Logger,
	}
}

func newLogger(level string) (*log.Logger, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "refcopy",
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}

func newApp(cli *CLI) (*App, error) {
	// Load configuration from file
	config, err := common.LoadConfiguration(cli.ConfigFile)
	if err != nil {
		return nil, err
	}

	// Override config with command line flags if provided
	if cli.LogLevel != "" {
		config.LogLevel = cli.LogLevel
	}

	logger, err := newLogger(config.LogLevel)
	if err != nil {
		return nil, err
	}

	var clip agent.Clipboard = clipboard.System{}
	if cli.DryRun {
		clip = &clipboard.Buffer{}
	} else if !(clipboard.System{}).Available() {
		logger.Warn("No system clipboard found, falling back to dry run")
		clip = &clipboard.Buffer{}
	}

	return &App{
		Config:    config,
		Logger:    logger,
		Console:   ui.NewConsole(os.Stdout),
		Clipboard: clip,
	}, nil
}

func main() {
	var cli CLI

	// Parse command line flags using kong
	kctx := kong.Parse(&cli,
		kong.Name("refcopy"),
		kong.Description("Copy the reference list of a share page as Markdown."),
		kong.UsageOnError(),
	)

	app, err := newApp(&cli)
	kctx.FatalIfErrorf(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	err = kctx.Run(app)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	kctx.FatalIfErrorf(err)
}
