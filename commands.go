package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/briandowns/spinner"

	"github.com/go-scripts/refcopy/internal/agent"
	"github.com/go-scripts/refcopy/internal/browser"
	"github.com/go-scripts/refcopy/internal/htmldoc"
	"github.com/go-scripts/refcopy/internal/refs"
	"github.com/go-scripts/refcopy/internal/writer"
	"github.com/go-scripts/refcopy/pkg/common"
	"github.com/go-scripts/refcopy/ui"
)

// PageFlags are shared by the commands that open a live page
type PageFlags struct {
	URL       string        `help:"Share page URL" short:"u"`
	Remote    string        `help:"Attach to a running Chrome at this DevTools websocket URL"`
	WaitTime  time.Duration `help:"Extra wait after the page body is ready" name:"wait"`
	OutputDir string        `help:"Also save copied references under this directory" short:"o" name:"output"`
}

func (f PageFlags) apply(cfg *common.Configuration) {
	if f.URL != "" {
		cfg.PageURL = f.URL
	}
	if f.Remote != "" {
		cfg.RemoteURL = f.Remote
	}
	if f.WaitTime > 0 {
		cfg.WaitTime = f.WaitTime
	}
	if f.OutputDir != "" {
		cfg.OutputDir = f.OutputDir
	}
}

func openPage(ctx context.Context, app *App, headless bool) (*browser.Session, error) {
	cfg := app.Config

	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
	s.Suffix = " Opening " + cfg.PageURL
	s.Start()
	defer s.Stop()

	session, err := browser.NewSession(browser.Options{
		RemoteURL:         cfg.RemoteURL,
		Headless:          headless,
		UserAgent:         cfg.UserAgent,
		WaitTime:          cfg.WaitTime,
		Timeout:           cfg.Timeout,
		AutoAcceptDialogs: headless,
		Logger:            app.Logger,
	})
	if err != nil {
		return nil, err
	}

	if err := session.Open(ctx, cfg.PageURL); err != nil {
		session.Close()
		return nil, err
	}
	return session, nil
}

// saver returns a callback that stores copied blocks, or nil when no
// output directory is configured
func saver(app *App) (func(markdown string, records []refs.Record), error) {
	if app.Config.OutputDir == "" {
		return nil, nil
	}
	w, err := writer.New(app.Config.OutputDir)
	if err != nil {
		return nil, err
	}
	pageURL := app.Config.PageURL
	return func(markdown string, records []refs.Record) {
		path, err := w.WriteMarkdown(pageURL, markdown)
		if err != nil {
			app.Logger.Error("Error writing markdown", "error", err)
			return
		}
		if _, err := w.WriteRecords(pageURL, records); err != nil {
			app.Logger.Error("Error writing records", "error", err)
		}
		app.Logger.Debug("Saved references", "path", path)
	}, nil
}

// previewCopy shows each block copied from the live page and saves it
// when save is set
func previewCopy(app *App, save func(string, []refs.Record)) func(string, []refs.Record) {
	return func(markdown string, records []refs.Record) {
		app.Console.Preview(fmt.Sprintf("Copied %d references", len(records)), markdown)
		if save != nil {
			save(markdown, records)
		}
	}
}

// WatchCmd keeps the button alive on a visible page
type WatchCmd struct {
	PageFlags
	Headless bool `help:"Run the browser without a window"`
}

func (c *WatchCmd) Run(ctx context.Context, app *App) error {
	c.apply(app.Config)
	headless := c.Headless || app.Config.Headless
	if err := app.Config.Validate(); err != nil {
		return err
	}

	save, err := saver(app)
	if err != nil {
		return err
	}

	session, err := openPage(ctx, app, headless)
	if err != nil {
		return err
	}
	defer session.Close()

	cfg := app.agentConfig()
	cfg.OnCopy = previewCopy(app, save)
	a := agent.New(session, app.Clipboard, cfg)

	start := time.Now()
	app.Console.Info("Watching " + app.Config.PageURL + " (Ctrl+C to stop)")

	err = a.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	stats := a.Stats()
	app.Console.Raw(ui.RenderStats(ui.SessionStats{
		PageURL:    app.Config.PageURL,
		StartTime:  start,
		Injections: stats.Injections,
		Copies:     stats.Copies,
		Failures:   stats.Failures,
		Mutations:  stats.Mutations,
	}, time.Now()))
	return err
}

// CopyCmd copies the references of a page once
type CopyCmd struct {
	PageFlags
	Print bool `help:"Print the Markdown to stdout without styling"`
}

func (c *CopyCmd) Run(ctx context.Context, app *App) error {
	c.apply(app.Config)
	if err := app.Config.Validate(); err != nil {
		return err
	}

	save, err := saver(app)
	if err != nil {
		return err
	}

	session, err := openPage(ctx, app, true)
	if err != nil {
		return err
	}
	defer session.Close()

	a := agent.New(session, app.Clipboard, app.agentConfig())
	records, err := a.Collect(ctx)
	if err != nil {
		app.Console.Error(refs.AlertFor(err))
		return err
	}

	markdown := refs.Format(records)
	if err := app.Clipboard.WriteText(markdown); err != nil {
		app.Console.Error(refs.MsgPublishFailure)
		return refs.PublishError(err)
	}
	if save != nil {
		save(markdown, records)
	}

	show(app, c.Print, markdown, len(records), true)
	return nil
}

// ExtractCmd reads a saved page from disk
type ExtractCmd struct {
	File   string `arg:"" help:"Saved HTML page" type:"existingfile"`
	Copy   bool   `help:"Also copy the result to the clipboard"`
	Output string `help:"Also save the result under this directory" short:"o"`
	Print  bool   `help:"Print the Markdown to stdout without styling"`
}

func (c *ExtractCmd) Run(app *App) error {
	if c.Output != "" {
		app.Config.OutputDir = c.Output
	}
	if err := app.Config.ValidateSelectors(); err != nil {
		return err
	}

	doc, err := htmldoc.ParseFile(c.File, app.selectors())
	if err != nil {
		return err
	}

	records, err := refs.Collect(doc)
	if err != nil {
		app.Console.Error(refs.AlertFor(err))
		return err
	}
	markdown := refs.Format(records)

	if c.Copy {
		if err := app.Clipboard.WriteText(markdown); err != nil {
			app.Console.Error(refs.MsgPublishFailure)
			return refs.PublishError(err)
		}
	}

	if app.Config.OutputDir != "" {
		w, err := writer.New(app.Config.OutputDir)
		if err != nil {
			return err
		}
		if _, err := w.WriteMarkdown(c.File, markdown); err != nil {
			return err
		}
		if _, err := w.WriteRecords(c.File, records); err != nil {
			return err
		}
	}

	show(app, c.Print, markdown, len(records), c.Copy)
	return nil
}

func show(app *App, raw bool, markdown string, n int, copied bool) {
	if raw {
		app.Console.Raw(markdown)
		return
	}
	app.Console.Preview(fmt.Sprintf("%d references", n), markdown)
	if copied {
		app.Console.Info(app.Config.NotifyText)
	}
}
