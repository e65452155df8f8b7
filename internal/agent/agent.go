// Package agent runs the page session: it keeps the copy button injected,
// turns button presses into clipboard writes, and re-injects the button
// when the page replaces its content.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/go-scripts/refcopy/internal/htmldoc"
	"github.com/go-scripts/refcopy/internal/refs"
)

// Defaults for the share page.
const (
	DefaultButtonID       = "reference-copy-button"
	DefaultButtonLabel    = "复制参考文献"
	DefaultNotifyText     = "已按照Markdown格式复制参考文献"
	DefaultNotifyDuration = 3 * time.Second

	notificationPrefix = "reference-copy-notice-"
)

// Config controls an Agent. Zero fields take the defaults above.
type Config struct {
	ButtonID       string
	ButtonLabel    string
	Selectors      htmldoc.Selectors
	NotifyText     string
	NotifyDuration time.Duration
	Clock          Clock
	Logger         *log.Logger
	// OnCopy, if set, receives every successfully published block.
	OnCopy func(markdown string, records []refs.Record)
}

func (c *Config) defaults() {
	if c.ButtonID == "" {
		c.ButtonID = DefaultButtonID
	}
	if c.ButtonLabel == "" {
		c.ButtonLabel = DefaultButtonLabel
	}
	if c.Selectors.Container == "" {
		c.Selectors.Container = htmldoc.DefaultContainer
	}
	if c.Selectors.Items == "" {
		c.Selectors.Items = htmldoc.DefaultItems
	}
	if c.NotifyText == "" {
		c.NotifyText = DefaultNotifyText
	}
	if c.NotifyDuration <= 0 {
		c.NotifyDuration = DefaultNotifyDuration
	}
	if c.Clock == nil {
		c.Clock = SystemClock{}
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
}

// Stats counts what happened during a session.
type Stats struct {
	Injections int64
	Copies     int64
	Failures   int64
	Mutations  int64
}

// Agent is bound to one page for the page's lifetime.
type Agent struct {
	page   Page
	clip   Clipboard
	cfg    Config
	logger *log.Logger

	injections atomic.Int64
	copies     atomic.Int64
	failures   atomic.Int64
	mutations  atomic.Int64

	mu      sync.Mutex
	pending map[string]Timer // notification id -> removal
}

// New creates an Agent for page.
func New(page Page, clip Clipboard, cfg Config) *Agent {
	cfg.defaults()
	return &Agent{
		page:    page,
		clip:    clip,
		cfg:     cfg,
		logger:  cfg.Logger,
		pending: make(map[string]Timer),
	}
}

// Stats returns a snapshot of the session counters.
func (a *Agent) Stats() Stats {
	return Stats{
		Injections: a.injections.Load(),
		Copies:     a.copies.Load(),
		Failures:   a.failures.Load(),
		Mutations:  a.mutations.Load(),
	}
}

func (a *Agent) buttonSelector() string {
	return "#" + a.cfg.ButtonID
}

// EnsureButtonPresent appends the button unless one with the reserved id
// is already in the document.
func (a *Agent) EnsureButtonPresent(ctx context.Context) error {
	exists, err := a.page.Exists(ctx, a.buttonSelector())
	if err != nil {
		return fmt.Errorf("agent: check button: %w", err)
	}
	if exists {
		return nil
	}

	if err := a.page.AppendButton(ctx, ButtonSpec{ID: a.cfg.ButtonID, Label: a.cfg.ButtonLabel}); err != nil {
		return fmt.Errorf("agent: append button: %w", err)
	}
	a.injections.Add(1)
	a.logger.Debug("Button injected", "id", a.cfg.ButtonID)
	return nil
}

// Collect snapshots the document and reads its reference records.
func (a *Agent) Collect(ctx context.Context) ([]refs.Record, error) {
	src, err := a.page.DocumentHTML(ctx)
	if err != nil {
		return nil, refs.PublishError(fmt.Errorf("snapshot document: %w", err))
	}
	doc, err := htmldoc.ParseString(src, a.cfg.Selectors)
	if err != nil {
		return nil, refs.PublishError(err)
	}
	return refs.Collect(doc)
}

// Extract returns the Markdown block for the current document.
func (a *Agent) Extract(ctx context.Context) (string, error) {
	records, err := a.Collect(ctx)
	if err != nil {
		return "", err
	}
	return refs.Format(records), nil
}

// Publish writes text to the clipboard and shows a notification that
// removes itself after NotifyDuration. Notifications stack; each call
// schedules its own removal.
func (a *Agent) Publish(ctx context.Context, text string) error {
	if err := a.clip.WriteText(text); err != nil {
		return refs.PublishError(fmt.Errorf("write clipboard: %w", err))
	}

	id := notificationPrefix + uuid.NewString()
	if err := a.page.AppendNotification(ctx, id, a.cfg.NotifyText); err != nil {
		a.logger.Warn("Failed to show notification", "error", err)
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending[id] = a.cfg.Clock.AfterFunc(a.cfg.NotifyDuration, func() {
		a.mu.Lock()
		delete(a.pending, id)
		a.mu.Unlock()
		if err := a.page.RemoveElement(context.WithoutCancel(ctx), id); err != nil {
			a.logger.Debug("Failed to remove notification", "id", id, "error", err)
		}
	})
	return nil
}

// Pending returns the number of notifications still waiting for removal.
func (a *Agent) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// stopPending cancels notification removals; the page they belong to is
// gone once the session ends.
func (a *Agent) stopPending() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, t := range a.pending {
		t.Stop()
		delete(a.pending, id)
	}
}

// CopyReferences is the button handler. Every failure ends here: the user
// gets an alert, the error is logged, and the page stays usable.
func (a *Agent) CopyReferences(ctx context.Context) {
	records, err := a.Collect(ctx)
	if err == nil {
		text := refs.Format(records)
		if err = a.Publish(ctx, text); err == nil {
			a.copies.Add(1)
			a.logger.Info("References copied", "count", len(records))
			if a.cfg.OnCopy != nil {
				a.cfg.OnCopy(text, records)
			}
			return
		}
	}

	a.failures.Add(1)
	a.report(ctx, err)
}

func (a *Agent) report(ctx context.Context, err error) {
	var refErr *refs.Error
	if errors.As(err, &refErr) && !errors.Is(err, refs.ErrPublishFailure) {
		a.logger.Warn("Nothing to copy", "reason", err)
	} else {
		a.logger.Error("复制参考文献时出错", "error", err)
		if cerr := a.page.ConsoleError(ctx, fmt.Sprintf("复制参考文献时出错: %v", err)); cerr != nil {
			a.logger.Debug("Failed to write page console", "error", cerr)
		}
	}

	if aerr := a.page.Alert(ctx, refs.AlertFor(err)); aerr != nil {
		a.logger.Error("Failed to show alert", "error", aerr)
	}
}

// HandleMutations re-injects the button when the reference container is
// present and the button is not.
func (a *Agent) HandleMutations(ctx context.Context, records int) error {
	a.mutations.Add(1)

	present, err := a.page.Exists(ctx, a.cfg.Selectors.Container)
	if err != nil {
		return fmt.Errorf("agent: check container: %w", err)
	}
	if !present {
		return nil
	}

	exists, err := a.page.Exists(ctx, a.buttonSelector())
	if err != nil {
		return fmt.Errorf("agent: check button: %w", err)
	}
	if exists {
		return nil
	}

	a.logger.Debug("Container reappeared, re-injecting button", "records", records)
	return a.EnsureButtonPresent(ctx)
}

// Run injects the button and serves page events until ctx is done or the
// page closes its event stream. Pending notification removals are dropped
// on return.
func (a *Agent) Run(ctx context.Context) error {
	defer a.stopPending()

	if err := a.EnsureButtonPresent(ctx); err != nil {
		return err
	}

	events := a.page.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			a.handle(ctx, ev)
		}
	}
}

func (a *Agent) handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventClick:
		a.CopyReferences(ctx)
	case EventMutation:
		if err := a.HandleMutations(ctx, ev.Records); err != nil {
			a.logger.Error("Mutation handling failed", "error", err)
		}
	default:
		a.logger.Warn("Unknown page event", "kind", ev.Kind)
	}
}
