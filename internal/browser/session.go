// Package browser drives a Chrome tab over the DevTools protocol and
// exposes it to the agent as an agent.Page.
package browser

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/go-scripts/refcopy/internal/agent"
)

//go:embed page.js
var pageJS string

const bindingName = "__refcopy_binding"

// Options configure the browser.
type Options struct {
	// RemoteURL attaches to a running Chrome (ws://host:9222/...) instead
	// of launching one.
	RemoteURL string
	Headless  bool
	UserAgent string
	// WaitTime is an extra pause after the body is ready.
	WaitTime time.Duration
	// Timeout bounds navigation and every single DOM call.
	Timeout time.Duration
	// AutoAcceptDialogs dismisses alerts; needed when no one can click OK.
	AutoAcceptDialogs bool
	Logger            *log.Logger
}

// Session owns one browser tab.
type Session struct {
	opts Options

	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	events chan agent.Event
	mu     sync.Mutex
	closed bool

	logger *log.Logger
}

var _ agent.Page = (*Session)(nil)

// NewSession starts (or attaches to) a browser and opens a blank tab.
func NewSession(opts Options) (*Session, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), opts.RemoteURL)
	} else {
		execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.DisableGPU,
			chromedp.NoSandbox,
		)
		if !opts.Headless {
			execOpts = append(execOpts, chromedp.Flag("headless", false))
		}
		if opts.UserAgent != "" {
			execOpts = append(execOpts, chromedp.UserAgent(opts.UserAgent))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), execOpts...)
	}

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		opts:        opts,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		events:      make(chan agent.Event, 256),
		logger:      opts.Logger,
	}

	// The first Run starts the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: start: %w", err)
	}

	chromedp.ListenTarget(tabCtx, s.onEvent)

	go func() {
		<-tabCtx.Done()
		s.closeEvents()
	}()

	return s, nil
}

// Open installs the page script and navigates to url, returning once the
// body is ready.
func (s *Session) Open(ctx context.Context, url string) error {
	runCtx, cancel := s.callContext(ctx, s.opts.Timeout)
	defer cancel()

	tasks := chromedp.Tasks{
		runtime.AddBinding(bindingName),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(pageJS).Do(ctx)
			return err
		}),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	}
	if s.opts.WaitTime > 0 {
		tasks = append(tasks, chromedp.Sleep(s.opts.WaitTime))
	}

	if err := chromedp.Run(runCtx, tasks); err != nil {
		return fmt.Errorf("browser: open %s: %w", url, err)
	}

	s.logger.Debug("Page ready", "url", url)
	return nil
}

// Close shuts the tab and, if launched by us, the browser.
func (s *Session) Close() {
	s.tabCancel()
	s.allocCancel()
}

func (s *Session) Events() <-chan agent.Event {
	return s.events
}

func (s *Session) closeEvents() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

// emit must not block: it runs on the chromedp event loop, which every
// DOM call made by the agent also needs.
func (s *Session) emit(ev agent.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("Event queue full, dropping event", "kind", ev.Kind)
	}
}

type bindingMessage struct {
	Kind    string `json:"kind"`
	Records int    `json:"records"`
}

func (s *Session) onEvent(ev interface{}) {
	switch e := ev.(type) {
	case *runtime.EventBindingCalled:
		if e.Name != bindingName {
			return
		}
		var msg bindingMessage
		if err := json.Unmarshal([]byte(e.Payload), &msg); err != nil {
			s.logger.Warn("Bad binding payload", "payload", e.Payload, "error", err)
			return
		}
		switch msg.Kind {
		case "click":
			s.emit(agent.Event{Kind: agent.EventClick})
		case "mutation":
			s.emit(agent.Event{Kind: agent.EventMutation, Records: msg.Records})
		default:
			s.logger.Debug("Unknown binding message", "kind", msg.Kind)
		}

	case *page.EventJavascriptDialogOpening:
		s.logger.Info("Page alert", "message", e.Message)
		if s.opts.AutoAcceptDialogs {
			go func() {
				if err := chromedp.Run(s.tabCtx, page.HandleJavaScriptDialog(true)); err != nil {
					s.logger.Debug("Failed to dismiss dialog", "error", err)
				}
			}()
		}
	}
}

// callContext derives a chromedp context bounded by timeout that is also
// cancelled with ctx.
func (s *Session) callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(s.tabCtx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}
