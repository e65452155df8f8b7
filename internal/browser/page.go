package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/go-scripts/refcopy/internal/agent"
)

// call invokes window.__refcopy.<fn>(args...), installing the page script
// first if the document was replaced without it.
func (s *Session) call(ctx context.Context, fn string, res interface{}, args ...interface{}) error {
	encoded := make([]string, len(args))
	for i, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("browser: encode %s argument: %w", fn, err)
		}
		encoded[i] = string(b)
	}

	expr := fmt.Sprintf(`(window.__refcopy || (() => { %s; return window.__refcopy; })()).%s(%s)`,
		pageJS, fn, strings.Join(encoded, ", "))

	runCtx, cancel := s.callContext(ctx, s.opts.Timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Evaluate(expr, res)); err != nil {
		return fmt.Errorf("browser: %s: %w", fn, err)
	}
	return nil
}

func (s *Session) Exists(ctx context.Context, selector string) (bool, error) {
	var found bool
	err := s.call(ctx, "exists", &found, selector)
	return found, err
}

func (s *Session) DocumentHTML(ctx context.Context) (string, error) {
	runCtx, cancel := s.callContext(ctx, s.opts.Timeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("browser: outer html: %w", err)
	}
	return html, nil
}

func (s *Session) AppendButton(ctx context.Context, spec agent.ButtonSpec) error {
	var appended bool
	if err := s.call(ctx, "appendButton", &appended, spec.ID, spec.Label); err != nil {
		return err
	}
	if !appended {
		s.logger.Debug("Button not appended", "id", spec.ID)
	}
	return nil
}

func (s *Session) AppendNotification(ctx context.Context, id, text string) error {
	var ok bool
	return s.call(ctx, "notify", &ok, id, text)
}

func (s *Session) RemoveElement(ctx context.Context, id string) error {
	var removed bool
	return s.call(ctx, "remove", &removed, id)
}

func (s *Session) Alert(ctx context.Context, msg string) error {
	var ok bool
	return s.call(ctx, "alert", &ok, msg)
}

func (s *Session) ConsoleError(ctx context.Context, msg string) error {
	var ok bool
	return s.call(ctx, "consoleError", &ok, msg)
}
