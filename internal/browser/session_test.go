package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/refcopy/internal/agent"
	"github.com/go-scripts/refcopy/internal/clipboard"
)

const sharePage = `<!doctype html><html><head><title>share</title></head><body>
<div id="app"><div class="hyc-card-box-search-ref"><ul>
<li data-title="A" data-url="u1">A</li>
<li data-title="B">B</li>
<li data-title="C" data-url="u3">C</li>
</ul></div></div>
</body></html>`

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(Options{
		Headless:          true,
		Timeout:           10 * time.Second,
		AutoAcceptDialogs: true,
		Logger:            log.New(io.Discard),
	})
	if err != nil {
		t.Skipf("chrome not available: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func serve(t *testing.T, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSessionPage(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx, serve(t, sharePage)))

	ok, err := s.Exists(ctx, ".hyc-card-box-search-ref")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "#reference-copy-button")
	require.NoError(t, err)
	assert.False(t, ok)

	spec := agent.ButtonSpec{ID: "reference-copy-button", Label: "复制参考文献"}
	require.NoError(t, s.AppendButton(ctx, spec))
	require.NoError(t, s.AppendButton(ctx, spec))

	var count int
	require.NoError(t, chromedp.Run(s.tabCtx,
		chromedp.Evaluate(`document.querySelectorAll('#reference-copy-button').length`, &count)))
	assert.Equal(t, 1, count)

	html, err := s.DocumentHTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, `data-url="u3"`)

	require.NoError(t, s.AppendNotification(ctx, "n1", "done"))
	ok, err = s.Exists(ctx, "#n1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.RemoveElement(ctx, "n1"))
	require.NoError(t, s.RemoveElement(ctx, "n1"))
	ok, err = s.Exists(ctx, "#n1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Alert(ctx, "hello"))
	require.NoError(t, s.ConsoleError(ctx, "oops"))
}

func TestSessionAgentRoundTrip(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.Open(context.Background(), serve(t, sharePage)))

	clip := &clipboard.Buffer{}
	a := agent.New(s, clip, agent.Config{
		NotifyDuration: 200 * time.Millisecond,
		Logger:         log.New(io.Discard),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	waitFor(t, func() bool {
		ok, _ := s.Exists(ctx, "#reference-copy-button")
		return ok
	})

	require.NoError(t, chromedp.Run(s.tabCtx, chromedp.Click("#reference-copy-button", chromedp.ByQuery)))
	waitFor(t, func() bool { return clip.Writes() == 1 })
	assert.Equal(t, "# 参考文献\n\n[1. A](u1)\n\n[2. C](u3)", clip.Text())

	// The app replaces its content: button gone, container back.
	require.NoError(t, chromedp.Run(s.tabCtx, chromedp.Evaluate(`
		(() => {
			document.getElementById('reference-copy-button').remove();
			const app = document.getElementById('app');
			const html = app.innerHTML;
			app.innerHTML = '';
			app.innerHTML = html;
			return true;
		})()`, nil)))

	waitFor(t, func() bool {
		var n int
		_ = chromedp.Run(s.tabCtx, chromedp.Evaluate(`document.querySelectorAll('#reference-copy-button').length`, &n))
		return n == 1
	})

	cancel()
	<-done
	assert.GreaterOrEqual(t, a.Stats().Injections, int64(2))
}
