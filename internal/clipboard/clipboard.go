// Package clipboard provides the clipboard backends used by the agent.
package clipboard

import (
	"sync"

	atotto "github.com/atotto/clipboard"
)

// System writes to the OS clipboard (xclip/xsel/wl-copy on Linux,
// pbcopy on macOS, the Win32 API on Windows).
type System struct{}

// Available reports whether a clipboard backend was found.
func (System) Available() bool {
	return !atotto.Unsupported
}

func (System) WriteText(text string) error {
	return atotto.WriteAll(text)
}

// Buffer is an in-memory clipboard for dry runs.
type Buffer struct {
	mu     sync.Mutex
	text   string
	writes int
}

func (b *Buffer) WriteText(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
	b.writes++
	return nil
}

// Text returns the last written text.
func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

// Writes returns how many times WriteText was called.
func (b *Buffer) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}
