// Package htmldoc implements refs.Document over a parsed HTML page.
package htmldoc

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/go-scripts/refcopy/internal/refs"
)

// Default selectors for the share page layout.
const (
	DefaultContainer = ".hyc-card-box-search-ref"
	DefaultItems     = "ul li"
)

// Selectors locate the container and, within it, the list items.
type Selectors struct {
	Container string
	Items     string
}

// DefaultSelectors returns the selectors of the share page.
func DefaultSelectors() Selectors {
	return Selectors{Container: DefaultContainer, Items: DefaultItems}
}

// Document is a parsed page.
type Document struct {
	root      *html.Node
	container cascadia.Selector
	items     cascadia.Selector
}

var _ refs.Document = (*Document)(nil)

// Parse reads an HTML page from r.
func Parse(r io.Reader, sel Selectors) (*Document, error) {
	container, err := compile(sel.Container)
	if err != nil {
		return nil, err
	}
	items, err := compile(sel.Items)
	if err != nil {
		return nil, err
	}

	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: parse: %w", err)
	}

	return &Document{root: root, container: container, items: items}, nil
}

// ParseString parses an HTML string.
func ParseString(s string, sel Selectors) (*Document, error) {
	return Parse(strings.NewReader(s), sel)
}

// ParseFile parses a saved page from disk.
func ParseFile(path string, sel Selectors) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f, sel)
}

// compile rejects selectors the engine cannot evaluate, so a typo in the
// config fails at load instead of matching nothing.
func compile(s string) (cascadia.Selector, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("htmldoc: empty selector")
	}
	sel, err := cascadia.Compile(s)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: selector %q: %w", s, err)
	}
	return sel, nil
}

func (d *Document) FindContainer() (refs.Node, bool) {
	n := cascadia.Query(d.root, d.container)
	if n == nil {
		return nil, false
	}
	return n, true
}

func (d *Document) ListItems(container refs.Node) []refs.Node {
	n, ok := container.(*html.Node)
	if !ok || n == nil {
		return nil
	}
	matches := cascadia.QueryAll(n, d.items)
	out := make([]refs.Node, len(matches))
	for i, m := range matches {
		out[i] = m
	}
	return out
}

func (d *Document) ReadAttr(item refs.Node, name string) (string, bool) {
	n, ok := item.(*html.Node)
	if !ok || n == nil {
		return "", false
	}
	return lookup(n, name)
}

func lookup(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
