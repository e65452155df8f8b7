package htmldoc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/refcopy/internal/refs"
)

const sharePage = `<!doctype html>
<html><head><title>share</title></head>
<body>
  <div class="chat">
    <div class="hyc-card-box hyc-card-box-search-ref">
      <ul>
        <li data-title="A" data-url="u1"><span>A</span></li>
        <li data-title="B"><span>B</span></li>
        <li data-title="C" data-url="u3"><span>C</span></li>
      </ul>
    </div>
  </div>
  <ul><li data-title="outside" data-url="nope"></li></ul>
</body></html>`

func TestExtractFromSharePage(t *testing.T) {
	doc, err := ParseString(sharePage, DefaultSelectors())
	require.NoError(t, err)

	out, err := refs.Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, "# 参考文献\n\n[1. A](u1)\n\n[2. C](u3)", out)
}

func TestExtractFailures(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		wantErr error
	}{
		{
			name:    "no container",
			page:    `<body><ul><li data-title="A" data-url="u"></li></ul></body>`,
			wantErr: refs.ErrContainerNotFound,
		},
		{
			name:    "container without list",
			page:    `<body><div class="hyc-card-box-search-ref"><p>loading</p></div></body>`,
			wantErr: refs.ErrEmptyList,
		},
		{
			name:    "li outside ul",
			page:    `<body><div class="hyc-card-box-search-ref"><ol><li data-title="A" data-url="u"></li></ol></div></body>`,
			wantErr: refs.ErrEmptyList,
		},
		{
			name:    "items without attributes",
			page:    `<body><div class="hyc-card-box-search-ref"><ul><li>A</li><li data-url="u"></li></ul></div></body>`,
			wantErr: refs.ErrNoValidData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseString(tt.page, DefaultSelectors())
			require.NoError(t, err)

			_, err = refs.Extract(doc)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFirstContainerWins(t *testing.T) {
	page := `<body>
	<div class="hyc-card-box-search-ref"><ul><li data-title="first" data-url="1"></li></ul></div>
	<div class="hyc-card-box-search-ref"><ul><li data-title="second" data-url="2"></li></ul></div>
	</body>`
	doc, err := ParseString(page, DefaultSelectors())
	require.NoError(t, err)

	records, err := refs.Collect(doc)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "first", records[0].Title)
}

func TestNestedListsKeepDocumentOrder(t *testing.T) {
	page := `<body><div class="hyc-card-box-search-ref"><ul>
	<li data-title="1" data-url="a"><ul><li data-title="1.1" data-url="b"></li></ul></li>
	<li data-title="2" data-url="c"></li>
	</ul></div></body>`
	doc, err := ParseString(page, DefaultSelectors())
	require.NoError(t, err)

	records, err := refs.Collect(doc)
	require.NoError(t, err)

	var titles []string
	for _, r := range records {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"1", "1.1", "2"}, titles)
}

func TestSelectorForms(t *testing.T) {
	page := `<body><main id="m"><section class="a b" data-k="v"><ul><li data-title="x" data-url="y"></li></ul></section></main></body>`

	for _, container := range []string{
		"#m", "section.a.b", "main#m section", "[data-k]", "section[data-k=v]", "*.b",
		"main > section", "section[data-k^=v]", "body section:first-child",
	} {
		t.Run(container, func(t *testing.T) {
			doc, err := ParseString(page, Selectors{Container: container, Items: "ul li"})
			require.NoError(t, err)

			_, ok := doc.FindContainer()
			assert.True(t, ok)
		})
	}

	doc, err := ParseString(page, Selectors{Container: "section[data-k=w]", Items: "li"})
	require.NoError(t, err)
	_, ok := doc.FindContainer()
	assert.False(t, ok)
}

func TestChildCombinatorItems(t *testing.T) {
	page := `<body><div class="hyc-card-box-search-ref"><ul>
	<li data-title="A" data-url="u1"><ul><li data-title="nested" data-url="n"></li></ul></li>
	</ul></div></body>`
	doc, err := ParseString(page, Selectors{Container: ".hyc-card-box-search-ref", Items: "div > ul > li"})
	require.NoError(t, err)

	out, err := refs.Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, "# 参考文献\n\n[1. A](u1)", out)
}

func TestBadSelectors(t *testing.T) {
	tests := []struct {
		name      string
		container string
		items     string
	}{
		{"empty container", "", "li"},
		{"blank items", ".hyc-card-box-search-ref", "   "},
		{"unterminated attribute", "div[data-x", "li"},
		{"unknown pseudo-class", ".hyc-card-box-search-ref", "li:nosuch"},
		{"dangling combinator", ".hyc-card-box-search-ref", "ul >"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(sharePage, Selectors{Container: tt.container, Items: tt.items})
			assert.Error(t, err)
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(sharePage), 0o644))

	doc, err := ParseFile(path, DefaultSelectors())
	require.NoError(t, err)
	_, ok := doc.FindContainer()
	assert.True(t, ok)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.html"), DefaultSelectors())
	assert.Error(t, err)
}
