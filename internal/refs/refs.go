// Package refs extracts citation records from a page's reference list and
// renders them as a Markdown block.
package refs

import (
	"errors"
	"fmt"
	"strings"
)

// Heading is the first line of every rendered block.
const Heading = "# 参考文献"

// Default attribute names carried by each list item.
const (
	AttrTitle = "data-title"
	AttrURL   = "data-url"
)

// Alert messages shown to the user for each failure.
const (
	MsgContainerNotFound = "未找到参考文献区域，请确保页面已完全加载"
	MsgEmptyList         = "未找到参考文献列表"
	MsgNoValidData       = "未找到有效的参考文献数据"
	MsgPublishFailure    = "复制失败，请检查控制台错误信息"
)

var (
	ErrContainerNotFound = errors.New("reference container not found")
	ErrEmptyList         = errors.New("reference list is empty")
	ErrNoValidData       = errors.New("no valid reference data")
	ErrPublishFailure    = errors.New("publish failed")
)

// Error pairs a sentinel with the alert text the user sees.
type Error struct {
	Kind       error
	Alert      string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%v: %v", e.Kind, e.Underlying)
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	if e.Underlying != nil {
		return []error{e.Kind, e.Underlying}
	}
	return []error{e.Kind}
}

func newError(kind error, alert string) *Error {
	return &Error{Kind: kind, Alert: alert}
}

// PublishError wraps a clipboard or host failure.
func PublishError(err error) *Error {
	return &Error{Kind: ErrPublishFailure, Alert: MsgPublishFailure, Underlying: err}
}

// AlertFor returns the user-facing message for err. Anything that is not a
// *Error maps to the publish failure message.
func AlertFor(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Alert != "" {
		return e.Alert
	}
	return MsgPublishFailure
}

// Node is an opaque handle owned by a Document implementation.
type Node any

// Document is the minimal DOM surface the extractor reads from.
type Document interface {
	// FindContainer returns the citation container, if present.
	FindContainer() (Node, bool)
	// ListItems returns the list items under container in document order.
	ListItems(container Node) []Node
	// ReadAttr returns the attribute value and whether it is set.
	ReadAttr(item Node, name string) (string, bool)
}

// Record is one valid reference.
type Record struct {
	Ordinal int    `json:"ordinal"`
	Title   string `json:"title"`
	URL     string `json:"url"`
}

// Line renders the record as a Markdown link.
func (r Record) Line() string {
	return fmt.Sprintf("[%d. %s](%s)", r.Ordinal, r.Title, r.URL)
}

// Collect reads every list item and keeps the ones carrying both a title
// and a url. Ordinals are contiguous over the kept items.
func Collect(doc Document) ([]Record, error) {
	container, ok := doc.FindContainer()
	if !ok {
		return nil, newError(ErrContainerNotFound, MsgContainerNotFound)
	}

	items := doc.ListItems(container)
	if len(items) == 0 {
		return nil, newError(ErrEmptyList, MsgEmptyList)
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		title, ok := doc.ReadAttr(item, AttrTitle)
		if !ok || title == "" {
			continue
		}
		url, ok := doc.ReadAttr(item, AttrURL)
		if !ok || url == "" {
			continue
		}
		records = append(records, Record{
			Ordinal: len(records) + 1,
			Title:   title,
			URL:     url,
		})
	}

	if len(records) == 0 {
		return nil, newError(ErrNoValidData, MsgNoValidData)
	}
	return records, nil
}

// Format renders records under the heading, separated by blank lines.
func Format(records []Record) string {
	var b strings.Builder
	b.WriteString(Heading)
	b.WriteString("\n\n")
	for i, r := range records {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(r.Line())
	}
	return b.String()
}

// Extract collects and formats the references of doc.
func Extract(doc Document) (string, error) {
	records, err := Collect(doc)
	if err != nil {
		return "", err
	}
	return Format(records), nil
}
