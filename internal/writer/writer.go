package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-scripts/refcopy/internal/refs"
)

// FileWriter saves copied reference blocks next to the clipboard write
type FileWriter struct {
	outputDir string
}

// New creates a new FileWriter instance
func New(outputDir string) (*FileWriter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileWriter{outputDir: outputDir}, nil
}

// WriteMarkdown writes the Markdown block for a page and returns its path
func (w *FileWriter) WriteMarkdown(pageURL, markdown string) (string, error) {
	path := filepath.Join(w.outputDir, w.sanitizeFilename(pageURL)+".md")
	if err := os.WriteFile(path, []byte(markdown+"\n"), 0644); err != nil {
		return "", fmt.Errorf("failed to write markdown: %w", err)
	}
	return path, nil
}

// WriteRecords writes the records of a page as JSON and returns its path
func (w *FileWriter) WriteRecords(pageURL string, records []refs.Record) (string, error) {
	path := filepath.Join(w.outputDir, w.sanitizeFilename(pageURL)+".json")

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(struct {
		URL        string        `json:"url"`
		References []refs.Record `json:"references"`
	}{pageURL, records}); err != nil {
		return "", fmt.Errorf("failed to encode records: %w", err)
	}

	return path, nil
}

// sanitizeFilename creates a safe filename from a URL
func (w *FileWriter) sanitizeFilename(url string) string {
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "www.")
	url = strings.Trim(url, "/")

	unsafe := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", " "}
	for _, char := range unsafe {
		url = strings.ReplaceAll(url, char, "_")
	}

	if url == "" {
		return "references"
	}
	return url
}
