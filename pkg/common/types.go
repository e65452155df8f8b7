package common

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultMatch is the page pattern the tool activates on.
const DefaultMatch = "https://yb.tencent.com/s/*"

// Configuration holds the refcopy settings
type Configuration struct {
	PageURL   string `yaml:"page_url"`
	Match     string `yaml:"match"`
	Container string `yaml:"container"`
	Items     string `yaml:"items"`

	ButtonID       string        `yaml:"button_id"`
	ButtonLabel    string        `yaml:"button_label"`
	NotifyText     string        `yaml:"notify_text"`
	NotifyDuration time.Duration `yaml:"notify_duration"`

	WaitTime  time.Duration `yaml:"wait_time"`
	Timeout   time.Duration `yaml:"timeout"`
	Headless  bool          `yaml:"headless"`
	RemoteURL string        `yaml:"remote_url"`
	UserAgent string        `yaml:"user_agent"`

	OutputDir string `yaml:"output_dir"`
	LogLevel  string `yaml:"log_level"`
}

// DefaultConfiguration returns the settings for the share page.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		Match:          DefaultMatch,
		Container:      ".hyc-card-box-search-ref",
		Items:          "ul li",
		ButtonID:       "reference-copy-button",
		ButtonLabel:    "复制参考文献",
		NotifyText:     "已按照Markdown格式复制参考文献",
		NotifyDuration: 3 * time.Second,
		Timeout:        30 * time.Second,
		LogLevel:       "info",
	}
}

// Validate checks the settings needed to open a page. Offline extraction
// only needs the selectors, see ValidateSelectors.
func (c *Configuration) Validate() error {
	if c.PageURL == "" {
		return fmt.Errorf("page url is required")
	}
	if ok, err := MatchURL(c.Match, c.PageURL); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("page url %q does not match %q", c.PageURL, c.Match)
	}
	if c.NotifyDuration <= 0 {
		return fmt.Errorf("notify_duration must be positive, got %v", c.NotifyDuration)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.WaitTime < 0 {
		return fmt.Errorf("wait_time must not be negative, got %v", c.WaitTime)
	}
	return c.ValidateSelectors()
}

// ValidateSelectors checks the DOM contract settings.
func (c *Configuration) ValidateSelectors() error {
	if strings.TrimSpace(c.Container) == "" {
		return fmt.Errorf("container selector is required")
	}
	if strings.TrimSpace(c.Items) == "" {
		return fmt.Errorf("items selector is required")
	}
	if strings.TrimSpace(c.ButtonID) == "" {
		return fmt.Errorf("button_id is required")
	}
	return nil
}

// MatchURL reports whether rawURL matches a @match-style pattern where
// '*' matches any run of characters. An empty pattern matches everything.
func MatchURL(pattern, rawURL string) (bool, error) {
	if pattern == "" {
		return true, nil
	}
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	re, err := regexp.Compile("^" + strings.Join(parts, ".*") + "$")
	if err != nil {
		return false, fmt.Errorf("invalid match pattern %q: %w", pattern, err)
	}
	return re.MatchString(rawURL), nil
}
