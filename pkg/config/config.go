package config

import (
	"time"

	"tocgen/pkg/models"
	"tocgen/pkg/toc"
)

// Built-in defaults, applied by Validate when the file leaves a field
// unset.
const (
	DefaultIndentWidth = 4
	DefaultTitle       = "Table of Contents"
	DefaultSSEAddress  = ":8811"
	DefaultLogLevel    = "info"
)

// DefaultDebounce is the delay between a change event and regeneration.
const DefaultDebounce = 250 * time.Millisecond

// GenerateDefaults seeds generation settings before flags are applied.
type GenerateDefaults struct {
	InputFormat   string  `yaml:"input_format,omitempty"`  // "" = infer per input file
	OutputFormat  string  `yaml:"output_format,omitempty"` // "" = markdown
	IndentWidth   *int    `yaml:"indent_width,omitempty"`  // nil = DefaultIndentWidth; 0 is a valid width
	CustomAnchors bool    `yaml:"custom_anchors,omitempty"`
	Title         *string `yaml:"title,omitempty"` // nil = DefaultTitle; explicit "" suppresses the title
}

// WatchConfig tunes the watch subcommand and MCP watch jobs.
// Durations are Go duration strings ("250ms", "2s").
type WatchConfig struct {
	Debounce     string `yaml:"debounce,omitempty"`      // "" = DefaultDebounce
	PollInterval string `yaml:"poll_interval,omitempty"` // "" or "0s" disables the polling fallback
}

// ServerConfig tunes the MCP server transports.
type ServerConfig struct {
	SSEAddress string `yaml:"sse_address,omitempty"` // "" = DefaultSSEAddress
}

// AppConfig holds the global application configuration
type AppConfig struct {
	LogLevel string           `yaml:"log_level,omitempty"` // "" = DefaultLogLevel
	Defaults GenerateDefaults `yaml:"defaults,omitempty"`
	Watch    WatchConfig      `yaml:"watch,omitempty"`
	Server   ServerConfig     `yaml:"server,omitempty"`
}

// EffectiveInputFormat returns the configured input format, or "" when
// each input file's extension decides. Only meaningful after Validate.
func (d *GenerateDefaults) EffectiveInputFormat() models.Format {
	if d.InputFormat == "" {
		return ""
	}
	f, _ := models.ParseFormat(d.InputFormat)
	return f
}

// EffectiveOutputFormat returns the configured output format.
// Only meaningful after Validate.
func (d *GenerateDefaults) EffectiveOutputFormat() models.Format {
	f, _ := models.ParseFormat(d.OutputFormat)
	return f
}

// EffectiveIndentWidth returns the indent width after validation.
func (d *GenerateDefaults) EffectiveIndentWidth() int {
	if d.IndentWidth == nil {
		return DefaultIndentWidth
	}
	return *d.IndentWidth
}

// EffectiveTitle returns the list title after validation; "" means no
// title line is emitted.
func (d *GenerateDefaults) EffectiveTitle() string {
	if d.Title == nil {
		return DefaultTitle
	}
	return *d.Title
}

// Options converts the validated defaults into generation options.
// InputFormat stays empty when each input file's extension should
// decide; callers resolve it before generating.
func (d *GenerateDefaults) Options() toc.Options {
	return toc.Options{
		InputFormat:   d.EffectiveInputFormat(),
		OutputFormat:  d.EffectiveOutputFormat(),
		IndentWidth:   d.EffectiveIndentWidth(),
		CustomAnchors: d.CustomAnchors,
		Title:         d.EffectiveTitle(),
	}
}

// DebounceDuration returns the parsed debounce delay.
// Only meaningful after Validate.
func (w *WatchConfig) DebounceDuration() time.Duration {
	d, _ := time.ParseDuration(w.Debounce)
	return d
}

// PollDuration returns the parsed polling interval, 0 when polling is
// disabled. Only meaningful after Validate.
func (w *WatchConfig) PollDuration() time.Duration {
	if w.PollInterval == "" {
		return 0
	}
	d, _ := time.ParseDuration(w.PollInterval)
	return d
}
