package config

import (
	"fmt"
	"time"

	"tocgen/pkg/models"
	"tocgen/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// LogLevel
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}

	// Generation defaults
	w, err := c.Defaults.Validate()
	warnings = append(warnings, w...)
	if err != nil {
		return warnings, err
	}

	// Watch settings
	warnings = append(warnings, c.Watch.validate()...)

	// SSEAddress
	if c.Server.SSEAddress == "" {
		c.Server.SSEAddress = DefaultSSEAddress
	}

	return warnings, nil
}

// Validate checks GenerateDefaults fields and applies defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place.
func (d *GenerateDefaults) Validate() (warnings []string, err error) {
	// InputFormat ("" means infer from each input file's extension)
	if d.InputFormat != "" {
		if _, perr := models.ParseFormat(d.InputFormat); perr != nil {
			return nil, fmt.Errorf("%w: defaults.input_format: %v", utils.ErrConfigValidation, perr)
		}
	}

	// OutputFormat
	if d.OutputFormat == "" {
		d.OutputFormat = string(models.FormatMarkdown)
	} else if _, perr := models.ParseFormat(d.OutputFormat); perr != nil {
		return nil, fmt.Errorf("%w: defaults.output_format: %v", utils.ErrConfigValidation, perr)
	}

	// IndentWidth (pointer; 0 is a valid width)
	if d.IndentWidth == nil {
		width := DefaultIndentWidth
		d.IndentWidth = &width
	} else if *d.IndentWidth < 0 {
		warnings = append(warnings, "indent_width cannot be negative, setting to 0")
		zero := 0
		d.IndentWidth = &zero
	}

	// Title (pointer; explicit "" suppresses the title line)
	if d.Title == nil {
		title := DefaultTitle
		d.Title = &title
	}

	return warnings, nil
}

// validate applies defaults to watch settings. Never fails fatally:
// anything unparseable falls back with a warning.
func (w *WatchConfig) validate() (warnings []string) {
	// Debounce
	if w.Debounce == "" {
		w.Debounce = DefaultDebounce.String()
	} else if d, err := time.ParseDuration(w.Debounce); err != nil || d <= 0 {
		warnings = append(warnings, fmt.Sprintf(
			"watch.debounce %q is not a positive duration, defaulting to %s",
			w.Debounce, DefaultDebounce))
		w.Debounce = DefaultDebounce.String()
	}

	// PollInterval ("" disables polling)
	if w.PollInterval != "" {
		if d, err := time.ParseDuration(w.PollInterval); err != nil || d < 0 {
			warnings = append(warnings, fmt.Sprintf(
				"watch.poll_interval %q is not a valid duration, disabling polling",
				w.PollInterval))
			w.PollInterval = ""
		}
	}

	return warnings
}
