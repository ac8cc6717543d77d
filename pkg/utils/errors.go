package utils

import (
	"errors"
)

// --- Sentinel Errors ---
var (
	ErrUnsupportedFormat = errors.New("unsupported format")             // Wraps the offending format name or path
	ErrConfigValidation  = errors.New("configuration validation error") // Wraps the offending field/value
	ErrJobNotFound       = errors.New("watch job not found")
	ErrWatcherClosed     = errors.New("watcher is closed")
)
