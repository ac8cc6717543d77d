package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New builds the process logger: text output with millisecond
// timestamps, level parsed from levelStr. Output goes to w, normally
// stderr, so stdout stays free for generated documents and MCP
// protocol traffic. An unparseable level falls back to info with a
// warning.
func New(levelStr string, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	logger.SetLevel(logrus.InfoLevel)

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		logger.Warnf("Invalid log level '%s', using default 'info'. Error: %v", levelStr, err)
		return logger
	}
	logger.SetLevel(level)
	return logger
}

// Component derives a scoped entry so every line names the subsystem
// that wrote it.
func Component(logger *logrus.Logger, name string) *logrus.Entry {
	return logger.WithField("component", name)
}
