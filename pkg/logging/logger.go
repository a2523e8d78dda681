package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a configured logrus.Logger. Diagnostics go to the
// given file so the terminal stays free for the preview line; with an
// empty path they go to stderr instead.
func NewLogger(logFile, level string) (*logrus.Logger, error) {
	logger := logrus.New()

	logLevel := logrus.InfoLevel
	if level != "" {
		lv, err := logrus.ParseLevel(strings.ToLower(level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		logLevel = lv
	}
	logger.SetLevel(logLevel)

	var output io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = f
	}
	logger.SetOutput(output)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return logger, nil
}

// MirrorWarnings duplicates warning-and-worse entries onto w. Used by the
// CLI so problems still reach the user while routine diagnostics stay in
// the log file.
func MirrorWarnings(logger *logrus.Logger, w io.Writer) {
	logger.AddHook(&mirrorHook{w: w, formatter: &logrus.TextFormatter{DisableTimestamp: true}})
}

type mirrorHook struct {
	w         io.Writer
	formatter logrus.Formatter
}

func (h *mirrorHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
	}
}

func (h *mirrorHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.w.Write(line)
	return err
}
