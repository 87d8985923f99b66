// Package logging provides leveled logging and step tracing for virusnet.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A StepLogger writing one JSONL event per collected step (steps.jsonl)
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug. At this level the driver
// logs every step's counts.
const LevelTrace = slog.LevelDebug - 4

// StepFile is the name of the JSONL trace written by StepLogger.
const StepFile = "steps.jsonl"

// ParseLevel maps a level name to a slog.Level.
// Supported values: "warn", "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing text records to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if l, ok := a.Value.Any().(slog.Level); ok && l == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// StepLogger appends step events to dir/steps.jsonl. It is safe for
// concurrent use, and a nil *StepLogger is a valid no-op logger.
type StepLogger struct {
	mu    sync.Mutex
	file  *os.File
	path  string
	count int
	now   func() time.Time
}

// NewStepLogger opens dir/steps.jsonl for append when level is debug or
// trace. At any other level it returns nil, nil and no file is created.
func NewStepLogger(dir string, level string) (*StepLogger, error) {
	if ParseLevel(level) > slog.LevelDebug {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating trace directory: %w", err)
	}

	path := filepath.Join(dir, StepFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening step trace: %w", err)
	}

	return &StepLogger{file: f, path: path, now: time.Now}, nil
}

// Log writes event as one JSON line with a "time" field added. The caller's
// map is not mutated. Events that fail to encode are dropped.
func (sl *StepLogger) Log(event map[string]any) {
	if sl == nil {
		return
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.file == nil {
		return
	}

	entry := make(map[string]any, len(event)+1)
	for k, v := range event {
		entry[k] = v
	}
	entry["time"] = sl.now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')
	if _, err := sl.file.Write(data); err == nil {
		sl.count++
	}
}

// Count returns the number of events written so far.
func (sl *StepLogger) Count() int {
	if sl == nil {
		return 0
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.count
}

// Path returns the trace file location, or "" for a nil logger.
func (sl *StepLogger) Path() string {
	if sl == nil {
		return ""
	}
	return sl.path
}

// Close closes the trace file. Safe to call on a nil receiver and more than once.
func (sl *StepLogger) Close() error {
	if sl == nil {
		return nil
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.file == nil {
		return nil
	}
	err := sl.file.Close()
	sl.file = nil
	return err
}
