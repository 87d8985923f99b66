package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditFile is the audit log name inside the audit directory.
const AuditFile = "audit.jsonl"

// AuditEntry records one MCP tool invocation.
type AuditEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Tool       string            `json:"tool"`
	DurationMs int64             `json:"duration_ms"`
	Status     string            `json:"status"` // "success" or "error"
	Error      string            `json:"error,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
}

// AuditLogger appends entries to a JSONL file. It is safe for concurrent
// use, and a nil *AuditLogger discards everything.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewAuditLogger opens dir/audit.jsonl for appending, creating dir.
func NewAuditLogger(dir string) (*AuditLogger, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("cannot create audit log directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, AuditFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("cannot open audit log %s: %w", path, err)
	}
	return &AuditLogger{file: f}, nil
}

// Log appends entry as one JSON line.
func (a *AuditLogger) Log(entry AuditEntry) {
	if a == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = a.file.Write(data)
}

// Close closes the log file. Safe to call on nil and more than once.
func (a *AuditLogger) Close() error {
	if a == nil {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// toolParams flattens tool arguments for the audit log. Only parameters
// that were actually set are recorded, plus a "_param_count".
func toolParams(params map[string]interface{}) map[string]string {
	if params == nil {
		return nil
	}

	result := make(map[string]string, len(params)+1)
	set := 0
	for key, val := range params {
		s, ok := formatParam(val)
		if !ok {
			continue
		}
		result[key] = s
		set++
	}
	result["_param_count"] = fmt.Sprintf("%d", set)
	return result
}

// formatParam dereferences optional arguments; ok is false for nil
// pointers and empty strings.
func formatParam(v interface{}) (string, bool) {
	switch p := v.(type) {
	case nil:
		return "", false
	case int:
		return fmt.Sprintf("%d", p), p != 0
	case bool:
		return fmt.Sprintf("%t", p), p
	case *int:
		if p == nil {
			return "", false
		}
		return fmt.Sprintf("%d", *p), true
	case *int64:
		if p == nil {
			return "", false
		}
		return fmt.Sprintf("%d", *p), true
	case *float64:
		if p == nil {
			return "", false
		}
		return fmt.Sprintf("%g", *p), true
	case string:
		return p, p != ""
	default:
		return fmt.Sprintf("%v", p), true
	}
}

// auditTool logs a tool invocation.
func (s *Server) auditTool(toolName string, start time.Time, err error, params map[string]string) {
	status := "success"
	errMsg := ""
	if err != nil {
		status = "error"
		errMsg = err.Error()
	}

	s.auditLogger.Log(AuditEntry{
		Timestamp:  start,
		Tool:       toolName,
		DurationMs: time.Since(start).Milliseconds(),
		Status:     status,
		Error:      errMsg,
		Params:     params,
	})
}
