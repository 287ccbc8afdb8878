// Package audit logs policy decisions as single-line JSON records.
// Grounded on the teacher's audit/logger.go AuditLogger: a stdlib
// log.Logger writing to a file or stdout, one json.Marshal'd entry per
// Println call. The teacher's mock stats/compliance-report methods
// (GetStats, GenerateComplianceReport) analyzed nothing and are dropped
// rather than carried forward as dead weight; a real implementation of
// those would read the log store back, which this package does not own.
package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"abacengine/constants"
	"abacengine/policy"
)

// Entry is a single audit record.
type Entry struct {
	Timestamp time.Time              `json:"timestamp"`
	Action    string                 `json:"action"`
	Allowed   bool                   `json:"allowed"`
	Code      constants.DecisionCode `json:"code"`
	Message   string                 `json:"message"`
}

// Logger writes Entry records as single-line JSON.
type Logger struct {
	file   *os.File
	logger *log.Logger
}

// New opens path for append and builds a Logger writing to it. An empty
// path writes to stdout instead.
func New(path string) (*Logger, error) {
	var file *os.File
	var err error

	if path != "" {
		file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("audit: failed to open log file: %w", err)
		}
	} else {
		file = os.Stdout
	}

	return &Logger{file: file, logger: log.New(file, "", 0)}, nil
}

// LogDecision writes one audit record for an evaluated request.
func (l *Logger) LogDecision(action string, decision policy.Decision) error {
	entry := Entry{
		Timestamp: time.Now().UTC(),
		Action:    action,
		Allowed:   decision.Allowed,
		Code:      decision.Code,
		Message:   decision.Message,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: failed to marshal entry: %w", err)
	}
	l.logger.Println(string(data))
	return nil
}

// Close closes the underlying file, if one was opened (stdout is left
// open).
func (l *Logger) Close() error {
	if l.file != nil && l.file != os.Stdout {
		return l.file.Close()
	}
	return nil
}
