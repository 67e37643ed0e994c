package tactile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditLogger fans execution events out to callbacks, an optional JSON Lines
// file and aggregate metrics.
type AuditLogger struct {
	mu sync.RWMutex

	callbacks  []func(AuditEvent)
	fileLogger *AuditFileLogger
	metrics    *ExecutionMetrics
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger() *AuditLogger {
	return &AuditLogger{
		callbacks: make([]func(AuditEvent), 0),
		metrics:   NewExecutionMetrics(),
	}
}

// AddCallback adds a callback function for audit events.
func (l *AuditLogger) AddCallback(callback func(AuditEvent)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callbacks = append(l.callbacks, callback)
}

// EnableFileLogging appends every event to path.
func (l *AuditLogger) EnableFileLogging(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fl, err := NewAuditFileLogger(path)
	if err != nil {
		return err
	}
	l.fileLogger = fl
	return nil
}

// Close closes the audit logger and any file handles.
func (l *AuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileLogger != nil {
		return l.fileLogger.Close()
	}
	return nil
}

// Log logs an audit event.
func (l *AuditLogger) Log(event AuditEvent) {
	l.mu.RLock()
	callbacks := l.callbacks
	fileLogger := l.fileLogger
	metrics := l.metrics
	l.mu.RUnlock()

	if metrics != nil {
		metrics.RecordEvent(event)
	}

	for _, cb := range callbacks {
		cb(event)
	}

	if fileLogger != nil {
		_ = fileLogger.Write(event)
	}
}

// GetMetrics returns the current execution metrics.
func (l *AuditLogger) GetMetrics() ExecutionMetricsSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.metrics == nil {
		return ExecutionMetricsSnapshot{}
	}
	return l.metrics.Snapshot()
}

// AuditFileLogger writes audit events to a file in JSON Lines format.
type AuditFileLogger struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewAuditFileLogger opens path for append, creating its directory.
func NewAuditFileLogger(path string) (*AuditFileLogger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	return &AuditFileLogger{
		file: file,
		path: path,
	}, nil
}

// Write writes an event to the log file.
func (l *AuditFileLogger) Write(event AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("audit log not open")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = l.file.Write(append(data, '\n'))
	return err
}

// Close closes the log file.
func (l *AuditFileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// ExecutionMetrics tracks aggregate execution statistics.
type ExecutionMetrics struct {
	mu sync.RWMutex

	totalExecutions      int64
	successfulExecutions int64
	failedExecutions     int64
	killedExecutions     int64
	totalDurationMs      int64

	executionsByBinary map[string]int64
	failuresByStage    map[string]int64

	lastEventTime time.Time
}

// NewExecutionMetrics creates a new metrics tracker.
func NewExecutionMetrics() *ExecutionMetrics {
	return &ExecutionMetrics{
		executionsByBinary: make(map[string]int64),
		failuresByStage:    make(map[string]int64),
	}
}

// RecordEvent updates metrics based on an audit event. A non-zero exit
// counts as a failure here, unlike ExecutionResult.Success.
func (m *ExecutionMetrics) RecordEvent(event AuditEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastEventTime = event.Timestamp

	switch event.Type {
	case AuditEventStart:
		m.totalExecutions++
		m.executionsByBinary[event.Command.Binary]++

	case AuditEventComplete:
		if event.Result != nil {
			if event.Result.Succeeded() {
				m.successfulExecutions++
			} else {
				m.failedExecutions++
				m.failuresByStage[event.Command.Tags["stage"]]++
			}
			m.totalDurationMs += event.Result.Duration.Milliseconds()
		}

	case AuditEventKilled:
		m.killedExecutions++
		m.failuresByStage[event.Command.Tags["stage"]]++
		if event.Result != nil {
			m.totalDurationMs += event.Result.Duration.Milliseconds()
		}

	case AuditEventError:
		m.failedExecutions++
		m.failuresByStage[event.Command.Tags["stage"]]++
	}
}

// ExecutionMetricsSnapshot is a point-in-time snapshot of metrics.
type ExecutionMetricsSnapshot struct {
	TotalExecutions      int64            `json:"total_executions"`
	SuccessfulExecutions int64            `json:"successful_executions"`
	FailedExecutions     int64            `json:"failed_executions"`
	KilledExecutions     int64            `json:"killed_executions"`
	TotalDurationMs      int64            `json:"total_duration_ms"`
	ExecutionsByBinary   map[string]int64 `json:"executions_by_binary"`
	FailuresByStage      map[string]int64 `json:"failures_by_stage"`
	LastEventTime        time.Time        `json:"last_event_time"`
	SuccessRate          float64          `json:"success_rate"`
	AvgDurationMs        float64          `json:"avg_duration_ms"`
}

// Snapshot returns a point-in-time copy of the metrics.
func (m *ExecutionMetrics) Snapshot() ExecutionMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byBinary := make(map[string]int64, len(m.executionsByBinary))
	for k, v := range m.executionsByBinary {
		byBinary[k] = v
	}
	byStage := make(map[string]int64, len(m.failuresByStage))
	for k, v := range m.failuresByStage {
		byStage[k] = v
	}

	successRate := float64(0)
	avgDuration := float64(0)
	completed := m.successfulExecutions + m.failedExecutions + m.killedExecutions
	if completed > 0 {
		successRate = float64(m.successfulExecutions) / float64(completed)
		avgDuration = float64(m.totalDurationMs) / float64(completed)
	}

	return ExecutionMetricsSnapshot{
		TotalExecutions:      m.totalExecutions,
		SuccessfulExecutions: m.successfulExecutions,
		FailedExecutions:     m.failedExecutions,
		KilledExecutions:     m.killedExecutions,
		TotalDurationMs:      m.totalDurationMs,
		ExecutionsByBinary:   byBinary,
		FailuresByStage:      byStage,
		LastEventTime:        m.lastEventTime,
		SuccessRate:          successRate,
		AvgDurationMs:        avgDuration,
	}
}

// AuditedExecutorWrapper wraps any Executor to add audit logging.
type AuditedExecutorWrapper struct {
	executor Executor
	logger   *AuditLogger
}

// NewAuditedExecutor wraps an executor with audit logging. Executors that
// emit their own events report through logger; others get start and
// completion events from the wrapper.
func NewAuditedExecutor(executor Executor, logger *AuditLogger) *AuditedExecutorWrapper {
	w := &AuditedExecutorWrapper{executor: executor, logger: logger}
	if audited, ok := executor.(AuditedExecutorInterface); ok {
		audited.SetAuditCallback(logger.Log)
	}
	return w
}

// Execute runs a command and logs the execution.
func (w *AuditedExecutorWrapper) Execute(ctx context.Context, cmd Command) (*ExecutionResult, error) {
	if _, ok := w.executor.(AuditedExecutorInterface); ok {
		return w.executor.Execute(ctx, cmd)
	}

	name := w.executor.Capabilities().Name
	w.logger.Log(AuditEvent{Type: AuditEventStart, Timestamp: time.Now(), Command: cmd, ExecutorName: name})
	result, err := w.executor.Execute(ctx, cmd)

	event := AuditEvent{Type: AuditEventComplete, Timestamp: time.Now(), Command: cmd, Result: result, ExecutorName: name}
	switch {
	case err != nil || (result != nil && result.IsError()):
		event.Type = AuditEventError
	case result != nil && result.Killed:
		event.Type = AuditEventKilled
	}
	w.logger.Log(event)
	return result, err
}

// Capabilities returns the wrapped executor's capabilities.
func (w *AuditedExecutorWrapper) Capabilities() ExecutorCapabilities {
	return w.executor.Capabilities()
}

// Validate validates a command.
func (w *AuditedExecutorWrapper) Validate(cmd Command) error {
	return w.executor.Validate(cmd)
}
