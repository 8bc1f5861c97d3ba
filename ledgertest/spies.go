package ledgertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/homeshelf/lending-ledger-go/ledger"
)

// LoggerSpy is a ledger.Logger implementation that captures log calls for
// inspection in tests.
type LoggerSpy struct {
	mu      sync.Mutex
	entries []LogEntry
}

// LogEntry is one captured log call.
type LogEntry struct {
	Level   string
	Message string
	Args    []any
}

// NewLoggerSpy creates a new LoggerSpy.
func NewLoggerSpy() *LoggerSpy {
	return &LoggerSpy{entries: make([]LogEntry, 0)}
}

func (s *LoggerSpy) Debug(msg string, args ...any) { s.record("debug", msg, args) }
func (s *LoggerSpy) Info(msg string, args ...any)  { s.record("info", msg, args) }
func (s *LoggerSpy) Warn(msg string, args ...any)  { s.record("warn", msg, args) }
func (s *LoggerSpy) Error(msg string, args ...any) { s.record("error", msg, args) }

func (s *LoggerSpy) record(level string, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, LogEntry{Level: level, Message: msg, Args: args})
}

// Entries returns a copy of all captured log calls.
func (s *LoggerSpy) Entries() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]LogEntry, len(s.entries))
	copy(entries, s.entries)

	return entries
}

// HasMessage reports whether any captured entry has the given message.
func (s *LoggerSpy) HasMessage(msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if entry.Message == msg {
			return true
		}
	}

	return false
}

// MetricsCollectorSpy is a ledger.MetricsCollector implementation that
// captures metrics calls for inspection in tests.
type MetricsCollectorSpy struct {
	mu              sync.Mutex
	durationRecords []DurationRecord
	counterRecords  []CounterRecord
	valueRecords    []ValueRecord
}

// DurationRecord represents a recorded duration metric call.
type DurationRecord struct {
	Metric   string
	Duration time.Duration
	Labels   map[string]string
}

// CounterRecord represents a recorded counter increment call.
type CounterRecord struct {
	Metric string
	Labels map[string]string
}

// ValueRecord represents a recorded value metric call.
type ValueRecord struct {
	Metric string
	Value  float64
	Labels map[string]string
}

// NewMetricsCollectorSpy creates a new MetricsCollectorSpy.
func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{
		durationRecords: make([]DurationRecord, 0),
		counterRecords:  make([]CounterRecord, 0),
		valueRecords:    make([]ValueRecord, 0),
	}
}

// RecordDuration implements the MetricsCollector interface.
func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durationRecords = append(s.durationRecords, DurationRecord{
		Metric:   metric,
		Duration: duration,
		Labels:   copyLabels(labels),
	})
}

// IncrementCounter implements the MetricsCollector interface.
func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counterRecords = append(s.counterRecords, CounterRecord{
		Metric: metric,
		Labels: copyLabels(labels),
	})
}

// RecordValue implements the MetricsCollector interface.
func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.valueRecords = append(s.valueRecords, ValueRecord{
		Metric: metric,
		Value:  value,
		Labels: copyLabels(labels),
	})
}

// CounterCount returns how often the given counter was incremented.
func (s *MetricsCollectorSpy) CounterCount(metric string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, record := range s.counterRecords {
		if record.Metric == metric {
			count++
		}
	}

	return count
}

// DurationCount returns how often the given duration metric was recorded.
func (s *MetricsCollectorSpy) DurationCount(metric string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, record := range s.durationRecords {
		if record.Metric == metric {
			count++
		}
	}

	return count
}

// TracingCollectorSpy is a ledger.TracingCollector implementation that
// captures started and finished spans for inspection in tests.
type TracingCollectorSpy struct {
	mu    sync.Mutex
	spans []SpanRecord
}

// SpanRecord is one captured span lifecycle.
type SpanRecord struct {
	Name            string
	StartAttributes map[string]string
	Status          string
	EndAttributes   map[string]string
	Finished        bool
}

// SpanContextSpy is the SpanContext handed out by TracingCollectorSpy.
type SpanContextSpy struct {
	spy   *TracingCollectorSpy
	index int
}

// NewTracingCollectorSpy creates a new TracingCollectorSpy.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{spans: make([]SpanRecord, 0)}
}

// StartSpan implements the TracingCollector interface.
func (s *TracingCollectorSpy) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, ledger.SpanContext) {

	s.mu.Lock()
	defer s.mu.Unlock()

	s.spans = append(s.spans, SpanRecord{Name: name, StartAttributes: copyLabels(attrs)})

	return ctx, &SpanContextSpy{spy: s, index: len(s.spans) - 1}
}

// FinishSpan implements the TracingCollector interface.
func (s *TracingCollectorSpy) FinishSpan(spanCtx ledger.SpanContext, status string, attrs map[string]string) {
	spy, ok := spanCtx.(*SpanContextSpy)
	if !ok || spy == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.spans[spy.index].Status = status
	s.spans[spy.index].EndAttributes = copyLabels(attrs)
	s.spans[spy.index].Finished = true
}

// SetStatus implements the SpanContext interface.
func (c *SpanContextSpy) SetStatus(status string) {
	c.spy.mu.Lock()
	defer c.spy.mu.Unlock()

	c.spy.spans[c.index].Status = status
}

// AddAttribute implements the SpanContext interface.
func (c *SpanContextSpy) AddAttribute(key, value string) {
	c.spy.mu.Lock()
	defer c.spy.mu.Unlock()

	if c.spy.spans[c.index].EndAttributes == nil {
		c.spy.spans[c.index].EndAttributes = make(map[string]string)
	}
	c.spy.spans[c.index].EndAttributes[key] = value
}

// Spans returns a copy of all captured span records.
func (s *TracingCollectorSpy) Spans() []SpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	spans := make([]SpanRecord, len(s.spans))
	copy(spans, s.spans)

	return spans
}

// HasFinishedSpan reports whether a span with the given name finished with
// the given status.
func (s *TracingCollectorSpy) HasFinishedSpan(name string, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, span := range s.spans {
		if span.Finished && span.Name == name && span.Status == status {
			return true
		}
	}

	return false
}

func copyLabels(labels map[string]string) map[string]string {
	labelsCopy := make(map[string]string, len(labels))
	for key, value := range labels {
		labelsCopy[key] = value
	}

	return labelsCopy
}

// String makes unexpected spy contents readable in test failures.
func (s *MetricsCollectorSpy) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fmt.Sprintf("metrics spy: %d durations, %d counters, %d values",
		len(s.durationRecords), len(s.counterRecords), len(s.valueRecords))
}
