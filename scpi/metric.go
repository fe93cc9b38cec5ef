package scpi

import (
	"sync/atomic"
)

// SessionMetrics contains atomic metrics for an instrument session.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type SessionMetrics struct {
	// WriteCount indicates the number of command lines written.
	WriteCount atomic.Uint64
	// QueryCount indicates the number of queries issued.
	QueryCount atomic.Uint64
	// TimeoutCount indicates the number of round trips that timed out.
	TimeoutCount atomic.Uint64
	// CompletionPollCount indicates the number of operation-complete polls.
	CompletionPollCount atomic.Uint64
}

func (m *SessionMetrics) incWriteCount() {
	m.WriteCount.Add(1)
}

func (m *SessionMetrics) incQueryCount() {
	m.QueryCount.Add(1)
}

func (m *SessionMetrics) incTimeoutCount() {
	m.TimeoutCount.Add(1)
}

func (m *SessionMetrics) incCompletionPollCount() {
	m.CompletionPollCount.Add(1)
}
