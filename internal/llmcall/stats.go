package llmcall

import (
	"log/slog"
	"sync"
)

// Stats accumulates usage across the calls of one run. A nil *Stats is
// valid and records nothing.
type Stats struct {
	mu   sync.Mutex
	snap Snapshot
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Calls        int     `json:"calls"`
	Failures     int     `json:"failures"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	LatencyMs    int     `json:"latency_ms"`
}

// NewStats returns empty stats.
func NewStats() *Stats {
	return &Stats{}
}

// Add counts one call.
func (s *Stats) Add(c *Call) {
	if s == nil || c == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Calls++
	if !c.Success {
		s.snap.Failures++
	}
	s.snap.InputTokens += c.InputTokens
	s.snap.OutputTokens += c.OutputTokens
	s.snap.CostUSD += c.CostUSD
	s.snap.LatencyMs += c.LatencyMs
}

// Snapshot returns the current totals.
func (s *Stats) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Reset zeroes the totals.
func (s *Stats) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.snap = Snapshot{}
	s.mu.Unlock()
}

// LogValue implements slog.LogValuer.
func (s Snapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("calls", s.Calls),
		slog.Int("failures", s.Failures),
		slog.Int("input_tokens", s.InputTokens),
		slog.Int("output_tokens", s.OutputTokens),
		slog.Float64("cost_usd", s.CostUSD),
	)
}
