package llmcall

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/txtshelf/internal/providers"
)

// Recorder captures LLM calls into the run's Stats and, when a Store is
// configured, the persistent call log. Recording never fails the caller.
type Recorder struct {
	store  *Store
	stats  *Stats
	logger *slog.Logger
}

// NewRecorder creates a recorder. store and stats may be nil.
func NewRecorder(store *Store, stats *Stats, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, stats: stats, logger: logger}
}

// Record captures a chat result.
func (r *Recorder) Record(ctx context.Context, result *providers.ChatResult, opts RecordOptions) {
	r.RecordCall(ctx, FromChatResult(result, opts))
}

// RecordCall captures an already-constructed Call.
func (r *Recorder) RecordCall(ctx context.Context, call *Call) {
	if r == nil || call == nil {
		return
	}
	r.stats.Add(call)
	if r.store == nil {
		return
	}
	// a cancelled run still gets its calls logged
	if err := r.store.Insert(context.WithoutCancel(ctx), call); err != nil {
		r.logger.Warn("failed to record LLM call", "id", call.ID, "error", err)
	}
}

// Stats returns the recorder's stats collaborator.
func (r *Recorder) Stats() *Stats {
	if r == nil {
		return nil
	}
	return r.stats
}
