package memory

import (
	"context"
	"sync"

	"livequiz-service/internal/domain"
)

// HistoryRecorder keeps finished-game summaries in memory; the default sink
// when no database is configured, and the recorder used by tests.
type HistoryRecorder struct {
	mu        sync.Mutex
	summaries []domain.SessionSummary
}

func NewHistoryRecorder() *HistoryRecorder {
	return &HistoryRecorder{}
}

func (r *HistoryRecorder) Record(_ context.Context, summary domain.SessionSummary) error {
	r.mu.Lock()
	r.summaries = append(r.summaries, summary)
	r.mu.Unlock()
	return nil
}

// Summaries returns a snapshot of everything recorded so far.
func (r *HistoryRecorder) Summaries() []domain.SessionSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.SessionSummary, len(r.summaries))
	copy(out, r.summaries)
	return out
}
