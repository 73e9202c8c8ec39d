package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"livequiz-service/internal/domain"
)

// HistoryRecorder appends one row per finished game.
type HistoryRecorder struct {
	pool *pgxpool.Pool
}

func NewHistoryRecorder(pool *pgxpool.Pool) *HistoryRecorder {
	return &HistoryRecorder{pool: pool}
}

func (r *HistoryRecorder) Record(ctx context.Context, summary domain.SessionSummary) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO session_history (title, started_at, participant_count, best_score) VALUES ($1, $2, $3, $4)`,
		summary.Title, summary.StartTime, summary.ParticipantCount, summary.BestScore,
	)
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}
