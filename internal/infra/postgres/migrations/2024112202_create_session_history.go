package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

const createSessionHistorySQL = `
CREATE TABLE IF NOT EXISTS session_history (
	id                BIGSERIAL PRIMARY KEY,
	title             TEXT NOT NULL,
	started_at        TIMESTAMPTZ NOT NULL,
	participant_count INT NOT NULL,
	best_score        INT NOT NULL,
	recorded_at       TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createSessionHistorySQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS session_history`)
			return err
		},
	)
}
