package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

const createQuizzesSQL = `
CREATE TABLE IF NOT EXISTS quizzes (
	id   TEXT PRIMARY KEY,
	data JSONB NOT NULL
)`

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createQuizzesSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS quizzes`)
			return err
		},
	)
}
