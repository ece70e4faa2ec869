package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alfredjeanlab/formbuilder/internal/model"
)

// sessionColumns is the column list used for SELECT statements on the
// builder_sessions table.
const sessionColumns = `id, name, fields, created_at, updated_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func querySaveSession(ctx context.Context, db executor, s *model.BuilderSession) error {
	fields, err := fieldsJSON(s.Fields)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO builder_sessions (id, name, fields, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET name = $2, fields = $3, updated_at = $5`,
		s.ID, s.Name, fields, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func queryGetSession(ctx context.Context, db executor, id string) (*model.BuilderSession, error) {
	row := db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM builder_sessions WHERE id = $1`, id)
	return scanSession(row)
}

func queryListSessions(ctx context.Context, db executor) ([]*model.BuilderSession, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM builder_sessions ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

func queryDeleteSession(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM builder_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
