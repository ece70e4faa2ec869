package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/formbuilder/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanSession scans a single row into a model.BuilderSession.
// The row must contain columns in the order defined by sessionColumns.
func scanSession(row scannable) (*model.BuilderSession, error) {
	var (
		s      model.BuilderSession
		fields []byte
	)
	if err := row.Scan(&s.ID, &s.Name, &fields, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &s.Fields); err != nil {
			return nil, fmt.Errorf("decode fields of session %s: %w", s.ID, err)
		}
	}
	if s.Fields == nil {
		s.Fields = []model.PlacedField{}
	}
	return &s, nil
}

// scanSessions scans all rows into a slice of sessions.
func scanSessions(rows *sql.Rows) ([]*model.BuilderSession, error) {
	var out []*model.BuilderSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// fieldsJSON encodes placed fields for the jsonb column; nil becomes [].
func fieldsJSON(fields []model.PlacedField) ([]byte, error) {
	if fields == nil {
		fields = []model.PlacedField{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return data, nil
}
