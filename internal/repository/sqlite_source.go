package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"NextClose/internal/domain/models"
	domrepo "NextClose/internal/domain/repository"
)

// SQLiteRawSource reads the raw table from a SQLite file. Dates are stored as text.
type SQLiteRawSource struct {
	db    *sql.DB
	path  string
	table string
}

// OpenSQLiteRawSource opens the database read-only.
func OpenSQLiteRawSource(path, table string) (*SQLiteRawSource, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &SQLiteRawSource{db: db, path: path, table: table}, nil
}

func (s *SQLiteRawSource) Name() string { return "sqlite:" + s.path }

func (s *SQLiteRawSource) Load(ctx context.Context) ([]models.RawRecord, error) {
	q := fmt.Sprintf(`SELECT ticker, CAST(date AS TEXT), open, high, low, close, CAST(volume AS INTEGER)
        FROM %s ORDER BY ticker, date`, s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query raw table: %w", err)
	}
	defer rows.Close()
	return scanRaw(rows, false)
}

func (s *SQLiteRawSource) Close() error { return s.db.Close() }

var _ domrepo.RawSource = (*SQLiteRawSource)(nil)
