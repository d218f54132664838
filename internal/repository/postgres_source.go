package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"NextClose/internal/domain/models"
	domrepo "NextClose/internal/domain/repository"
	applogger "NextClose/pkg/logger"
)

// PGRawSource reads the raw table from PostgreSQL.
type PGRawSource struct {
	pool  *pgxpool.Pool
	table string
	l     *applogger.Logger
}

func NewPGRawSource(pool *pgxpool.Pool, table string) (*PGRawSource, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	return &PGRawSource{pool: pool, table: table}, nil
}

// SetLogger injects a structured logger.
func (s *PGRawSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *PGRawSource) Name() string { return "postgres:" + s.table }

func (s *PGRawSource) Load(ctx context.Context) ([]models.RawRecord, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT ticker, date::timestamp, open::float8, high::float8, low::float8,
               close::float8, volume::int8
        FROM %s
        ORDER BY ticker, date`, s.table)
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		if s.l != nil {
			s.l.Error("postgres raw load query error",
				applogger.String("table", s.table),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("query raw table: %w", err)
	}
	defer rows.Close()

	out, err := scanRaw(rows, true)
	if err != nil {
		return nil, err
	}
	if s.l != nil {
		s.l.Info("postgres raw load ok",
			applogger.String("table", s.table),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

var _ domrepo.RawSource = (*PGRawSource)(nil)
