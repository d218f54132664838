package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"NextClose/internal/domain/models"
	domrepo "NextClose/internal/domain/repository"
	pkgch "NextClose/pkg/clickhouse"
	applogger "NextClose/pkg/logger"
)

// CHRawSource reads the raw table from ClickHouse.
type CHRawSource struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHRawSource(ch *pkgch.Client, table string) (*CHRawSource, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	return &CHRawSource{db: ch.DB(), table: table}, nil
}

// SetLogger injects a structured logger.
func (s *CHRawSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHRawSource) Name() string { return "clickhouse:" + s.table }

func (s *CHRawSource) Load(ctx context.Context) ([]models.RawRecord, error) {
	start := time.Now()
	const qtpl = `
        SELECT ticker, toDateTime(date) AS d, toFloat64(open), toFloat64(high),
               toFloat64(low), toFloat64(close), toInt64(volume)
        FROM %s
        ORDER BY ticker ASC, d ASC
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.table))
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse raw load query error",
				applogger.String("table", s.table),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("query raw table: %w", err)
	}
	defer rows.Close()

	out, err := scanRaw(rows, true)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse raw load scan error",
				applogger.String("table", s.table),
				applogger.Error(err),
			)
		}
		return nil, err
	}
	if s.l != nil {
		s.l.Info("clickhouse raw load ok",
			applogger.String("table", s.table),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

var _ domrepo.RawSource = (*CHRawSource)(nil)
