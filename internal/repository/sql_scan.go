package repository

import (
	"fmt"
	"regexp"
	"time"

	"NextClose/internal/domain/models"
	"NextClose/pkg/util"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// checkTable guards table names that are interpolated into queries.
func checkTable(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

// rowScanner is satisfied by *sql.Rows and pgx.Rows.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanRaw reads (ticker, date, open, high, low, close, volume) rows.
// Dates are either native timestamps or text in one of the accepted layouts.
func scanRaw(rows rowScanner, nativeDate bool) ([]models.RawRecord, error) {
	out := make([]models.RawRecord, 0, 4096)
	for rows.Next() {
		var r models.RawRecord
		var err error
		if nativeDate {
			var d time.Time
			err = rows.Scan(&r.Ticker, &d, &r.Open, &r.High, &r.Low, &r.Close, &r.Volume)
			r.Date = util.TruncateDay(d)
		} else {
			var d string
			err = rows.Scan(&r.Ticker, &d, &r.Open, &r.High, &r.Low, &r.Close, &r.Volume)
			if err == nil {
				r.Date, err = util.ParseDate(d)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("scan raw record %d: %w", len(out), err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
