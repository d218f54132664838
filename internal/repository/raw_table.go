package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"NextClose/internal/domain/models"
	domrepo "NextClose/internal/domain/repository"
)

// MemoryTable is the immutable in-process raw table shared by all requests.
type MemoryTable struct {
	records []models.RawRecord
	tickers []string
}

// NewMemoryTable validates records and freezes them. Empty tickers, zero dates and
// duplicate (ticker, date) pairs are rejected.
func NewMemoryTable(records []models.RawRecord) (*MemoryTable, error) {
	type key struct {
		ticker string
		day    int64
	}
	seen := make(map[key]struct{}, len(records))
	set := make(map[string]struct{})
	out := make([]models.RawRecord, len(records))
	for i, r := range records {
		r.Ticker = strings.TrimSpace(r.Ticker)
		if r.Ticker == "" {
			return nil, fmt.Errorf("record %d: empty ticker", i)
		}
		if r.Date.IsZero() {
			return nil, fmt.Errorf("record %d (%s): missing date", i, r.Ticker)
		}
		k := key{r.Ticker, r.Date.Unix()}
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("duplicate record for %s on %s", r.Ticker, r.Date.Format(models.DateLayout))
		}
		seen[k] = struct{}{}
		set[r.Ticker] = struct{}{}
		out[i] = r
	}
	tickers := make([]string, 0, len(set))
	for t := range set {
		tickers = append(tickers, t)
	}
	slices.Sort(tickers)
	return &MemoryTable{records: out, tickers: tickers}, nil
}

// LoadTable reads every record from src into a MemoryTable.
func LoadTable(ctx context.Context, src domrepo.RawSource) (*MemoryTable, error) {
	recs, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}
	t, err := NewMemoryTable(recs)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}
	return t, nil
}

// Records returns the shared backing slice. Callers must not modify it.
func (t *MemoryTable) Records() []models.RawRecord { return t.records }

func (t *MemoryTable) Tickers() []string { return slices.Clone(t.tickers) }

func (t *MemoryTable) Len() int { return len(t.records) }

var _ domrepo.RawTable = (*MemoryTable)(nil)
