package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"NextClose/internal/domain/models"
	domrepo "NextClose/internal/domain/repository"
)

const snapshotPrefix = "forecast:"

// SnapshotStore keeps the latest batch forecast per ticker as JSON under forecast:{TICKER}.
type SnapshotStore struct {
	c BytesCache
}

func NewSnapshotStore(c BytesCache) *SnapshotStore {
	return &SnapshotStore{c: c}
}

func snapshotKey(ticker string) string {
	return snapshotPrefix + strings.ToUpper(ticker)
}

func (s *SnapshotStore) Put(ctx context.Context, f *models.Forecast, ttl time.Duration) error {
	b, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.c.SetBytes(ctx, snapshotKey(f.Ticker), b, ttl); err != nil {
		return fmt.Errorf("store snapshot %s: %w", f.Ticker, err)
	}
	return nil
}

func (s *SnapshotStore) Get(ctx context.Context, ticker string) (*models.Forecast, bool, error) {
	b, ok, err := s.c.GetBytes(ctx, snapshotKey(ticker))
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot %s: %w", ticker, err)
	}
	if !ok {
		return nil, false, nil
	}
	var f models.Forecast
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, false, fmt.Errorf("decode snapshot %s: %w", ticker, err)
	}
	return &f, true, nil
}

var _ domrepo.SnapshotStore = (*SnapshotStore)(nil)
