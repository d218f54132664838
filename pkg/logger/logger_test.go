package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	batches [][]AggregatedLogEntry
	topic   string
}

func (p *capturePublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func (p *capturePublisher) entries() []AggregatedLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []AggregatedLogEntry
	for _, b := range p.batches {
		out = append(out, b...)
	}
	return out
}

func TestCollectorDeduplicates(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Error("publish failed", String("ticker", "ABC"), Error(errors.New("broker down")))
	}
	l.Warn("predictor failed", String("predictor", "clf"))
	l.Info("not collected")
	l.RemoveCollector()

	got := pub.entries()
	if len(got) != 2 || pub.topic != "logs" {
		t.Fatalf("expected 2 aggregated entries on topic logs, got %d on %q", len(got), pub.topic)
	}
	for _, e := range got {
		if e.Message == "publish failed" && e.Count != 3 {
			t.Fatalf("expected count 3, got %d", e.Count)
		}
	}
}

func TestCollectorThresholdFlush(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Topic: "logs", Publisher: pub})
	c.AddLog("error", "a", nil, "x.go:1")
	c.AddLog("error", "b", nil, "x.go:2")
	c.Close()
	if n := len(pub.entries()); n != 2 {
		t.Fatalf("expected threshold flush of 2 entries, got %d", n)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(&Config{Level: "loud", Output: "stdout"}); err == nil {
		t.Fatalf("expected invalid level error")
	}
}
