package clickhouse

import (
	"context"
	"net/url"
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	cfg := ClientConfig{
		Host:        "ch.local",
		Port:        9000,
		Database:    "market",
		User:        "reader",
		Password:    "p@ss",
		DialTimeout: 5 * time.Second,
		MaxExecTime: 90 * time.Second,
	}
	u, err := url.Parse(buildDSN(cfg))
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	if u.Scheme != "clickhouse" || u.Host != "ch.local:9000" || u.Path != "/market" {
		t.Fatalf("unexpected dsn: %s", u)
	}
	if pw, _ := u.User.Password(); pw != "p@ss" {
		t.Fatalf("password not escaped: %s", u)
	}
	q := u.Query()
	if q.Get("dial_timeout") != "5s" || q.Get("max_execution_time") != "90" {
		t.Fatalf("unexpected query: %v", q)
	}
	if q.Has("read_timeout") {
		t.Fatalf("read_timeout should be omitted when zero")
	}

	cfg.UseHTTP = true
	if u, _ := url.Parse(buildDSN(cfg)); u.Scheme != "http" {
		t.Fatalf("expected http scheme, got %s", u.Scheme)
	}
}

func TestOptionsKeepDefaults(t *testing.T) {
	cfg := &ClientConfig{Port: 9000, Database: "default", User: "default", DialTimeout: time.Second}
	for _, opt := range []ClientOption{WithPort(0), WithDatabase(""), WithCredentials("", "x"), WithTimeouts(0, 2*time.Second)} {
		opt(cfg)
	}
	if cfg.Port != 9000 || cfg.Database != "default" || cfg.User != "default" || cfg.Password != "x" {
		t.Fatalf("defaults overwritten: %+v", cfg)
	}
	if cfg.DialTimeout != time.Second || cfg.ReadTimeout != 2*time.Second {
		t.Fatalf("timeouts: %+v", cfg)
	}
}

func TestNewClientRequiresHost(t *testing.T) {
	if _, err := NewClient(context.Background()); err == nil {
		t.Fatalf("expected error without host")
	}
}
