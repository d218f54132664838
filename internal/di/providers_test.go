package di

import (
	"os"
	"path/filepath"
	"testing"

	"NextClose/pkg/config"
	applogger "NextClose/pkg/logger"
)

func TestProvideRawSourceCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	data := "ativo;data;abertura;maximo;minimo;fechamento;volume\n" +
		"PETR4;2024.01.02;29.5;30.2;29.1;30.0;1200\n" +
		"PETR4;2024.01.03;30.1;30.9;29.8;30.5;1000\n" +
		"VALE3;2024.01.02;70;71;69;70.5;900\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := &config.Config{}
	cfg.Data.Source = "csv"
	cfg.Data.Path = path
	cfg.Data.Delimiter = ";"

	src, cleanup, err := ProvideRawSource(cfg, applogger.Nop())
	if err != nil {
		t.Fatalf("provide source: %v", err)
	}
	defer cleanup()

	table, err := ProvideRawTable(src, applogger.Nop())
	if err != nil {
		t.Fatalf("load table: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", table.Len())
	}
	if got := table.Tickers(); len(got) != 2 {
		t.Fatalf("expected 2 tickers, got %v", got)
	}
}

func TestProvideRawSourceCSVMissingFile(t *testing.T) {
	cfg := &config.Config{}
	cfg.Data.Path = filepath.Join(t.TempDir(), "absent.csv")

	src, cleanup, err := ProvideRawSource(cfg, applogger.Nop())
	if err != nil {
		t.Fatalf("provide source: %v", err)
	}
	defer cleanup()

	if _, err := ProvideRawTable(src, applogger.Nop()); err == nil {
		t.Fatal("expected load error for missing file")
	}
}
