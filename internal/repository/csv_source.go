package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"NextClose/internal/domain/models"
	domrepo "NextClose/internal/domain/repository"
	"NextClose/pkg/util"
)

// csvColumns is the expected header of the raw table file.
var csvColumns = []string{"ticker", "date", "open", "high", "low", "close", "volume"}

// CSVSource reads the raw table from a delimited file with a header row.
type CSVSource struct {
	path  string
	comma rune
}

func NewCSVSource(path string, comma rune) *CSVSource {
	if comma == 0 {
		comma = ','
	}
	return &CSVSource{path: path, comma: comma}
}

func (s *CSVSource) Name() string { return "csv:" + s.path }

func (s *CSVSource) Load(ctx context.Context) ([]models.RawRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open raw table: %w", err)
	}
	defer f.Close()
	return ReadCSV(ctx, f, s.comma)
}

// ReadCSV decodes raw records. Columns are positional; the header row is skipped.
func ReadCSV(ctx context.Context, r io.Reader, comma rune) ([]models.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = len(csvColumns)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	out := make([]models.RawRecord, 0, 4096)
	for {
		if len(out)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		r, err := parseCSVRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func parseCSVRecord(rec []string) (models.RawRecord, error) {
	var r models.RawRecord
	r.Ticker = strings.TrimSpace(rec[0])
	d, err := util.ParseDate(rec[1])
	if err != nil {
		return r, err
	}
	r.Date = d
	prices := []*float64{&r.Open, &r.High, &r.Low, &r.Close}
	for i, dst := range prices {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[2+i]), 64)
		if err != nil {
			return r, fmt.Errorf("%s: %w", csvColumns[2+i], err)
		}
		*dst = v
	}
	vol := strings.TrimSpace(rec[6])
	if r.Volume, err = strconv.ParseInt(vol, 10, 64); err != nil {
		// some exports write volume as a float
		fv, ferr := strconv.ParseFloat(vol, 64)
		if ferr != nil {
			return r, fmt.Errorf("volume: %w", err)
		}
		r.Volume = int64(fv)
	}
	return r, nil
}

var _ domrepo.RawSource = (*CSVSource)(nil)
