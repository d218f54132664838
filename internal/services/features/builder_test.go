package features

import (
	"bytes"
	"encoding/json"
	"math"
	"math/rand"
	"testing"
	"time"

	"NextClose/internal/domain/models"
)

var day0 = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC) // a Monday

func series(ticker string, closes []float64) []models.RawRecord {
	out := make([]models.RawRecord, len(closes))
	for i, c := range closes {
		out[i] = models.RawRecord{
			Ticker: ticker,
			Date:   day0.AddDate(0, 0, i),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: int64(1000 + 10*i),
		}
	}
	return out
}

func increasing(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestTransformUnknownTicker(t *testing.T) {
	rows := Transform(series("ABC", increasing(40)), "XYZ")
	if rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", rows)
	}
	if got := Transform(nil, "ABC"); len(got) != 0 {
		t.Fatalf("expected empty result for empty table, got %d rows", len(got))
	}
}

func TestTransformShortSeries(t *testing.T) {
	for n := 0; n < MinRecords; n++ {
		if got := Transform(series("ABC", increasing(n)), "ABC"); len(got) != 0 {
			t.Fatalf("n=%d: expected no rows, got %d", n, len(got))
		}
	}
	if got := Transform(series("ABC", increasing(MinRecords)), "ABC"); len(got) != 1 {
		t.Fatalf("n=%d: expected 1 row, got %d", MinRecords, len(got))
	}
}

func TestTransformRowCount(t *testing.T) {
	rows := Transform(series("ABC", increasing(25)), "ABC")
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if !rows[0].Date.Equal(day0.AddDate(0, 0, LongWindow)) {
		t.Fatalf("first row date %v", rows[0].Date)
	}
	for i := 1; i < len(rows); i++ {
		if !rows[i].Date.After(rows[i-1].Date) {
			t.Fatalf("rows not in ascending date order at %d", i)
		}
	}
}

func TestTransformZeroCloseDropsFollowingRow(t *testing.T) {
	closes := increasing(40)
	closes[25] = 0
	rows := Transform(series("ABC", closes), "ABC")

	// rows 20..38 minus the day whose return divides by the zero close
	if len(rows) != 18 {
		t.Fatalf("expected 18 rows, got %d", len(rows))
	}
	skipped := day0.AddDate(0, 0, 26)
	for _, r := range rows {
		if r.Date.Equal(skipped) {
			t.Fatalf("row after zero close must be dropped")
		}
		if math.IsInf(r.DailyReturn, 0) || math.IsInf(r.CumReturn, 0) {
			t.Fatalf("infinite feature on %v", r.Date)
		}
	}
	if !rows[5].Date.Equal(day0.AddDate(0, 0, 25)) || !rows[6].Date.Equal(day0.AddDate(0, 0, 27)) {
		t.Fatalf("unexpected dates around zero close: %v, %v", rows[5].Date, rows[6].Date)
	}
}

func TestTransformFeatureValues(t *testing.T) {
	rows := Transform(series("ABC", increasing(25)), "ABC")
	r := rows[0] // index 20, close 21
	checks := []struct {
		name      string
		got, want float64
	}{
		{"close", r.Close, 21},
		{"daily_return", r.DailyReturn, 1.0 / 20.0},
		{"close_ma_5", r.CloseMA5, 19},
		{"close_ma_20", r.CloseMA20, 11.5},
		{"close_std_5", r.CloseStd5, math.Sqrt(2.5)},
		{"cum_return", r.CumReturn, 20},
		{"open_ma_5", r.OpenMA5, 18.5},
		{"open_ma_20", r.OpenMA20, 11},
		{"volume_ma_5", r.VolumeMA5, 1180},
		{"volume_ma_20", r.VolumeMA20, 1105},
		{"prev_close", r.PrevClose, 20},
		{"next_close", r.NextClose, 22},
	}
	for _, c := range checks {
		if !almostEqual(c.got, c.want) {
			t.Fatalf("%s=%v want %v", c.name, c.got, c.want)
		}
	}
	if r.PrevVolume != 1190 {
		t.Fatalf("prev_volume=%d want 1190", r.PrevVolume)
	}
	if r.CloseDirection != models.DirectionAbove || r.VolumeDirection != models.DirectionAbove {
		t.Fatalf("unexpected directions %s/%s", r.CloseDirection, r.VolumeDirection)
	}
	// 2024-01-21 is a Sunday
	if r.DayOfWeek != 6 || r.Month != 1 {
		t.Fatalf("calendar features dow=%d month=%d", r.DayOfWeek, r.Month)
	}
}

func TestTransformConstantSeries(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 42.5
	}
	rows := Transform(series("ABC", closes), "ABC")
	if len(rows) != 30-LongWindow-1 {
		t.Fatalf("expected %d rows, got %d", 30-LongWindow-1, len(rows))
	}
	for _, r := range rows {
		if r.DailyReturn != 0 || r.CumReturn != 0 || r.CloseStd5 != 0 {
			t.Fatalf("unexpected stats on constant series: %+v", r)
		}
		if r.CloseMA5 != 42.5 || r.CloseMA20 != 42.5 {
			t.Fatalf("unexpected moving averages: %v %v", r.CloseMA5, r.CloseMA20)
		}
		if r.CloseDirection != models.DirectionEqual {
			t.Fatalf("constant close must be equal, got %s", r.CloseDirection)
		}
	}
}

func TestTransformLabelAlignmentUnsortedInput(t *testing.T) {
	recs := series("ABC", increasing(30))
	shuffled := make([]models.RawRecord, len(recs))
	copy(shuffled, recs)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	byDate := map[time.Time]float64{}
	for _, r := range recs {
		byDate[r.Date] = r.Close
	}
	last := recs[len(recs)-1].Date

	rows := Transform(shuffled, "ABC")
	if len(rows) == 0 {
		t.Fatalf("expected rows")
	}
	for _, r := range rows {
		if r.Date.Equal(last) {
			t.Fatalf("last record must be excluded")
		}
		next, ok := byDate[r.Date.AddDate(0, 0, 1)]
		if !ok || r.NextClose != next {
			t.Fatalf("row %v next_close=%v want %v", r.Date, r.NextClose, next)
		}
	}
}

func TestTransformFiltersByTicker(t *testing.T) {
	table := append(series("ABC", increasing(25)), series("DEF", increasing(40))...)
	if got := Transform(table, "ABC"); len(got) != 4 {
		t.Fatalf("ABC: expected 4 rows, got %d", len(got))
	}
	for _, r := range Transform(table, "DEF") {
		if r.Ticker != "DEF" {
			t.Fatalf("leaked ticker %s", r.Ticker)
		}
	}
	if got := Transform(table, "abc"); len(got) != 0 {
		t.Fatalf("filter must be exact-match, got %d rows", len(got))
	}
}

func TestTransformDeterministic(t *testing.T) {
	table := series("ABC", increasing(60))
	a, err := json.Marshal(Transform(table, "ABC"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(Transform(table, "ABC"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("transform is not deterministic")
	}
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	table := series("ABC", increasing(25))
	table[0], table[24] = table[24], table[0]
	first := table[0].Date
	_ = Transform(table, "ABC")
	if !table[0].Date.Equal(first) {
		t.Fatalf("input table was reordered")
	}
}

func TestMatrixDropsDateAndLabel(t *testing.T) {
	rows := Transform(series("ABC", increasing(25)), "ABC")
	m := Matrix(rows)
	if m.Rows() != len(rows) {
		t.Fatalf("rows=%d want %d", m.Rows(), len(rows))
	}
	if m.NumericIndex("next_close") != -1 || m.NumericIndex("date") != -1 {
		t.Fatalf("label/date leaked into matrix")
	}
	if len(m.Numeric[0]) != len(models.NumericColumns) || len(m.Categorical[0]) != len(models.CategoricalColumns) {
		t.Fatalf("unexpected row widths %d/%d", len(m.Numeric[0]), len(m.Categorical[0]))
	}
	last := len(rows) - 1
	if got := m.Numeric[last][m.NumericIndex("close")]; got != rows[last].Close {
		t.Fatalf("close=%v want %v", got, rows[last].Close)
	}
	if got := m.Categorical[last][m.CategoricalIndex("ticker")]; got != "ABC" {
		t.Fatalf("ticker=%s", got)
	}
}
