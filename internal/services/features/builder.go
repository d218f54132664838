package features

import (
	"math"
	"slices"

	"NextClose/internal/domain/models"
)

const (
	ShortWindow = 5
	LongWindow  = 20
)

// MinRecords is the shortest series that can yield a feature row: a full long window of
// observations carrying a previous close, plus the day whose close becomes the label.
const MinRecords = LongWindow + 2

// Transform builds the ordered feature rows of ticker from the raw table.
// It never fails: an unknown ticker or a series too short to produce a complete row
// yields an empty slice.
func Transform(table []models.RawRecord, ticker string) []models.FeatureRow {
	recs := make([]models.RawRecord, 0, 256)
	for _, r := range table {
		if r.Ticker == ticker {
			recs = append(recs, r)
		}
	}
	if len(recs) == 0 {
		return []models.FeatureRow{}
	}
	slices.SortStableFunc(recs, func(a, b models.RawRecord) int {
		return a.Date.Compare(b.Date)
	})

	n := len(recs)
	closes := make([]float64, n)
	opens := make([]float64, n)
	vols := make([]float64, n)
	for i, r := range recs {
		closes[i] = r.Close
		opens[i] = r.Open
		vols[i] = float64(r.Volume)
	}

	ret := PctChange(closes)
	closeMA5 := RollingMean(closes, ShortWindow)
	closeMA20 := RollingMean(closes, LongWindow)
	closeStd5 := RollingStd(closes, ShortWindow)
	cum := CumReturn(ret)
	openMA5 := RollingMean(opens, ShortWindow)
	openMA20 := RollingMean(opens, LongWindow)
	volMA5 := RollingMean(vols, ShortWindow)
	volMA20 := RollingMean(vols, LongWindow)
	prevClose := Shift(closes, 1)
	prevVol := Shift(vols, 1)
	nextClose := Shift(closes, -1)

	out := make([]models.FeatureRow, 0, max(n-MinRecords+1, 0))
	for i, r := range recs {
		// The long window must only span observations that carry a previous close.
		// The first observation never does, so index LongWindow is the earliest candidate.
		if i < LongWindow {
			continue
		}
		if anyUndefined(ret[i], closeMA5[i], closeMA20[i], closeStd5[i], cum[i],
			openMA5[i], openMA20[i], volMA5[i], volMA20[i],
			prevClose[i], prevVol[i], nextClose[i]) {
			continue
		}
		out = append(out, models.FeatureRow{
			Ticker:          r.Ticker,
			Date:            r.Date,
			Open:            r.Open,
			High:            r.High,
			Low:             r.Low,
			Close:           r.Close,
			Volume:          r.Volume,
			DailyReturn:     ret[i],
			CloseMA5:        closeMA5[i],
			CloseMA20:       closeMA20[i],
			CloseStd5:       closeStd5[i],
			CumReturn:       cum[i],
			OpenMA5:         openMA5[i],
			OpenMA20:        openMA20[i],
			VolumeMA5:       volMA5[i],
			VolumeMA20:      volMA20[i],
			PrevClose:       prevClose[i],
			PrevVolume:      int64(prevVol[i]),
			CloseDirection:  Compare(closes[i], prevClose[i]),
			VolumeDirection: Compare(vols[i], prevVol[i]),
			DayOfWeek:       weekdayIndex(r),
			Month:           int(r.Date.Month()),
			NextClose:       nextClose[i],
		})
	}
	return out
}

func anyUndefined(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// weekdayIndex maps Monday..Sunday to 0..6.
func weekdayIndex(r models.RawRecord) int {
	return (int(r.Date.Weekday()) + 6) % 7
}
