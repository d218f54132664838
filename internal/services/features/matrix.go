package features

import (
	"slices"

	"NextClose/internal/domain/models"
)

// Matrix converts feature rows into the predictor input, dropping date and label.
func Matrix(rows []models.FeatureRow) models.Matrix {
	m := models.Matrix{
		NumericColumns:     slices.Clone(models.NumericColumns),
		CategoricalColumns: slices.Clone(models.CategoricalColumns),
		Numeric:            make([][]float64, 0, len(rows)),
		Categorical:        make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		m.Numeric = append(m.Numeric, []float64{
			r.Open, r.High, r.Low, r.Close, float64(r.Volume),
			r.DailyReturn, r.CloseMA5, r.CloseMA20, r.CloseStd5, r.CumReturn,
			r.OpenMA5, r.OpenMA20, r.VolumeMA5, r.VolumeMA20,
			r.PrevClose, float64(r.PrevVolume),
			float64(r.DayOfWeek), float64(r.Month),
		})
		m.Categorical = append(m.Categorical, []string{
			r.Ticker, string(r.CloseDirection), string(r.VolumeDirection),
		})
	}
	return m
}
