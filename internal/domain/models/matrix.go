package models

// Column names of the predictor input matrix, in order.
var (
	NumericColumns = []string{
		"open", "high", "low", "close", "volume",
		"daily_return", "close_ma_5", "close_ma_20", "close_std_5", "cum_return",
		"open_ma_5", "open_ma_20", "volume_ma_5", "volume_ma_20",
		"prev_close", "prev_volume",
		"day_of_week", "month",
	}
	CategoricalColumns = []string{"ticker", "close_direction", "volume_direction"}
)

// Matrix is the row-major feature matrix handed to predictors.
// Date and label columns are never part of it.
type Matrix struct {
	NumericColumns     []string    `json:"numeric_columns"`
	CategoricalColumns []string    `json:"categorical_columns"`
	Numeric            [][]float64 `json:"numeric"`
	Categorical        [][]string  `json:"categorical"`
}

// Rows returns the number of rows.
func (m Matrix) Rows() int { return len(m.Numeric) }

// NumericIndex returns the position of a numeric column or -1.
func (m Matrix) NumericIndex(name string) int {
	for i, c := range m.NumericColumns {
		if c == name {
			return i
		}
	}
	return -1
}

// CategoricalIndex returns the position of a categorical column or -1.
func (m Matrix) CategoricalIndex(name string) int {
	for i, c := range m.CategoricalColumns {
		if c == name {
			return i
		}
	}
	return -1
}
