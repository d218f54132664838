package models

import "time"

// Direction classifies a value against the previous observation.
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
	DirectionEqual Direction = "equal"
)

// FeatureRow is a fully-defined engineered row for one trading day.
// Rows with any undefined field are never materialized.
type FeatureRow struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`

	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`

	DailyReturn float64 `json:"daily_return"`
	CloseMA5    float64 `json:"close_ma_5"`
	CloseMA20   float64 `json:"close_ma_20"`
	CloseStd5   float64 `json:"close_std_5"`
	CumReturn   float64 `json:"cum_return"`
	OpenMA5     float64 `json:"open_ma_5"`
	OpenMA20    float64 `json:"open_ma_20"`
	VolumeMA5   float64 `json:"volume_ma_5"`
	VolumeMA20  float64 `json:"volume_ma_20"`

	PrevClose  float64 `json:"prev_close"`
	PrevVolume int64   `json:"prev_volume"`

	CloseDirection  Direction `json:"close_direction"`
	VolumeDirection Direction `json:"volume_direction"`

	DayOfWeek int `json:"day_of_week"` // 0=Monday
	Month     int `json:"month"`

	// NextClose is the label; only training consumers read it.
	NextClose float64 `json:"next_close"`
}
