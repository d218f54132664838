package models

import "time"

// RawRecord is one daily OHLCV observation of a ticker as stored in the raw table.
type RawRecord struct {
	Ticker string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// DateLayout is the textual date format of the raw table files.
const DateLayout = "2006.01.02"
