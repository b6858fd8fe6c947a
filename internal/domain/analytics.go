package domain

import "time"

// BasicStat holds descriptive statistics of error_count for one prefix.
type BasicStat struct {
	Prefix  string  `json:"prefix"`
	Count   float64 `json:"count"`
	Records int     `json:"records"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	Stddev  float64 `json:"stddev"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// StatsChartPoint is a BasicStat bucketed by to_date for charting.
type StatsChartPoint struct {
	Prefix *string   `json:"prefix"`
	ToDate time.Time `json:"to_date"`
	Count  float64   `json:"count"`
	Mean   float64   `json:"mean"`
	Median float64   `json:"median"`
	Stddev float64   `json:"stddev"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
}

// Trend is the fitted line of error_count over a prefix's upload sequence.
type Trend struct {
	Prefix    string  `json:"prefix"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Points    int     `json:"points"`
}

// TrendChartPoint pairs an observation with the fitted value at its index.
type TrendChartPoint struct {
	UploadID   string    `json:"upload_id"`
	ToDate     time.Time `json:"to_date"`
	ErrorCount int64     `json:"error_count"`
	Predict    float64   `json:"predict"`
}

// DiffCount counts upload-to-upload improvements and degradations of a prefix.
type DiffCount struct {
	Prefix       string `json:"prefix"`
	Improvements int    `json:"improvements"`
	Degradations int    `json:"degradations"`
}

// Comparison is the per-prefix delta between two uploads.
type Comparison struct {
	Prefix      string `json:"prefix"`
	ErrorCountA int64  `json:"error_count_1"`
	ErrorCountB int64  `json:"error_count_2"`
	Delta       int64  `json:"delta"`
}
