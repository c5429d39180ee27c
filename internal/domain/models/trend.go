package models

import "time"

// TrendDirection describes how a symbol's unified score is evolving
// across recent analysis cycles.
type TrendDirection string

const (
	TrendStrengthening TrendDirection = "STRENGTHENING"
	TrendWeakening     TrendDirection = "WEAKENING"
	TrendStable        TrendDirection = "STABLE"
)

// TrendMagnitude grades the size of the direction shift.
type TrendMagnitude string

const (
	MagnitudeStrong   TrendMagnitude = "STRONG"
	MagnitudeModerate TrendMagnitude = "MODERATE"
)

// TrendSnapshot is the smoothed view of a symbol's recent results.
type TrendSnapshot struct {
	Symbol         string         `json:"symbol"`
	SampleCount    int            `json:"sample_count"`
	AvgTotal       float64        `json:"avg_total"`
	AvgHistorical  float64        `json:"avg_historical"`
	AvgTechnical   float64        `json:"avg_technical"`
	AvgConfluence  float64        `json:"avg_confluence"`
	AvgProbability float64        `json:"avg_probability"`
	Tier           SignalTier     `json:"tier"`
	Recommendation Recommendation `json:"recommendation"`
	Direction      TrendDirection `json:"direction"`
	Magnitude      TrendMagnitude `json:"magnitude"`
	Delta          float64        `json:"delta"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
