package models

import (
	"fmt"
	"time"
)

// FinalSignal is a generated, actionable trading signal.
type FinalSignal struct {
	ID                string         `json:"id"`
	Symbol            string         `json:"symbol"`
	Score             float64        `json:"score"`
	Tier              SignalTier     `json:"tier"`
	Strength          SignalStrength `json:"strength"`
	Recommendation    Recommendation `json:"recommendation"`
	TargetProbability float64        `json:"target_probability"`
	Priority          float64        `json:"priority"`
	Price             float64        `json:"price"`
	HistoricalScore   float64        `json:"historical_score"`
	TechnicalScore    float64        `json:"technical_score"`
	ConfluenceScore   float64        `json:"confluence_score"`
	GeneratedAt       time.Time      `json:"generated_at"`
	ValidUntil        time.Time      `json:"valid_until"`
}

// IdempotencyKey identifies the signal for store-level dedup: one signal
// per symbol per dedup bucket.
func (s *FinalSignal) IdempotencyKey(window time.Duration) string {
	bucket := s.GeneratedAt.UTC().Truncate(window).Unix()
	return fmt.Sprintf("%s:%d", s.Symbol, bucket)
}

// Expired reports whether the signal is past its validity horizon.
func (s *FinalSignal) Expired(now time.Time) bool {
	return now.After(s.ValidUntil)
}

// SaveOutcome is the result of persisting a FinalSignal.
type SaveOutcome int

const (
	SaveStored SaveOutcome = iota
	SaveDuplicate
	SaveFailed
)

func (o SaveOutcome) String() string {
	switch o {
	case SaveStored:
		return "stored"
	case SaveDuplicate:
		return "duplicate"
	default:
		return "failed"
	}
}
