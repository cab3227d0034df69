package models

import "fmt"

// Status describes how a player fared in a single analysis.
type Status string

const (
	// StatusScored means the score field holds a finite value.
	StatusScored Status = "scored"
	// StatusInfiniteImprovement marks a breakout from a zero first-half mean.
	StatusInfiniteImprovement Status = "infinite_improvement"
	// StatusInsufficientData means the metric cannot be computed for the player.
	StatusInsufficientData Status = "insufficient_data"
)

// MalformedRecordError describes an input row that was skipped at ingestion.
type MalformedRecordError struct {
	Position Position
	Week     int
	Row      int // zero-based index within the batch
	Player   string
	Err      error
}

func (e MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %s week %d row %d (%q): %v", e.Position, e.Week, e.Row, e.Player, e.Err)
}

func (e MalformedRecordError) Unwrap() error {
	return e.Err
}
