// Package models defines the core domain entities for fantasy-insights.
// These models represent weekly player statistic rows, per-player
// fantasy-point series, and the status values attached to analysis results.
//
// Terminology:
//   - Week: one weekly snapshot of a position table (1..N).
//   - Full season: the aggregate table for a position, stored under FullSeasonWeek.
//   - Identity: the normalized player key ("name (team)"), stable across weeks.
package models

import (
	"fmt"
	"strings"
)

// Position is one of the fixed fantasy football positions analysed.
type Position string

const (
	QB Position = "QB"
	RB Position = "RB"
	WR Position = "WR"
	TE Position = "TE"
)

// AllPositions lists positions in display order.
var AllPositions = []Position{QB, RB, WR, TE}

// ParsePosition accepts a position code in any case.
func ParsePosition(s string) (Position, error) {
	p := Position(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown position %q: must be one of QB, RB, WR, TE", s)
	}
	return p, nil
}

// Valid reports whether p is one of the supported positions.
func (p Position) Valid() bool {
	switch p {
	case QB, RB, WR, TE:
		return true
	}
	return false
}

// FullSeasonWeek is the week sentinel for the full-season aggregate table.
const FullSeasonWeek = 0

// WeekRange is an inclusive range of week indexes. A zero bound is open.
type WeekRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// AllWeeks matches every regular week (never the full-season sentinel).
var AllWeeks = WeekRange{}

// Contains reports whether week falls inside the range.
// The full-season sentinel is never contained.
func (r WeekRange) Contains(week int) bool {
	if week <= FullSeasonWeek {
		return false
	}
	if r.From > 0 && week < r.From {
		return false
	}
	if r.To > 0 && week > r.To {
		return false
	}
	return true
}
