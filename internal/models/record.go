package models

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RawRow is one table row as handed over by the ingestion collaborator.
// Pointer fields are nil when the source cell was blank or unparseable.
type RawRow struct {
	Player      string             `json:"player" validate:"required"`
	Team        string             `json:"team,omitempty"`
	FPTS        *float64           `json:"fpts" validate:"required"`
	FPTSPerGame *float64           `json:"fpts_per_game,omitempty"`
	Games       *int               `json:"games,omitempty" validate:"omitempty,gte=0"`
	RosterPct   *float64           `json:"roster_pct,omitempty" validate:"omitempty,gte=0,lte=100"`
	Stats       map[string]float64 `json:"stats,omitempty"`
}

var rowValidator = validator.New()

// Validate checks the fields the core schema depends on.
func (r *RawRow) Validate() error {
	if strings.TrimSpace(r.Player) == "" {
		return errors.New("player identity must not be empty")
	}
	if err := rowValidator.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("field %s failed %q check", strings.ToLower(fe.Field()), fe.Tag())
		}
		return err
	}
	for name, v := range map[string]*float64{"fpts": r.FPTS, "fpts_per_game": r.FPTSPerGame, "roster_pct": r.RosterPct} {
		if v != nil && !finite(*v) {
			return fmt.Errorf("field %s is not a finite number", name)
		}
	}
	for k, v := range r.Stats {
		if !finite(v) {
			return fmt.Errorf("stat %s is not a finite number", k)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// WeeklyRecord is one immutable row for one player, position and week.
type WeeklyRecord struct {
	Key       string             `json:"key"`    // normalized identity
	Player    string             `json:"player"` // display name as ingested
	Team      string             `json:"team,omitempty"`
	Position  Position           `json:"position"`
	Week      int                `json:"week"` // FullSeasonWeek for the aggregate table
	Points    float64            `json:"fpts"`
	PerGame   float64            `json:"fpts_per_game"`
	Games     int                `json:"games"`
	RosterPct float64            `json:"roster_pct"`
	Stats     map[string]float64 `json:"stats,omitempty"`
	Seq       int                `json:"-"` // ingestion order within a position
}

// NewWeeklyRecord normalizes a validated raw row into a record.
// Points per game is forced to 0 when no games were played.
func NewWeeklyRecord(pos Position, week int, row RawRow) WeeklyRecord {
	rec := WeeklyRecord{
		Key:      IdentityKey(row.Player, row.Team),
		Player:   CleanName(row.Player),
		Team:     strings.TrimSpace(row.Team),
		Position: pos,
		Week:     week,
		Points:   *row.FPTS,
	}
	if row.Games != nil {
		rec.Games = *row.Games
	} else if week != FullSeasonWeek {
		// weekly tables list only players who played that week
		rec.Games = 1
	}
	if rec.Games > 0 {
		if row.FPTSPerGame != nil {
			rec.PerGame = *row.FPTSPerGame
		} else {
			rec.PerGame = rec.Points / float64(rec.Games)
		}
	}
	if row.RosterPct != nil {
		rec.RosterPct = *row.RosterPct
	}
	if len(row.Stats) > 0 {
		rec.Stats = make(map[string]float64, len(row.Stats))
		for k, v := range row.Stats {
			rec.Stats[k] = v
		}
	}
	return rec
}

// CleanName trims and collapses inner whitespace without changing case.
func CleanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IdentityKey builds the normalized composite key for a player.
// Formatting drift (case, spacing) never yields two different keys.
// When team is empty the player string is assumed to already carry it,
// as in the "Name (TEAM)" column format.
func IdentityKey(player, team string) string {
	key := strings.ToLower(CleanName(player))
	if t := strings.ToLower(CleanName(team)); t != "" {
		key += " (" + t + ")"
	}
	return key
}
