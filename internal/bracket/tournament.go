package bracket

import (
	"strings"
	"time"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentUpcoming         TournamentStatus = "UPCOMING"
	TournamentRegistrationOpen TournamentStatus = "REGISTRATION_OPEN"
	TournamentOngoing          TournamentStatus = "ONGOING"
	TournamentCompleted        TournamentStatus = "COMPLETED"
)

func ParseTournamentStatus(s string) (TournamentStatus, error) {
	switch status := TournamentStatus(strings.ToUpper(strings.TrimSpace(s))); status {
	case TournamentUpcoming, TournamentRegistrationOpen, TournamentOngoing, TournamentCompleted:
		return status, nil
	}
	return "", apperr.E(apperr.ValidationFailed, "Statut de tournoi inconnu : %q", s)
}

type BracketFormat string

// Only SingleElimination can be generated, the other formats exist so that
// tournaments announced with them can be stored and displayed.
const (
	SingleElimination BracketFormat = "SINGLE_ELIMINATION"
	DoubleElimination BracketFormat = "DOUBLE_ELIMINATION"
	RoundRobin        BracketFormat = "ROUND_ROBIN"
)

func ParseBracketFormat(s string) (BracketFormat, error) {
	switch format := BracketFormat(strings.ToUpper(strings.TrimSpace(s))); format {
	case "":
		return SingleElimination, nil
	case SingleElimination, DoubleElimination, RoundRobin:
		return format, nil
	}
	return "", apperr.E(apperr.ValidationFailed, "Format de bracket inconnu : %q", s)
}

// MatchFormat is descriptive only, scores are not checked against it.
type MatchFormat string

const (
	BestOf1 MatchFormat = "BO1"
	BestOf3 MatchFormat = "BO3"
	BestOf5 MatchFormat = "BO5"
)

func ParseMatchFormat(s string) (MatchFormat, error) {
	switch format := MatchFormat(strings.ToUpper(strings.TrimSpace(s))); format {
	case "":
		return BestOf1, nil
	case BestOf1, BestOf3, BestOf5:
		return format, nil
	}
	return "", apperr.E(apperr.ValidationFailed, "Format de match inconnu : %q", s)
}

type Tournament struct {
	ID                   uuid.UUID        `db:"id" json:"id"`
	Name                 string           `db:"name" json:"name"`
	Slug                 string           `db:"slug" json:"slug"`
	Game                 string           `db:"game" json:"game"`
	Status               TournamentStatus `db:"status" json:"status"`
	MaxTeams             int              `db:"max_teams" json:"maxTeams"`
	BracketFormat        BracketFormat    `db:"bracket_format" json:"bracketFormat"`
	MatchFormat          MatchFormat      `db:"match_format" json:"matchFormat"`
	RegistrationOpensAt  *time.Time       `db:"registration_opens_at" json:"registrationOpensAt,omitempty"`
	RegistrationClosesAt *time.Time       `db:"registration_closes_at" json:"registrationClosesAt,omitempty"`
	StartDate            *time.Time       `db:"start_date" json:"startDate,omitempty"`
	EndDate              *time.Time       `db:"end_date" json:"endDate,omitempty"`
	StreamURL            *string          `db:"stream_url" json:"streamUrl,omitempty"`
	ChampionTeamID       *uuid.UUID       `db:"champion_team_id" json:"championTeamId,omitempty"`
	CreatedBy            uuid.UUID        `db:"created_by" json:"-"`
	CreatedAt            time.Time        `db:"created_at" json:"createdAt"`
}

// RegistrationOpenAt reports whether a team may register at the given time.
func (t *Tournament) RegistrationOpenAt(now time.Time) bool {
	if t.Status != TournamentRegistrationOpen {
		return false
	}
	return t.RegistrationClosesAt == nil || now.Before(*t.RegistrationClosesAt)
}
