package bracket

import (
	"strings"
	"time"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	"github.com/google/uuid"
)

type MatchStatus string

const (
	// MatchPending is a later-round match still waiting for one of its teams.
	MatchPending   MatchStatus = "PENDING"
	MatchScheduled MatchStatus = "SCHEDULED"
	MatchOngoing   MatchStatus = "ONGOING"
	MatchCompleted MatchStatus = "COMPLETED"
)

// ParseMatchStatus also accepts IN_PROGRESS, the name the broadcast overlay
// historically used for ONGOING.
func ParseMatchStatus(s string) (MatchStatus, error) {
	switch status := strings.ToUpper(strings.TrimSpace(s)); status {
	case "IN_PROGRESS":
		return MatchOngoing, nil
	case string(MatchPending), string(MatchScheduled), string(MatchOngoing), string(MatchCompleted):
		return MatchStatus(status), nil
	}
	return "", apperr.E(apperr.ValidationFailed, "Statut de match inconnu : %q", s)
}

type Slot int

const (
	SlotA Slot = 1
	SlotB Slot = 2
)

func (s Slot) String() string {
	if s == SlotB {
		return "B"
	}
	return "A"
}

type Match struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournamentId"`

	// Round is the display label, RoundNumber and MatchNumber locate the
	// match in the bracket.
	Round       string `db:"round" json:"round"`
	RoundNumber int    `db:"round_number" json:"roundNumber"`
	MatchNumber int    `db:"match_number" json:"matchNumber"`

	TeamAID *uuid.UUID `db:"team_a_id" json:"teamAId"`
	TeamBID *uuid.UUID `db:"team_b_id" json:"teamBId"`

	ScoreA int         `db:"score_a" json:"scoreA"`
	ScoreB int         `db:"score_b" json:"scoreB"`
	Status MatchStatus `db:"status" json:"status"`

	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduledAt,omitempty"`
	WinnerID    *uuid.UUID `db:"winner_id" json:"winnerId"`

	NextMatchID *uuid.UUID `db:"next_match_id" json:"-"`
	NextSlot    *Slot      `db:"next_slot" json:"-"`

	IsBye bool `db:"is_bye" json:"isBye"`

	CreatedAt time.Time `db:"created_at" json:"-"`
}

func (m *Match) HasBothTeams() bool {
	return m.TeamAID != nil && m.TeamBID != nil
}

func (m *Match) HasTeam(teamID uuid.UUID) bool {
	return (m.TeamAID != nil && *m.TeamAID == teamID) || (m.TeamBID != nil && *m.TeamBID == teamID)
}

// IsFinal checks the bracket link first, the label is only a fallback for
// rows written without links.
func (m *Match) IsFinal() bool {
	return m.NextMatchID == nil || strings.Contains(m.Round, FinalLabel)
}

// Loser is only meaningful once a winner is set on a match with both teams.
func (m *Match) Loser() *uuid.UUID {
	if m.WinnerID == nil || !m.HasBothTeams() {
		return nil
	}
	if *m.WinnerID == *m.TeamAID {
		return m.TeamBID
	}
	return m.TeamAID
}

// Decide records the winner from the scores. Ties are refused because a
// single-elimination match needs a team to move on.
func (m *Match) Decide(scoreA, scoreB int) error {
	if !m.HasBothTeams() {
		return apperr.NewInvalidState("Les deux équipes doivent être connues pour terminer le match")
	}
	if scoreA == scoreB {
		return apperr.NewValidationFailed("Un match à élimination directe ne peut pas se terminer sur une égalité")
	}

	m.ScoreA = scoreA
	m.ScoreB = scoreB
	m.Status = MatchCompleted
	if scoreA > scoreB {
		m.WinnerID = m.TeamAID
	} else {
		m.WinnerID = m.TeamBID
	}
	return nil
}

// Fill puts a team into one slot. It returns true when the match just became
// playable, which only happens once per match.
func (m *Match) Fill(slot Slot, teamID uuid.UUID) (bool, error) {
	target := &m.TeamAID
	if slot == SlotB {
		target = &m.TeamBID
	}
	if *target != nil {
		if **target == teamID {
			return false, nil
		}
		return false, apperr.E(apperr.InvalidState, "Le slot %s du match %d est déjà occupé", slot, m.MatchNumber)
	}

	id := teamID
	*target = &id

	if m.HasBothTeams() && m.Status == MatchPending {
		m.Status = MatchScheduled
		return true, nil
	}
	return false, nil
}
