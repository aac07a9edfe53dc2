package bracket

import (
	"fmt"
	"math/bits"
	"time"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	"github.com/AdamBeresnev/esport-cup/internal/utils"
	"github.com/google/uuid"
)

const (
	FinalLabel        = "Finale"
	SemiFinalLabel    = "Demi-finales"
	QuarterFinalLabel = "Quarts de finale"
)

// RoundCount is ceil(log2(teams)), 0 when no match can be played.
func RoundCount(teams int) int {
	if teams < 2 {
		return 0
	}
	return bits.Len(uint(teams - 1))
}

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func calcBracketSize(teams int) int {
	rounds := RoundCount(teams)
	if rounds == 0 {
		return 0
	}
	return 1 << rounds
}

// TotalMatches is the number of matches of a full bracket, byes included.
func TotalMatches(teams int) int {
	size := calcBracketSize(teams)
	if size == 0 {
		return 0
	}
	return size - 1
}

func RoundLabel(round, totalRounds int) string {
	switch totalRounds - round {
	case 0:
		return FinalLabel
	case 1:
		return SemiFinalLabel
	case 2:
		return QuarterFinalLabel
	default:
		return fmt.Sprintf("Round %d", round)
	}
}

// roundOffset is the number of matches played before the given round.
func roundOffset(round, totalRounds int) int {
	size := 1 << totalRounds
	return size - (size >> (round - 1))
}

// NextMatch tells which match and slot the winner of matchNumber feeds.
// Numbers run round by round, so with 8 teams 1-4 feed 5-6 and 5-6 feed 7.
func NextMatch(matchNumber, totalRounds int) (int, Slot, bool) {
	if totalRounds < 1 || matchNumber < 1 || matchNumber >= 1<<totalRounds {
		return 0, 0, false
	}

	size := 1 << totalRounds
	for round := 1; round <= totalRounds; round++ {
		offset := roundOffset(round, totalRounds)
		if matchNumber > offset+size>>round {
			continue
		}
		if round == totalRounds {
			return 0, 0, false
		}

		index := matchNumber - offset - 1
		next := roundOffset(round+1, totalRounds) + index/2 + 1
		if index%2 == 0 {
			return next, SlotA, true
		}
		return next, SlotB, true
	}
	return 0, 0, false
}

type PlanOptions struct {
	Start        time.Time
	MatchSpacing time.Duration
	RoundSpacing time.Duration
}

// Plan builds every match of a single elimination bracket for teams given in
// registration order. Byes are packed at the end of the first round so that
// no first-round match is left empty; a bye is created already completed and
// its team is placed in the next match.
func Plan(tournamentID uuid.UUID, teamIDs []uuid.UUID, opts PlanOptions) ([]Match, error) {
	n := len(teamIDs)
	if n < 2 {
		return nil, apperr.E(apperr.ValidationFailed, "Il faut au moins 2 équipes acceptées pour générer le bracket (%d actuellement)", n)
	}

	totalRounds := RoundCount(n)
	size := calcBracketSize(n)
	matches := make([]Match, size-1)

	for r := 1; r <= totalRounds; r++ {
		roundStart := opts.Start.Add(time.Duration(r-1) * opts.RoundSpacing)
		for i := 0; i < size>>r; i++ {
			number := roundOffset(r, totalRounds) + i + 1
			matches[number-1] = Match{
				ID:           uuid.New(),
				TournamentID: tournamentID,
				Round:        RoundLabel(r, totalRounds),
				RoundNumber:  r,
				MatchNumber:  number,
				Status:       MatchPending,
				ScheduledAt:  utils.Ptr(roundStart.Add(time.Duration(i) * opts.MatchSpacing)),
			}
		}
	}

	for i := range matches {
		next, slot, ok := NextMatch(matches[i].MatchNumber, totalRounds)
		if !ok {
			continue
		}
		matches[i].NextMatchID = utils.Ptr(matches[next-1].ID)
		matches[i].NextSlot = utils.Ptr(slot)
	}

	firstRound := size / 2
	fullMatches := firstRound - (size - n)
	seat := 0
	for i := 0; i < firstRound; i++ {
		m := &matches[i]
		m.Status = MatchScheduled
		m.TeamAID = utils.Ptr(teamIDs[seat])
		seat++

		if i < fullMatches {
			m.TeamBID = utils.Ptr(teamIDs[seat])
			seat++
			continue
		}

		m.IsBye = true
		m.Status = MatchCompleted
		m.WinnerID = m.TeamAID
		if next, slot, ok := NextMatch(m.MatchNumber, totalRounds); ok {
			if _, err := matches[next-1].Fill(slot, *m.WinnerID); err != nil {
				return nil, err
			}
		}
	}

	return matches, nil
}
