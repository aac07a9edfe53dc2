package views

import (
	"sort"

	"github.com/AdamBeresnev/esport-cup/internal/bracket"
	"github.com/google/uuid"
)

type BracketData struct {
	Rounds    map[int][]bracket.Match
	RoundNums []int
	Labels    map[int]string
	TeamNames map[uuid.UUID]string
}

// PrepareBracketData groups matches into rounds for the bracket columns.
func PrepareBracketData(teamNames map[uuid.UUID]string, matches []bracket.Match) BracketData {
	rounds := make(map[int][]bracket.Match)
	labels := make(map[int]string)
	var roundNums []int

	for _, m := range matches {
		if _, exists := rounds[m.RoundNumber]; !exists {
			roundNums = append(roundNums, m.RoundNumber)
			labels[m.RoundNumber] = m.Round
		}
		rounds[m.RoundNumber] = append(rounds[m.RoundNumber], m)
	}

	sort.Ints(roundNums)
	sortRounds(rounds, roundNums)

	return BracketData{
		Rounds:    rounds,
		RoundNums: roundNums,
		Labels:    labels,
		TeamNames: teamNames,
	}
}

func sortRounds(rounds map[int][]bracket.Match, roundNums []int) {
	for _, r := range roundNums {
		sort.Slice(rounds[r], func(i, j int) bool {
			return rounds[r][i].MatchNumber < rounds[r][j].MatchNumber
		})
	}
}

// SlotName is what a bracket cell shows for one side of a match.
func (d BracketData) SlotName(m bracket.Match, teamID *uuid.UUID) string {
	if teamID == nil {
		if m.IsBye {
			return "Exempt"
		}
		return "À déterminer"
	}
	if name, ok := d.TeamNames[*teamID]; ok {
		return name
	}
	return "Équipe inconnue"
}
