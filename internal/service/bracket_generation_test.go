package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	"github.com/AdamBeresnev/esport-cup/internal/bracket"
	"github.com/AdamBeresnev/esport-cup/internal/metrics"
	"github.com/AdamBeresnev/esport-cup/internal/team"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAcceptedTeams(t *testing.T, f *fixture, tournament *bracket.Tournament, n int) []*team.Team {
	t.Helper()
	teams := make([]*team.Team, n)
	for i := range teams {
		teams[i], _ = f.seedTeam(t, fmt.Sprintf("Team %d", i+1), 1)
	}
	f.acceptTeams(t, tournament, teams...)
	return teams
}

func TestGenerateBracketNeedsTwoTeams(t *testing.T) {
	for _, n := range []int{0, 1} {
		t.Run(fmt.Sprintf("%d teams", n), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			tournament := f.seedTournament(t, "Small Cup", 8)
			seedAcceptedTeams(t, f, tournament, n)

			_, err := f.brackets.GenerateBracket(ctx, f.staff, tournament.ID)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.ValidationFailed))

			count, err := f.tournamentStore.CountMatches(ctx, tournament.ID)
			require.NoError(t, err)
			assert.Zero(t, count)

			stored, err := f.tournamentStore.GetTournament(ctx, tournament.ID)
			require.NoError(t, err)
			assert.Equal(t, bracket.TournamentRegistrationOpen, stored.Status)
		})
	}
}

func TestGenerateBracketEightTeams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournament := f.seedTournament(t, "Major", 8)
	teams := seedAcceptedTeams(t, f, tournament, 8)
	generated := testutil.ToFloat64(metrics.BracketsGenerated)

	matches, err := f.brackets.GenerateBracket(ctx, f.staff, tournament.ID)
	require.NoError(t, err)
	require.Len(t, matches, 7)
	assert.Equal(t, generated+1, testutil.ToFloat64(metrics.BracketsGenerated))

	stored, err := f.tournamentStore.GetMatches(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, stored, 7)

	for i := 0; i < 4; i++ {
		m := stored[i]
		assert.Equal(t, 1, m.RoundNumber)
		assert.Equal(t, bracket.QuarterFinalLabel, m.Round)
		assert.Equal(t, bracket.MatchScheduled, m.Status)
		assert.False(t, m.IsBye)
		assert.Equal(t, teams[2*i].ID, *m.TeamAID, "teams are paired in registration order")
		assert.Equal(t, teams[2*i+1].ID, *m.TeamBID)
	}
	for _, m := range stored[4:6] {
		assert.Equal(t, bracket.SemiFinalLabel, m.Round)
		assert.Equal(t, bracket.MatchPending, m.Status)
		assert.Nil(t, m.TeamAID)
		assert.Nil(t, m.TeamBID)
	}
	final := stored[6]
	assert.Equal(t, bracket.FinalLabel, final.Round)
	assert.Nil(t, final.NextMatchID)
	assert.True(t, final.IsFinal())

	assert.Equal(t, stored[4].ID, *stored[0].NextMatchID)
	assert.Equal(t, bracket.SlotA, *stored[0].NextSlot)
	assert.Equal(t, stored[4].ID, *stored[1].NextMatchID)
	assert.Equal(t, bracket.SlotB, *stored[1].NextSlot)

	refreshed, err := f.tournamentStore.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentOngoing, refreshed.Status)

	logs, err := f.notifications.ListStaffLogs(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, "bracket_generated", logs[0].Action)
}

func TestGenerateBracketWithByes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournament := f.seedTournament(t, "Odd Cup", 8)
	teams := seedAcceptedTeams(t, f, tournament, 5)

	_, err := f.brackets.GenerateBracket(ctx, f.staff, tournament.ID)
	require.NoError(t, err)

	matches, err := f.tournamentStore.GetMatches(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, matches, 7)

	first := matchByNumber(t, matches, 1)
	assert.False(t, first.IsBye)
	assert.Equal(t, teams[0].ID, *first.TeamAID)
	assert.Equal(t, teams[1].ID, *first.TeamBID)

	for i, number := range []int{2, 3, 4} {
		bye := matchByNumber(t, matches, number)
		assert.True(t, bye.IsBye)
		assert.Equal(t, bracket.MatchCompleted, bye.Status)
		assert.Nil(t, bye.TeamBID)
		assert.Equal(t, teams[2+i].ID, *bye.WinnerID)
	}

	semi1 := matchByNumber(t, matches, 5)
	assert.Nil(t, semi1.TeamAID, "waits for the winner of match 1")
	assert.Equal(t, teams[2].ID, *semi1.TeamBID)
	assert.Equal(t, bracket.MatchPending, semi1.Status)

	semi2 := matchByNumber(t, matches, 6)
	assert.Equal(t, teams[3].ID, *semi2.TeamAID)
	assert.Equal(t, teams[4].ID, *semi2.TeamBID)
	assert.Equal(t, bracket.MatchScheduled, semi2.Status)
}

func TestGenerateBracketOnlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournament := f.seedTournament(t, "Major", 8)
	seedAcceptedTeams(t, f, tournament, 4)

	_, err := f.brackets.GenerateBracket(ctx, f.staff, tournament.ID)
	require.NoError(t, err)

	_, err = f.brackets.GenerateBracket(ctx, f.staff, tournament.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.InvalidState))

	count, err := f.tournamentStore.CountMatches(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestGenerateBracketGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournament := f.seedTournament(t, "Major", 8)
	teams := seedAcceptedTeams(t, f, tournament, 2)

	player := f.seedUser(t, "player", "player").Actor()
	_, err := f.brackets.GenerateBracket(ctx, player, tournament.ID)
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	_, err = f.brackets.GenerateBracket(ctx, f.staff, teams[0].ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	doubleElim, err := f.tournaments.CreateTournament(ctx, f.staff, TournamentInput{
		Name: "Double Cup", Game: "Valorant", MaxTeams: 8, BracketFormat: "double_elimination",
	})
	require.NoError(t, err)
	_, err = f.brackets.GenerateBracket(ctx, f.staff, doubleElim.ID)
	assert.True(t, apperr.Is(err, apperr.ValidationFailed))

	_, err = f.tournaments.SetStatus(ctx, f.staff, tournament.ID, bracket.TournamentCompleted)
	require.NoError(t, err)
	_, err = f.brackets.GenerateBracket(ctx, f.staff, tournament.ID)
	assert.True(t, apperr.Is(err, apperr.InvalidState))
}
