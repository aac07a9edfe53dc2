package service

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	"github.com/AdamBeresnev/esport-cup/internal/bracket"
	"github.com/AdamBeresnev/esport-cup/internal/notification"
	"github.com/AdamBeresnev/esport-cup/internal/team"
	users "github.com/AdamBeresnev/esport-cup/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type playedTeam struct {
	team    *team.Team
	players []*users.User
}

// setupFourTeamBracket returns a generated bracket where match 1 is T1 vs T2,
// match 2 is T3 vs T4 and match 3 is the final.
func setupFourTeamBracket(t *testing.T, f *fixture) (*bracket.Tournament, []playedTeam, []bracket.Match) {
	t.Helper()
	tournament := f.seedTournament(t, "Coupe de Printemps", 4)

	teams := make([]playedTeam, 4)
	for i, name := range []string{"T1", "T2", "T3", "T4"} {
		tm, players := f.seedTeam(t, name, 2)
		teams[i] = playedTeam{team: tm, players: players}
		f.acceptTeams(t, tournament, tm)
	}

	matches, err := f.brackets.GenerateBracket(context.Background(), f.staff, tournament.ID)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	return tournament, teams, matches
}

func countTypes(types []string, want notification.Type) int {
	n := 0
	for _, tp := range types {
		if tp == string(want) {
			n++
		}
	}
	return n
}

func TestReportResultAdvancesWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, teams, matches := setupFourTeamBracket(t, f)

	match, err := f.matches.ReportResult(ctx, f.staff, matches[0].ID, 16, 3, bracket.MatchCompleted)
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchCompleted, match.Status)
	assert.Equal(t, teams[0].team.ID, *match.WinnerID)

	final, err := f.matches.GetMatch(ctx, matches[2].ID)
	require.NoError(t, err)
	assert.Equal(t, teams[0].team.ID, *final.TeamAID)
	assert.Nil(t, final.TeamBID)
	assert.Equal(t, bracket.MatchPending, final.Status)

	for _, p := range teams[0].players {
		assert.Equal(t, 1, countTypes(f.notificationsOf(t, p.ID), notification.MatchVictory))
	}
	for _, p := range teams[1].players {
		assert.Equal(t, 1, countTypes(f.notificationsOf(t, p.ID), notification.MatchDefeat))
	}

	list, err := f.notifications.ListForUser(ctx, teams[1].players[0].ID)
	require.NoError(t, err)
	assert.Contains(t, list[0].Message, "T1")
	assert.Contains(t, list[0].Message, "3-16")

	_, err = f.matches.ReportResult(ctx, f.staff, matches[1].ID, 2, 1, bracket.MatchCompleted)
	require.NoError(t, err)

	final, err = f.matches.GetMatch(ctx, matches[2].ID)
	require.NoError(t, err)
	assert.Equal(t, teams[2].team.ID, *final.TeamBID)
	assert.Equal(t, bracket.MatchScheduled, final.Status)
}

func TestReportResultStatusUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, matches := setupFourTeamBracket(t, f)

	ongoing, err := bracket.ParseMatchStatus("in_progress")
	require.NoError(t, err)

	match, err := f.matches.ReportResult(ctx, f.staff, matches[0].ID, 5, 3, ongoing)
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchOngoing, match.Status)
	assert.Equal(t, 5, match.ScoreA)
	assert.Nil(t, match.WinnerID)

	_, err = f.matches.ReportResult(ctx, f.staff, matches[2].ID, 0, 0, bracket.MatchOngoing)
	assert.True(t, apperr.Is(err, apperr.InvalidState), "the final still waits for its teams")

	_, err = f.matches.ReportResult(ctx, f.staff, matches[2].ID, 1, 0, bracket.MatchCompleted)
	assert.True(t, apperr.Is(err, apperr.InvalidState))
}

func TestReportResultValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, teams, matches := setupFourTeamBracket(t, f)

	_, err := f.matches.ReportResult(ctx, teams[0].players[0].Actor(), matches[0].ID, 1, 0, bracket.MatchCompleted)
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	_, err = f.matches.ReportResult(ctx, f.staff, matches[0].ID, 2, 2, bracket.MatchCompleted)
	assert.True(t, apperr.Is(err, apperr.ValidationFailed))

	_, err = f.matches.ReportResult(ctx, f.staff, matches[0].ID, -1, 2, bracket.MatchCompleted)
	assert.True(t, apperr.Is(err, apperr.ValidationFailed))

	_, err = f.matches.ReportResult(ctx, f.staff, matches[0].ID, 0, 0, bracket.MatchPending)
	assert.True(t, apperr.Is(err, apperr.ValidationFailed))

	_, err = f.matches.ReportResult(ctx, f.staff, teams[0].team.ID, 1, 0, bracket.MatchCompleted)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	stored, err := f.matches.GetMatch(ctx, matches[0].ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchScheduled, stored.Status)
	assert.Nil(t, stored.WinnerID)
	assert.Empty(t, f.notificationsOf(t, teams[0].players[1].ID))
}

func TestReportResultTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, teams, matches := setupFourTeamBracket(t, f)

	_, err := f.matches.ReportResult(ctx, f.staff, matches[0].ID, 16, 3, bracket.MatchCompleted)
	require.NoError(t, err)
	before := len(f.notificationsOf(t, teams[0].players[0].ID))

	again, err := f.matches.ReportResult(ctx, f.staff, matches[0].ID, 16, 3, bracket.MatchCompleted)
	require.NoError(t, err)
	assert.Equal(t, teams[0].team.ID, *again.WinnerID)
	assert.Len(t, f.notificationsOf(t, teams[0].players[0].ID), before, "same result is not announced twice")

	_, err = f.matches.ReportResult(ctx, f.staff, matches[0].ID, 3, 16, bracket.MatchCompleted)
	assert.True(t, apperr.Is(err, apperr.InvalidState))

	_, err = f.matches.ReportResult(ctx, f.staff, matches[0].ID, 16, 3, bracket.MatchOngoing)
	assert.True(t, apperr.Is(err, apperr.InvalidState))
}

func TestTournamentPlayedToTheEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournament, teams, matches := setupFourTeamBracket(t, f)

	_, err := f.matches.ReportResult(ctx, f.staff, matches[0].ID, 16, 3, bracket.MatchCompleted)
	require.NoError(t, err)
	_, err = f.matches.ReportResult(ctx, f.staff, matches[1].ID, 16, 12, bracket.MatchCompleted)
	require.NoError(t, err)

	final, err := f.matches.ReportResult(ctx, f.staff, matches[2].ID, 2, 1, bracket.MatchCompleted)
	require.NoError(t, err)
	assert.Equal(t, teams[0].team.ID, *final.WinnerID)

	stored, err := f.tournamentStore.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentCompleted, stored.Status)
	require.NotNil(t, stored.ChampionTeamID)
	assert.Equal(t, teams[0].team.ID, *stored.ChampionTeamID)
	assert.NotNil(t, stored.EndDate)

	completed, err := f.notificationStore.ListByType(ctx, notification.TournamentCompleted, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, completed, 8)

	want := map[int]struct{ victories, defeats int }{
		0: {2, 0},
		1: {0, 1},
		2: {1, 1},
		3: {0, 1},
	}
	for i, pt := range teams {
		for _, p := range pt.players {
			types := f.notificationsOf(t, p.ID)
			assert.Equal(t, want[i].victories, countTypes(types, notification.MatchVictory), "victories of %s", p.Username)
			assert.Equal(t, want[i].defeats, countTypes(types, notification.MatchDefeat), "defeats of %s", p.Username)
			assert.Equal(t, 1, countTypes(types, notification.TournamentCompleted))
		}
	}

	// The final can be confirmed again, anything else is refused.
	_, err = f.matches.ReportResult(ctx, f.staff, matches[2].ID, 2, 1, bracket.MatchCompleted)
	require.NoError(t, err)
	completed, err = f.notificationStore.ListByType(ctx, notification.TournamentCompleted, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, completed, 8)
}
