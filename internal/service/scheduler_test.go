package service

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/esport-cup/internal/bracket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerOpensDueRegistrations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	opens := f.clock.current.Add(time.Minute)
	tournament, err := f.tournaments.CreateTournament(ctx, f.staff, TournamentInput{
		Name: "Scheduled Cup", MaxTeams: 8, RegistrationOpensAt: &opens,
	})
	require.NoError(t, err)
	require.Equal(t, bracket.TournamentUpcoming, tournament.Status)

	// Past the opening time before the scheduler starts, so its first run
	// opens the tournament.
	f.clock.current = opens.Add(time.Minute)

	scheduler, err := NewScheduler(f.tournaments, time.Hour, f.log)
	require.NoError(t, err)
	require.NoError(t, scheduler.Start(ctx))
	t.Cleanup(func() { assert.NoError(t, scheduler.Shutdown()) })

	require.Eventually(t, func() bool {
		stored, err := f.tournamentStore.GetTournament(ctx, tournament.ID)
		return err == nil && stored.Status == bracket.TournamentRegistrationOpen
	}, 5*time.Second, 20*time.Millisecond)
}
