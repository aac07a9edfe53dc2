package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/AdamBeresnev/esport-cup/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	store := NewRegistrationStore(db)

	owner := seedUser(t, db, "owner")
	staff := seedUser(t, db, "staff")
	tournament := seedTournament(t, db, staff, bracket.TournamentRegistrationOpen)
	tm := seedTeam(t, db, "Alpha", owner)

	now := time.Now().UTC()
	registration := &bracket.TournamentTeam{
		ID:           uuid.New(),
		TournamentID: tournament.ID,
		TeamID:       tm.ID,
		Status:       bracket.RegistrationPending,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	require.NoError(t, store.CreateRegistration(ctx, registration))

	require.NoError(t, registration.Reject(staff.ID, "Roster incomplet", now))
	require.NoError(t, store.UpdateRegistration(ctx, registration))

	fetched, err := store.GetRegistrationForTeam(ctx, tournament.ID, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.RegistrationRejected, fetched.Status)
	require.NotNil(t, fetched.RejectionReason)
	assert.Equal(t, "Roster incomplet", *fetched.RejectionReason)
	require.NotNil(t, fetched.RejectedBy)
	assert.Equal(t, staff.ID, *fetched.RejectedBy)

	require.NoError(t, fetched.Accept(now))
	require.NoError(t, store.UpdateRegistration(ctx, fetched))

	fetched, err = store.GetRegistration(ctx, registration.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.RegistrationAccepted, fetched.Status)
	assert.Nil(t, fetched.RejectionReason)
	assert.Nil(t, fetched.RejectedBy)

	_, err = store.GetRegistration(ctx, uuid.New())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestOneRegistrationPerTeamAndTournament(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	store := NewRegistrationStore(db)

	owner := seedUser(t, db, "owner")
	tournament := seedTournament(t, db, owner, bracket.TournamentRegistrationOpen)
	tm := seedTeam(t, db, "Alpha", owner)

	now := time.Now().UTC()
	first := &bracket.TournamentTeam{ID: uuid.New(), TournamentID: tournament.ID, TeamID: tm.ID,
		Status: bracket.RegistrationPending, RegisteredAt: now, UpdatedAt: now}
	require.NoError(t, store.CreateRegistration(ctx, first))

	second := *first
	second.ID = uuid.New()
	assert.Error(t, store.CreateRegistration(ctx, &second))
}

func TestListAndCountRegistrations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	store := NewRegistrationStore(db)

	owner := seedUser(t, db, "owner")
	tournament := seedTournament(t, db, owner, bracket.TournamentRegistrationOpen)

	base := time.Now().UTC().Add(-time.Hour)
	statuses := []bracket.RegistrationStatus{
		bracket.RegistrationAccepted,
		bracket.RegistrationPending,
		bracket.RegistrationWithdrawRequested,
		bracket.RegistrationAccepted,
		bracket.RegistrationRemoved,
	}
	names := []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo"}
	ids := make([]uuid.UUID, len(statuses))
	for i, status := range statuses {
		tm := seedTeam(t, db, names[i], owner)
		at := base.Add(time.Duration(i) * time.Minute)
		ids[i] = tm.ID
		require.NoError(t, store.CreateRegistration(ctx, &bracket.TournamentTeam{
			ID: uuid.New(), TournamentID: tournament.ID, TeamID: tm.ID,
			Status: status, RegisteredAt: at, UpdatedAt: at,
		}))
	}

	holding, err := store.CountHoldingSlots(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, holding)

	accepted, err := store.ListByStatus(ctx, tournament.ID, bracket.RegistrationAccepted)
	require.NoError(t, err)
	require.Len(t, accepted, 2)
	assert.Equal(t, ids[0], accepted[0].TeamID)
	assert.Equal(t, ids[3], accepted[1].TeamID)

	views, err := store.ListViews(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, views, 5)
	assert.Equal(t, "Alpha", views[0].TeamName)
	assert.Equal(t, bracket.RegistrationRemoved, views[4].Status)
}
