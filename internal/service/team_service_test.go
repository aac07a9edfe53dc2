package service

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	"github.com/AdamBeresnev/esport-cup/internal/notification"
	"github.com/AdamBeresnev/esport-cup/internal/team"
	users "github.com/AdamBeresnev/esport-cup/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.seedUser(t, "owner", users.RolePlayer)

	tm, err := f.teams.CreateTeam(ctx, owner.Actor(), "Night Owls", "nowl")
	require.NoError(t, err)
	assert.Equal(t, "NOWL", *tm.Tag)
	assert.Equal(t, owner.ID, tm.OwnerID)

	members, err := f.teams.ListMembers(ctx, tm.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "owner", members[0].Username)

	_, err = f.teams.CreateTeam(ctx, owner.Actor(), "night owls", "")
	assert.True(t, apperr.Is(err, apperr.Conflict))

	_, err = f.teams.CreateTeam(ctx, owner.Actor(), "", "")
	assert.True(t, apperr.Is(err, apperr.ValidationFailed))

	_, err = f.teams.CreateTeam(ctx, owner.Actor(), "Long Tag", "TOOLONG")
	assert.True(t, apperr.Is(err, apperr.ValidationFailed))

	_, err = f.teams.CreateTeam(ctx, users.Actor{}, "Ghosts", "")
	assert.True(t, apperr.Is(err, apperr.Unauthorized))

	mine, err := f.teams.ListForUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, tm.ID, mine[0].ID)
}

func TestInvitePlayer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tm, players := f.seedTeam(t, "Night Owls", 2)
	owner, member := players[0].Actor(), players[1].Actor()
	recruit := f.seedUser(t, "recruit", users.RolePlayer)

	_, err := f.teams.InvitePlayer(ctx, member, tm.ID, "recruit")
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	_, err = f.teams.InvitePlayer(ctx, owner, tm.ID, "nobody")
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = f.teams.InvitePlayer(ctx, owner, tm.ID, players[1].Username)
	assert.True(t, apperr.Is(err, apperr.Conflict))

	invite, err := f.teams.InvitePlayer(ctx, owner, tm.ID, " recruit ")
	require.NoError(t, err)
	assert.Equal(t, team.InvitePending, invite.Status)
	assert.Equal(t, recruit.ID, invite.UserID)
	assert.Equal(t, []string{string(notification.TeamInvite)}, f.notificationsOf(t, recruit.ID))

	_, err = f.teams.InvitePlayer(ctx, owner, tm.ID, "recruit")
	assert.True(t, apperr.Is(err, apperr.Conflict), "one pending invite per player")

	pending, err := f.teams.ListPendingInvites(ctx, recruit.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, invite.ID, pending[0].ID)
}

func TestRespondInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tm, players := f.seedTeam(t, "Night Owls", 1)
	owner := players[0].Actor()
	recruit := f.seedUser(t, "recruit", users.RolePlayer)
	other := f.seedUser(t, "other", users.RolePlayer)

	invite, err := f.teams.InvitePlayer(ctx, owner, tm.ID, "recruit")
	require.NoError(t, err)

	_, err = f.teams.RespondInvite(ctx, other.Actor(), invite.ID, true)
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	answered, err := f.teams.RespondInvite(ctx, recruit.Actor(), invite.ID, true)
	require.NoError(t, err)
	assert.Equal(t, team.InviteAccepted, answered.Status)
	assert.NotNil(t, answered.RespondedAt)

	members, err := f.teams.ListMembers(ctx, tm.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	_, err = f.teams.RespondInvite(ctx, recruit.Actor(), invite.ID, false)
	assert.True(t, apperr.Is(err, apperr.InvalidState))

	declining, err := f.teams.InvitePlayer(ctx, owner, tm.ID, "other")
	require.NoError(t, err)
	declined, err := f.teams.RespondInvite(ctx, other.Actor(), declining.ID, false)
	require.NoError(t, err)
	assert.Equal(t, team.InviteDeclined, declined.Status)

	members, err = f.teams.ListMembers(ctx, tm.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	pending, err := f.teams.ListPendingInvites(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
