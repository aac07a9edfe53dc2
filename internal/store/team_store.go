package store

import (
	"context"

	"github.com/AdamBeresnev/esport-cup/internal/team"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TeamStore struct {
	db sqlx.ExtContext
}

func NewTeamStore(db sqlx.ExtContext) *TeamStore {
	return &TeamStore{db: db}
}

func (s *TeamStore) WithTx(tx *sqlx.Tx) *TeamStore {
	return &TeamStore{db: tx}
}

const (
	createTeamQuery = `
		INSERT INTO teams (id, name, tag, owner_id, created_at)
		VALUES (:id, :name, :tag, :owner_id, :created_at)
	`
	listMembersQuery = `
		SELECT tm.team_id, tm.user_id, u.username, u.avatar_url, tm.joined_at
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.team_id = ?
		ORDER BY tm.joined_at ASC
	`
	createInviteQuery = `
		INSERT INTO team_invites (id, team_id, user_id, invited_by, status, created_at)
		VALUES (:id, :team_id, :user_id, :invited_by, :status, :created_at)
	`
	updateInviteQuery = `
		UPDATE team_invites SET status = :status, responded_at = :responded_at WHERE id = :id
	`
)

func (s *TeamStore) CreateTeam(ctx context.Context, t *team.Team) error {
	_, err := sqlx.NamedExecContext(ctx, s.db, createTeamQuery, t)
	return err
}

func (s *TeamStore) GetTeam(ctx context.Context, id uuid.UUID) (*team.Team, error) {
	var t team.Team
	err := sqlx.GetContext(ctx, s.db, &t, "SELECT * FROM teams WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TeamStore) NameExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, s.db, &count, "SELECT COUNT(*) FROM teams WHERE name = ? COLLATE NOCASE", name)
	return count > 0, err
}

func (s *TeamStore) GetTeams(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]team.Team, error) {
	teams := make(map[uuid.UUID]team.Team, len(ids))
	if len(ids) == 0 {
		return teams, nil
	}

	query, args, err := sqlx.In("SELECT * FROM teams WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}

	var rows []team.Team
	if err := sqlx.SelectContext(ctx, s.db, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, t := range rows {
		teams[t.ID] = t
	}
	return teams, nil
}

func (s *TeamStore) ListTeamsForUser(ctx context.Context, userID uuid.UUID) ([]team.Team, error) {
	var teams []team.Team
	err := sqlx.SelectContext(ctx, s.db, &teams, `
		SELECT t.* FROM teams t
		JOIN team_members tm ON tm.team_id = t.id
		WHERE tm.user_id = ?
		ORDER BY t.name ASC`, userID)
	return teams, err
}

func (s *TeamStore) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO team_members (team_id, user_id) VALUES (?, ?)", teamID, userID)
	return err
}

func (s *TeamStore) ListMembers(ctx context.Context, teamID uuid.UUID) ([]team.Member, error) {
	var members []team.Member
	err := sqlx.SelectContext(ctx, s.db, &members, listMembersQuery, teamID)
	return members, err
}

func (s *TeamStore) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, s.db, &count,
		"SELECT COUNT(*) FROM team_members WHERE team_id = ? AND user_id = ?", teamID, userID)
	return count > 0, err
}

// MemberUserIDs returns the distinct players of the given teams.
func (s *TeamStore) MemberUserIDs(ctx context.Context, teamIDs ...uuid.UUID) ([]uuid.UUID, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In("SELECT DISTINCT user_id FROM team_members WHERE team_id IN (?) ORDER BY user_id", teamIDs)
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	err = sqlx.SelectContext(ctx, s.db, &ids, s.db.Rebind(query), args...)
	return ids, err
}

func (s *TeamStore) CreateInvite(ctx context.Context, invite *team.Invite) error {
	_, err := sqlx.NamedExecContext(ctx, s.db, createInviteQuery, invite)
	return err
}

func (s *TeamStore) GetInvite(ctx context.Context, id uuid.UUID) (*team.Invite, error) {
	var invite team.Invite
	err := sqlx.GetContext(ctx, s.db, &invite, "SELECT * FROM team_invites WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (s *TeamStore) HasPendingInvite(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, s.db, &count,
		"SELECT COUNT(*) FROM team_invites WHERE team_id = ? AND user_id = ? AND status = ?",
		teamID, userID, team.InvitePending)
	return count > 0, err
}

func (s *TeamStore) UpdateInvite(ctx context.Context, invite *team.Invite) error {
	_, err := sqlx.NamedExecContext(ctx, s.db, updateInviteQuery, invite)
	return err
}

func (s *TeamStore) ListPendingInvites(ctx context.Context, userID uuid.UUID) ([]team.Invite, error) {
	var invites []team.Invite
	err := sqlx.SelectContext(ctx, s.db, &invites,
		"SELECT * FROM team_invites WHERE user_id = ? AND status = ? ORDER BY created_at DESC",
		userID, team.InvitePending)
	return invites, err
}
