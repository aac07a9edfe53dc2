package store

import (
	"context"

	"github.com/AdamBeresnev/esport-cup/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type RegistrationStore struct {
	db sqlx.ExtContext
}

func NewRegistrationStore(db sqlx.ExtContext) *RegistrationStore {
	return &RegistrationStore{db: db}
}

func (s *RegistrationStore) WithTx(tx *sqlx.Tx) *RegistrationStore {
	return &RegistrationStore{db: tx}
}

// RegistrationView is a registration joined with its team for listings.
type RegistrationView struct {
	bracket.TournamentTeam
	TeamName string  `db:"team_name"`
	TeamTag  *string `db:"team_tag"`
}

const (
	createRegistrationQuery = `
		INSERT INTO tournament_teams (id, tournament_id, team_id, status, registered_at, updated_at)
		VALUES (:id, :tournament_id, :team_id, :status, :registered_at, :updated_at)
	`
	updateRegistrationQuery = `
		UPDATE tournament_teams SET
			status = :status,
			registered_at = :registered_at,
			rejection_reason = :rejection_reason,
			rejected_by = :rejected_by,
			withdraw_reason = :withdraw_reason,
			withdraw_requested_at = :withdraw_requested_at,
			removal_reason = :removal_reason,
			removed_by = :removed_by,
			cancelled_at = :cancelled_at,
			updated_at = :updated_at
		WHERE id = :id
	`
	listRegistrationViewsQuery = `
		SELECT tt.*, t.name AS team_name, t.tag AS team_tag
		FROM tournament_teams tt
		JOIN teams t ON t.id = tt.team_id
		WHERE tt.tournament_id = ?
		ORDER BY tt.registered_at ASC, tt.id ASC
	`
)

func (s *RegistrationStore) CreateRegistration(ctx context.Context, registration *bracket.TournamentTeam) error {
	_, err := sqlx.NamedExecContext(ctx, s.db, createRegistrationQuery, registration)
	return err
}

func (s *RegistrationStore) UpdateRegistration(ctx context.Context, registration *bracket.TournamentTeam) error {
	_, err := sqlx.NamedExecContext(ctx, s.db, updateRegistrationQuery, registration)
	return err
}

func (s *RegistrationStore) GetRegistration(ctx context.Context, id uuid.UUID) (*bracket.TournamentTeam, error) {
	var registration bracket.TournamentTeam
	err := sqlx.GetContext(ctx, s.db, &registration, "SELECT * FROM tournament_teams WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &registration, nil
}

func (s *RegistrationStore) GetRegistrationForTeam(ctx context.Context, tournamentID, teamID uuid.UUID) (*bracket.TournamentTeam, error) {
	var registration bracket.TournamentTeam
	err := sqlx.GetContext(ctx, s.db, &registration,
		"SELECT * FROM tournament_teams WHERE tournament_id = ? AND team_id = ?", tournamentID, teamID)
	if err != nil {
		return nil, err
	}
	return &registration, nil
}

// ListByStatus returns registrations in registration order, which is the
// seeding order of the bracket.
func (s *RegistrationStore) ListByStatus(ctx context.Context, tournamentID uuid.UUID, status bracket.RegistrationStatus) ([]bracket.TournamentTeam, error) {
	var registrations []bracket.TournamentTeam
	err := sqlx.SelectContext(ctx, s.db, &registrations, `
		SELECT * FROM tournament_teams
		WHERE tournament_id = ? AND status = ?
		ORDER BY registered_at ASC, id ASC`, tournamentID, status)
	return registrations, err
}

func (s *RegistrationStore) ListViews(ctx context.Context, tournamentID uuid.UUID) ([]RegistrationView, error) {
	var views []RegistrationView
	err := sqlx.SelectContext(ctx, s.db, &views, listRegistrationViewsQuery, tournamentID)
	return views, err
}

// CountHoldingSlots counts registrations that occupy a place in the tournament.
func (s *RegistrationStore) CountHoldingSlots(ctx context.Context, tournamentID uuid.UUID) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, s.db, &count, `
		SELECT COUNT(*) FROM tournament_teams
		WHERE tournament_id = ? AND status IN (?, ?)`,
		tournamentID, bracket.RegistrationAccepted, bracket.RegistrationWithdrawRequested)
	return count, err
}
