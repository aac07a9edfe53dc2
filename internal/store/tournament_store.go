package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/AdamBeresnev/esport-cup/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TournamentStore covers tournaments and their matches. It runs against the
// database or, through WithTx, against an open transaction.
type TournamentStore struct {
	db sqlx.ExtContext
}

func NewTournamentStore(db sqlx.ExtContext) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) WithTx(tx *sqlx.Tx) *TournamentStore {
	return &TournamentStore{db: tx}
}

const (
	createTournamentQuery = `
		INSERT INTO tournaments (id, name, slug, game, status, max_teams, bracket_format, match_format,
			registration_opens_at, registration_closes_at, start_date, stream_url, created_by, created_at)
		VALUES (:id, :name, :slug, :game, :status, :max_teams, :bracket_format, :match_format,
			:registration_opens_at, :registration_closes_at, :start_date, :stream_url, :created_by, :created_at)
	`
	updateTournamentQuery = `
		UPDATE tournaments SET
			status = :status,
			end_date = :end_date,
			champion_team_id = :champion_team_id
		WHERE id = :id
	`
)

func (s *TournamentStore) CreateTournament(ctx context.Context, tournament *bracket.Tournament) error {
	_, err := sqlx.NamedExecContext(ctx, s.db, createTournamentQuery, tournament)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := sqlx.GetContext(ctx, s.db, &tournament, "SELECT * FROM tournaments WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (s *TournamentStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, s.db, &count, "SELECT COUNT(*) FROM tournaments WHERE slug = ?", slug)
	return count > 0, err
}

func (s *TournamentStore) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := sqlx.SelectContext(ctx, s.db, &tournaments, "SELECT * FROM tournaments ORDER BY created_at DESC")
	return tournaments, err
}

// GetLatestByStatus returns nil without error when no tournament matches.
func (s *TournamentStore) GetLatestByStatus(ctx context.Context, status bracket.TournamentStatus) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := sqlx.GetContext(ctx, s.db, &tournament,
		"SELECT * FROM tournaments WHERE status = ? ORDER BY start_date DESC, created_at DESC LIMIT 1", status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (s *TournamentStore) UpdateTournament(ctx context.Context, tournament *bracket.Tournament) error {
	_, err := sqlx.NamedExecContext(ctx, s.db, updateTournamentQuery, tournament)
	return err
}

// OpenDueRegistrations moves upcoming tournaments whose registration window
// has started to REGISTRATION_OPEN and returns how many changed.
func (s *TournamentStore) OpenDueRegistrations(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tournaments SET status = ?
		WHERE status = ? AND registration_opens_at IS NOT NULL AND registration_opens_at <= ?`,
		bracket.TournamentRegistrationOpen, bracket.TournamentUpcoming, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
