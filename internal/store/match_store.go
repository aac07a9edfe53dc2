package store

import (
	"context"

	"github.com/AdamBeresnev/esport-cup/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	createMatchesQuery = `
		INSERT INTO matches (id, tournament_id, round, round_number, match_number, team_a_id, team_b_id,
			score_a, score_b, status, scheduled_at, winner_id, next_match_id, next_slot, is_bye, created_at)
		VALUES (:id, :tournament_id, :round, :round_number, :match_number, :team_a_id, :team_b_id,
			:score_a, :score_b, :status, :scheduled_at, :winner_id, :next_match_id, :next_slot, :is_bye, :created_at)
	`
	updateMatchQuery = `
		UPDATE matches SET
			team_a_id = :team_a_id,
			team_b_id = :team_b_id,
			score_a = :score_a,
			score_b = :score_b,
			status = :status,
			winner_id = :winner_id
		WHERE id = :id
	`
)

func (s *TournamentStore) CreateMatches(ctx context.Context, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, s.db, createMatchesQuery, matches)
	return err
}

func (s *TournamentStore) GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	err := sqlx.GetContext(ctx, s.db, &match, "SELECT * FROM matches WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *TournamentStore) GetMatches(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := sqlx.SelectContext(ctx, s.db, &matches,
		"SELECT * FROM matches WHERE tournament_id = ? ORDER BY match_number ASC", tournamentID)
	return matches, err
}

func (s *TournamentStore) CountMatches(ctx context.Context, tournamentID uuid.UUID) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, s.db, &count, "SELECT COUNT(*) FROM matches WHERE tournament_id = ?", tournamentID)
	return count, err
}

// UpdateMatch writes the mutable part of a match. Bracket position and links
// are fixed at generation.
func (s *TournamentStore) UpdateMatch(ctx context.Context, match *bracket.Match) error {
	_, err := sqlx.NamedExecContext(ctx, s.db, updateMatchQuery, match)
	return err
}
