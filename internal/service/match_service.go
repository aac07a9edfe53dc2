package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	"github.com/AdamBeresnev/esport-cup/internal/bracket"
	"github.com/AdamBeresnev/esport-cup/internal/metrics"
	"github.com/AdamBeresnev/esport-cup/internal/notification"
	"github.com/AdamBeresnev/esport-cup/internal/store"
	"github.com/AdamBeresnev/esport-cup/internal/team"
	users "github.com/AdamBeresnev/esport-cup/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type MatchService struct {
	db            *sqlx.DB
	store         *store.TournamentStore
	registrations *store.RegistrationStore
	teams         *store.TeamStore
	notifications *NotificationService
	log           *zap.SugaredLogger
	now           Clock
}

func NewMatchService(
	db *sqlx.DB,
	store *store.TournamentStore,
	registrations *store.RegistrationStore,
	teams *store.TeamStore,
	notifications *NotificationService,
	log *zap.SugaredLogger,
) *MatchService {
	return &MatchService{
		db:            db,
		store:         store,
		registrations: registrations,
		teams:         teams,
		notifications: notifications,
		log:           log,
		now:           UTCNow,
	}
}

func (s *MatchService) GetMatch(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, notFoundOr(err, "Match introuvable")
	}
	return match, nil
}

// ReportResult records a score update. Completing a match decides the winner,
// moves it into its next match and, for the final, completes the tournament.
// Reporting the same final score twice is a no-op.
func (s *MatchService) ReportResult(ctx context.Context, actor users.Actor, matchID uuid.UUID, scoreA, scoreB int, status bracket.MatchStatus) (*bracket.Match, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if scoreA < 0 || scoreB < 0 {
		return nil, apperr.NewValidationFailed("Les scores ne peuvent pas être négatifs")
	}
	if status == bracket.MatchPending {
		return nil, apperr.NewValidationFailed("Un match ne peut pas être remis en attente")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournaments := s.store.WithTx(tx)
	match, err := tournaments.GetMatch(ctx, matchID)
	if err != nil {
		return nil, notFoundOr(err, "Match introuvable")
	}

	if match.Status == bracket.MatchCompleted {
		if status == bracket.MatchCompleted && match.ScoreA == scoreA && match.ScoreB == scoreB {
			s.log.Infow("match result already recorded", "match_id", match.ID)
			return match, nil
		}
		return nil, apperr.E(apperr.InvalidState, "Le match %d est déjà terminé", match.MatchNumber)
	}

	tournament, err := tournaments.GetTournament(ctx, match.TournamentID)
	if err != nil {
		return nil, notFoundOr(err, "Tournoi introuvable")
	}
	if tournament.Status == bracket.TournamentCompleted {
		return nil, apperr.NewInvalidState("Le tournoi est terminé")
	}

	if status != bracket.MatchCompleted {
		if !match.HasBothTeams() {
			return nil, apperr.E(apperr.InvalidState, "Le match %d attend encore ses deux équipes", match.MatchNumber)
		}
		match.ScoreA = scoreA
		match.ScoreB = scoreB
		match.Status = status
		if err := tournaments.UpdateMatch(ctx, match); err != nil {
			return nil, fmt.Errorf("failed to update match: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		metrics.MatchResults.WithLabelValues(string(status)).Inc()
		s.log.Infow("match updated", "match_id", match.ID, "status", status, "score_a", scoreA, "score_b", scoreB)
		return match, nil
	}

	if err := match.Decide(scoreA, scoreB); err != nil {
		return nil, err
	}
	if err := tournaments.UpdateMatch(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	if err := s.notifyResult(ctx, tx, match); err != nil {
		return nil, err
	}

	if match.NextMatchID != nil && match.NextSlot != nil {
		if err := s.advanceWinner(ctx, tx, match); err != nil {
			return nil, err
		}
	}

	if match.IsFinal() {
		if err := s.completeTournament(ctx, tx, tournament, *match.WinnerID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.MatchResults.WithLabelValues(string(bracket.MatchCompleted)).Inc()
	s.log.Infow("match completed",
		"match_id", match.ID,
		"tournament_id", match.TournamentID,
		"match_number", match.MatchNumber,
		"winner_id", *match.WinnerID,
		"score_a", scoreA,
		"score_b", scoreB,
	)
	if match.IsFinal() {
		s.log.Infow("tournament completed", "tournament_id", match.TournamentID, "champion_id", *match.WinnerID)
	}
	return match, nil
}

func (s *MatchService) advanceWinner(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) error {
	tournaments := s.store.WithTx(tx)
	next, err := tournaments.GetMatch(ctx, *match.NextMatchID)
	if err != nil {
		return fmt.Errorf("failed to get next match: %w", err)
	}

	ready, err := next.Fill(*match.NextSlot, *match.WinnerID)
	if err != nil {
		return err
	}
	if err := tournaments.UpdateMatch(ctx, next); err != nil {
		return fmt.Errorf("failed to update next match: %w", err)
	}

	if ready {
		s.log.Infow("match ready", "match_id", next.ID, "match_number", next.MatchNumber)
	}
	return nil
}

func (s *MatchService) notifyResult(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) error {
	teams := s.teams.WithTx(tx)
	winnerID, loserID := *match.WinnerID, *match.Loser()

	names, err := teams.GetTeams(ctx, []uuid.UUID{winnerID, loserID})
	if err != nil {
		return fmt.Errorf("failed to load match teams: %w", err)
	}
	winner, loser := names[winnerID], names[loserID]

	high, low := match.ScoreA, match.ScoreB
	if low > high {
		high, low = low, high
	}

	winners, err := teams.MemberUserIDs(ctx, winnerID)
	if err != nil {
		return fmt.Errorf("failed to load winner players: %w", err)
	}
	err = s.notifications.Notify(ctx, tx, winners, Message{
		Type:      notification.MatchVictory,
		Title:     "Victoire !",
		Message:   fmt.Sprintf("%s a battu %s (%d-%d) en %s.", winner.Name, loser.Name, high, low, match.Round),
		RelatedID: &match.ID,
	})
	if err != nil {
		return err
	}

	losers, err := teams.MemberUserIDs(ctx, loserID)
	if err != nil {
		return fmt.Errorf("failed to load loser players: %w", err)
	}
	return s.notifications.Notify(ctx, tx, losers, Message{
		Type:      notification.MatchDefeat,
		Title:     "Défaite",
		Message:   fmt.Sprintf("%s s'est incliné face à %s (%d-%d) en %s.", loser.Name, winner.Name, low, high, match.Round),
		RelatedID: &match.ID,
	})
}

func (s *MatchService) completeTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament, championID uuid.UUID) error {
	now := s.now()
	tournament.Status = bracket.TournamentCompleted
	tournament.EndDate = &now
	tournament.ChampionTeamID = &championID
	if err := s.store.WithTx(tx).UpdateTournament(ctx, tournament); err != nil {
		return fmt.Errorf("failed to complete tournament: %w", err)
	}

	accepted, err := s.registrations.WithTx(tx).ListByStatus(ctx, tournament.ID, bracket.RegistrationAccepted)
	if err != nil {
		return fmt.Errorf("failed to list accepted teams: %w", err)
	}
	teamIDs := make([]uuid.UUID, len(accepted))
	for i, registration := range accepted {
		teamIDs[i] = registration.TeamID
	}

	teams := s.teams.WithTx(tx)
	players, err := teams.MemberUserIDs(ctx, teamIDs...)
	if err != nil {
		return fmt.Errorf("failed to load tournament players: %w", err)
	}
	champion, err := teams.GetTeam(ctx, championID)
	if err != nil {
		return fmt.Errorf("failed to load champion: %w", err)
	}

	return s.notifications.Notify(ctx, tx, players, Message{
		Type:      notification.TournamentCompleted,
		Title:     "Tournoi terminé",
		Message:   fmt.Sprintf("%s est terminé. Champion : %s !", tournament.Name, teamName(champion)),
		RelatedID: &tournament.ID,
	})
}

func teamName(t *team.Team) string {
	if t.Tag != nil {
		return fmt.Sprintf("[%s] %s", *t.Tag, t.Name)
	}
	return t.Name
}
