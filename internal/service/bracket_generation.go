package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	"github.com/AdamBeresnev/esport-cup/internal/bracket"
	"github.com/AdamBeresnev/esport-cup/internal/config"
	"github.com/AdamBeresnev/esport-cup/internal/metrics"
	"github.com/AdamBeresnev/esport-cup/internal/notification"
	"github.com/AdamBeresnev/esport-cup/internal/store"
	users "github.com/AdamBeresnev/esport-cup/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type BracketService struct {
	db            *sqlx.DB
	store         *store.TournamentStore
	registrations *store.RegistrationStore
	notifications *NotificationService
	spacing       config.BracketConfig
	log           *zap.SugaredLogger
	now           Clock
}

func NewBracketService(
	db *sqlx.DB,
	store *store.TournamentStore,
	registrations *store.RegistrationStore,
	notifications *NotificationService,
	spacing config.BracketConfig,
	log *zap.SugaredLogger,
) *BracketService {
	return &BracketService{
		db:            db,
		store:         store,
		registrations: registrations,
		notifications: notifications,
		spacing:       spacing,
		log:           log,
		now:           UTCNow,
	}
}

// GenerateBracket seeds the whole single elimination bracket from the
// accepted teams in registration order. It refuses to run twice.
func (s *BracketService) GenerateBracket(ctx context.Context, actor users.Actor, tournamentID uuid.UUID) ([]bracket.Match, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournaments := s.store.WithTx(tx)
	tournament, err := tournaments.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, notFoundOr(err, "Tournoi introuvable")
	}
	if tournament.BracketFormat != bracket.SingleElimination {
		return nil, apperr.E(apperr.ValidationFailed, "Le format %s n'est pas encore disponible", tournament.BracketFormat)
	}
	if tournament.Status == bracket.TournamentCompleted {
		return nil, apperr.NewInvalidState("Le tournoi est terminé")
	}

	existing, err := tournaments.CountMatches(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count matches: %w", err)
	}
	if existing > 0 {
		return nil, apperr.NewInvalidState("Le bracket de ce tournoi a déjà été généré")
	}

	accepted, err := s.registrations.WithTx(tx).ListByStatus(ctx, tournamentID, bracket.RegistrationAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to list accepted teams: %w", err)
	}
	teamIDs := make([]uuid.UUID, len(accepted))
	for i, registration := range accepted {
		teamIDs[i] = registration.TeamID
	}

	now := s.now()
	start := now
	if tournament.StartDate != nil {
		start = *tournament.StartDate
	}

	matches, err := bracket.Plan(tournamentID, teamIDs, bracket.PlanOptions{
		Start:        start,
		MatchSpacing: s.spacing.MatchSpacing,
		RoundSpacing: s.spacing.RoundSpacing,
	})
	if err != nil {
		return nil, err
	}
	for i := range matches {
		matches[i].CreatedAt = now
	}

	if err := tournaments.CreateMatches(ctx, matches); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Wrap(apperr.InvalidState, "Le bracket de ce tournoi a déjà été généré", err)
		}
		return nil, fmt.Errorf("failed to create matches: %w", err)
	}

	if tournament.Status == bracket.TournamentUpcoming || tournament.Status == bracket.TournamentRegistrationOpen {
		tournament.Status = bracket.TournamentOngoing
		if err := tournaments.UpdateTournament(ctx, tournament); err != nil {
			return nil, fmt.Errorf("failed to start tournament: %w", err)
		}
	}

	err = s.notifications.LogStaffAction(ctx, tx, notification.StaffLog{
		ActorID:      actor.ID,
		Action:       "bracket_generated",
		TournamentID: &tournament.ID,
		Details:      fmt.Sprintf("%d équipes, %d matchs", len(teamIDs), len(matches)),
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.BracketsGenerated.Inc()
	s.log.Infow("bracket generated",
		"tournament_id", tournamentID,
		"teams", len(teamIDs),
		"matches", len(matches),
		"rounds", bracket.RoundCount(len(teamIDs)),
	)
	return matches, nil
}
