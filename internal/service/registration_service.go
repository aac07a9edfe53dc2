package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	"github.com/AdamBeresnev/esport-cup/internal/bracket"
	"github.com/AdamBeresnev/esport-cup/internal/metrics"
	"github.com/AdamBeresnev/esport-cup/internal/notification"
	"github.com/AdamBeresnev/esport-cup/internal/store"
	"github.com/AdamBeresnev/esport-cup/internal/team"
	users "github.com/AdamBeresnev/esport-cup/internal/user"
	"github.com/AdamBeresnev/esport-cup/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type RegistrationService struct {
	db            *sqlx.DB
	tournaments   *store.TournamentStore
	registrations *store.RegistrationStore
	teams         *store.TeamStore
	notifications *NotificationService
	log           *zap.SugaredLogger
	now           Clock
}

func NewRegistrationService(
	db *sqlx.DB,
	tournaments *store.TournamentStore,
	registrations *store.RegistrationStore,
	teams *store.TeamStore,
	notifications *NotificationService,
	log *zap.SugaredLogger,
) *RegistrationService {
	return &RegistrationService{
		db:            db,
		tournaments:   tournaments,
		registrations: registrations,
		teams:         teams,
		notifications: notifications,
		log:           log,
		now:           UTCNow,
	}
}

// registrationScope is everything a transition may need, loaded in its
// transaction.
type registrationScope struct {
	tx           *sqlx.Tx
	registration *bracket.TournamentTeam
	team         *team.Team
	tournament   *bracket.Tournament
}

func (sc *registrationScope) requireOwner(actor users.Actor) error {
	if sc.team.OwnerID != actor.ID {
		return apperr.NewForbidden("Seul le propriétaire de l'équipe peut effectuer cette action")
	}
	return nil
}

// transition runs fn on a registration inside one transaction and persists
// the result.
func (s *RegistrationService) transition(ctx context.Context, registrationID uuid.UUID, fn func(sc *registrationScope) error) (*bracket.TournamentTeam, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	registration, err := s.registrations.WithTx(tx).GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, notFoundOr(err, "Inscription introuvable")
	}
	tm, err := s.teams.WithTx(tx).GetTeam(ctx, registration.TeamID)
	if err != nil {
		return nil, notFoundOr(err, "Équipe introuvable")
	}
	tournament, err := s.tournaments.WithTx(tx).GetTournament(ctx, registration.TournamentID)
	if err != nil {
		return nil, notFoundOr(err, "Tournoi introuvable")
	}

	from := registration.Status
	sc := &registrationScope{tx: tx, registration: registration, team: tm, tournament: tournament}
	if err := fn(sc); err != nil {
		return nil, err
	}

	if err := s.registrations.WithTx(tx).UpdateRegistration(ctx, registration); err != nil {
		return nil, fmt.Errorf("failed to update registration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.RegistrationTransitions.WithLabelValues(string(registration.Status)).Inc()
	s.log.Infow("registration status changed",
		"registration_id", registration.ID,
		"tournament_id", registration.TournamentID,
		"team_id", registration.TeamID,
		"from", from,
		"to", registration.Status,
	)
	return registration, nil
}

func (s *RegistrationService) notifyOwner(ctx context.Context, sc *registrationScope, notificationType notification.Type, title, message string) error {
	return s.notifications.Notify(ctx, sc.tx, []uuid.UUID{sc.team.OwnerID}, Message{
		Type:      notificationType,
		Title:     title,
		Message:   message,
		RelatedID: &sc.tournament.ID,
	})
}

func (s *RegistrationService) logStaff(ctx context.Context, sc *registrationScope, actor users.Actor, action, details string) error {
	return s.notifications.LogStaffAction(ctx, sc.tx, notification.StaffLog{
		ActorID:      actor.ID,
		Action:       action,
		TournamentID: &sc.tournament.ID,
		TargetID:     &sc.registration.ID,
		Details:      details,
	})
}

// SubmitRegistration registers a team while the tournament window is open.
// A team has at most one registration per tournament; a cancelled one is
// reopened instead of creating a second row.
func (s *RegistrationService) SubmitRegistration(ctx context.Context, actor users.Actor, tournamentID, teamID uuid.UUID) (*bracket.TournamentTeam, error) {
	if err := requireLoggedIn(actor); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.tournaments.WithTx(tx).GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, notFoundOr(err, "Tournoi introuvable")
	}
	tm, err := s.teams.WithTx(tx).GetTeam(ctx, teamID)
	if err != nil {
		return nil, notFoundOr(err, "Équipe introuvable")
	}

	sc := &registrationScope{tx: tx, team: tm, tournament: tournament}
	if err := sc.requireOwner(actor); err != nil {
		return nil, err
	}

	now := s.now()
	if !tournament.RegistrationOpenAt(now) {
		return nil, apperr.NewInvalidState("Les inscriptions ne sont pas ouvertes pour ce tournoi")
	}

	registrations := s.registrations.WithTx(tx)
	existing, err := registrations.GetRegistrationForTeam(ctx, tournamentID, teamID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		sc.registration = &bracket.TournamentTeam{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			TeamID:       teamID,
			Status:       bracket.RegistrationPending,
			RegisteredAt: now,
			UpdatedAt:    now,
		}
		if err := registrations.CreateRegistration(ctx, sc.registration); err != nil {
			if isUniqueViolation(err) {
				return nil, apperr.Wrap(apperr.Conflict, "Cette équipe est déjà inscrite à ce tournoi", err)
			}
			return nil, fmt.Errorf("failed to create registration: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up registration: %w", err)
	case existing.Status != bracket.RegistrationCancelled:
		return nil, apperr.NewConflict("Cette équipe est déjà inscrite à ce tournoi")
	default:
		if err := existing.Reopen(now); err != nil {
			return nil, err
		}
		if err := registrations.UpdateRegistration(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to reopen registration: %w", err)
		}
		sc.registration = existing
	}

	err = s.notifyOwner(ctx, sc, notification.RegistrationSubmitted,
		"Inscription envoyée",
		fmt.Sprintf("L'inscription de %s à %s est en attente de validation.", tm.Name, tournament.Name))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.RegistrationTransitions.WithLabelValues(string(bracket.RegistrationPending)).Inc()
	s.log.Infow("registration submitted", "registration_id", sc.registration.ID, "tournament_id", tournamentID, "team_id", teamID)
	return sc.registration, nil
}

// ValidateRegistration accepts or rejects a registration. Accepting also
// reinstates rejected and removed teams, within the tournament capacity.
func (s *RegistrationService) ValidateRegistration(ctx context.Context, actor users.Actor, registrationID uuid.UUID, decision bracket.RegistrationStatus, reason string) (*bracket.TournamentTeam, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if decision != bracket.RegistrationAccepted && decision != bracket.RegistrationRejected {
		return nil, apperr.E(apperr.ValidationFailed, "Décision invalide : %q", decision)
	}

	return s.transition(ctx, registrationID, func(sc *registrationScope) error {
		if sc.tournament.Status == bracket.TournamentCompleted {
			return apperr.NewInvalidState("Le tournoi est terminé")
		}

		now := s.now()
		if decision == bracket.RegistrationRejected {
			if err := sc.registration.Reject(actor.ID, reason, now); err != nil {
				return err
			}
			if err := s.logStaff(ctx, sc, actor, "registration_rejected", utils.OrZero(sc.registration.RejectionReason)); err != nil {
				return err
			}
			msg := fmt.Sprintf("L'inscription de %s à %s a été refusée.", sc.team.Name, sc.tournament.Name)
			if sc.registration.RejectionReason != nil {
				msg += " Raison : " + *sc.registration.RejectionReason
			}
			return s.notifyOwner(ctx, sc, notification.RegistrationRejected, "Inscription refusée", msg)
		}

		if sc.tournament.Status == bracket.TournamentOngoing {
			return apperr.NewInvalidState("Le tournoi a déjà commencé")
		}
		if err := s.checkCapacity(ctx, sc); err != nil {
			return err
		}
		reinstated := sc.registration.Status != bracket.RegistrationPending
		if err := sc.registration.Accept(now); err != nil {
			return err
		}

		action := "registration_accepted"
		if reinstated {
			action = "registration_reinstated"
		}
		if err := s.logStaff(ctx, sc, actor, action, ""); err != nil {
			return err
		}
		return s.notifyOwner(ctx, sc, notification.RegistrationAccepted, "Inscription validée",
			fmt.Sprintf("%s est inscrite à %s.", sc.team.Name, sc.tournament.Name))
	})
}

// checkCapacity refuses to let one more team hold a slot past MaxTeams.
func (s *RegistrationService) checkCapacity(ctx context.Context, sc *registrationScope) error {
	if sc.registration.Status.HoldsSlot() {
		return nil
	}
	holding, err := s.registrations.WithTx(sc.tx).CountHoldingSlots(ctx, sc.tournament.ID)
	if err != nil {
		return fmt.Errorf("failed to count accepted teams: %w", err)
	}
	if holding >= sc.tournament.MaxTeams {
		return apperr.E(apperr.InvalidState, "Le tournoi est complet (%d/%d équipes)", holding, sc.tournament.MaxTeams)
	}
	return nil
}

// CancelRegistration withdraws a registration that staff have not looked at
// yet. The row is kept as CANCELLED.
func (s *RegistrationService) CancelRegistration(ctx context.Context, actor users.Actor, registrationID uuid.UUID) (*bracket.TournamentTeam, error) {
	return s.transition(ctx, registrationID, func(sc *registrationScope) error {
		if err := sc.requireOwner(actor); err != nil {
			return err
		}
		return sc.registration.Cancel(s.now())
	})
}

// RequestWithdraw is only recorded for staff, the player is not notified.
func (s *RegistrationService) RequestWithdraw(ctx context.Context, actor users.Actor, registrationID uuid.UUID, reason string) (*bracket.TournamentTeam, error) {
	return s.transition(ctx, registrationID, func(sc *registrationScope) error {
		if err := sc.requireOwner(actor); err != nil {
			return err
		}
		if err := sc.registration.RequestWithdraw(reason, s.now()); err != nil {
			return err
		}
		return s.logStaff(ctx, sc, actor, "withdraw_requested", utils.OrZero(sc.registration.WithdrawReason))
	})
}

func (s *RegistrationService) ApproveWithdraw(ctx context.Context, actor users.Actor, registrationID uuid.UUID) (*bracket.TournamentTeam, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.transition(ctx, registrationID, func(sc *registrationScope) error {
		if err := sc.registration.ApproveWithdraw(actor.ID, s.now()); err != nil {
			return err
		}
		return s.logStaff(ctx, sc, actor, "withdraw_approved", utils.OrZero(sc.registration.RemovalReason))
	})
}

func (s *RegistrationService) RejectWithdraw(ctx context.Context, actor users.Actor, registrationID uuid.UUID) (*bracket.TournamentTeam, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.transition(ctx, registrationID, func(sc *registrationScope) error {
		if err := sc.registration.RejectWithdraw(s.now()); err != nil {
			return err
		}
		return s.logStaff(ctx, sc, actor, "withdraw_rejected", "")
	})
}

func (s *RegistrationService) ForceRemove(ctx context.Context, actor users.Actor, registrationID uuid.UUID, reason string) (*bracket.TournamentTeam, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.transition(ctx, registrationID, func(sc *registrationScope) error {
		if err := sc.registration.ForceRemove(actor.ID, reason, s.now()); err != nil {
			return err
		}
		removal := utils.OrZero(sc.registration.RemovalReason)
		if err := s.logStaff(ctx, sc, actor, "team_removed", removal); err != nil {
			return err
		}
		return s.notifyOwner(ctx, sc, notification.RegistrationRemoved, "Équipe retirée du tournoi",
			fmt.Sprintf("%s a été retirée de %s. Raison : %s", sc.team.Name, sc.tournament.Name, removal))
	})
}

func (s *RegistrationService) ListRegistrations(ctx context.Context, tournamentID uuid.UUID) ([]store.RegistrationView, error) {
	return s.registrations.ListViews(ctx, tournamentID)
}
