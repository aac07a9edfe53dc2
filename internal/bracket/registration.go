package bracket

import (
	"strings"
	"time"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	"github.com/AdamBeresnev/esport-cup/internal/utils"
	"github.com/google/uuid"
)

type RegistrationStatus string

const (
	RegistrationPending           RegistrationStatus = "PENDING"
	RegistrationAccepted          RegistrationStatus = "ACCEPTED"
	RegistrationRejected          RegistrationStatus = "REJECTED"
	RegistrationWithdrawRequested RegistrationStatus = "WITHDRAW_REQUESTED"
	RegistrationRemoved           RegistrationStatus = "REMOVED"
	RegistrationCancelled         RegistrationStatus = "CANCELLED"
)

var registrationTransitions = map[RegistrationStatus][]RegistrationStatus{
	RegistrationPending:           {RegistrationAccepted, RegistrationRejected, RegistrationCancelled},
	RegistrationRejected:          {RegistrationAccepted},
	RegistrationAccepted:          {RegistrationWithdrawRequested, RegistrationRemoved},
	RegistrationWithdrawRequested: {RegistrationRemoved, RegistrationAccepted},
	RegistrationRemoved:           {RegistrationAccepted},
	RegistrationCancelled:         {RegistrationPending},
}

func CanTransition(from, to RegistrationStatus) bool {
	for _, allowed := range registrationTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// HoldsSlot reports whether the registration counts against MaxTeams. A team
// waiting on a withdrawal answer keeps its place until staff decide.
func (s RegistrationStatus) HoldsSlot() bool {
	return s == RegistrationAccepted || s == RegistrationWithdrawRequested
}

func ParseDecision(s string) (RegistrationStatus, error) {
	switch status := RegistrationStatus(strings.ToUpper(strings.TrimSpace(s))); status {
	case RegistrationAccepted, RegistrationRejected:
		return status, nil
	}
	return "", apperr.E(apperr.ValidationFailed, "Décision invalide : %q", s)
}

// TournamentTeam is the registration of one team in one tournament.
type TournamentTeam struct {
	ID           uuid.UUID          `db:"id" json:"id"`
	TournamentID uuid.UUID          `db:"tournament_id" json:"tournamentId"`
	TeamID       uuid.UUID          `db:"team_id" json:"teamId"`
	Status       RegistrationStatus `db:"status" json:"status"`
	RegisteredAt time.Time          `db:"registered_at" json:"registeredAt"`

	RejectionReason *string    `db:"rejection_reason" json:"-"`
	RejectedBy      *uuid.UUID `db:"rejected_by" json:"-"`

	WithdrawReason      *string    `db:"withdraw_reason" json:"-"`
	WithdrawRequestedAt *time.Time `db:"withdraw_requested_at" json:"-"`

	RemovalReason *string    `db:"removal_reason" json:"-"`
	RemovedBy     *uuid.UUID `db:"removed_by" json:"-"`

	CancelledAt *time.Time `db:"cancelled_at" json:"-"`
	UpdatedAt   time.Time  `db:"updated_at" json:"-"`
}

func (r *TournamentTeam) moveTo(to RegistrationStatus, now time.Time) error {
	if !CanTransition(r.Status, to) {
		return apperr.E(apperr.InvalidState, "Transition impossible de %s vers %s", r.Status, to)
	}
	r.Status = to
	r.UpdatedAt = now
	return nil
}

// Reopen turns a cancelled registration back into a fresh PENDING one.
func (r *TournamentTeam) Reopen(now time.Time) error {
	if err := r.moveTo(RegistrationPending, now); err != nil {
		return err
	}
	r.RegisteredAt = now
	r.CancelledAt = nil
	r.clearDecisionMetadata()
	return nil
}

// Accept covers first validation and reinstatement after a rejection or a
// removal. Metadata of the reversed decision is cleared.
func (r *TournamentTeam) Accept(now time.Time) error {
	if r.Status == RegistrationWithdrawRequested {
		return apperr.NewInvalidState("Une demande de retrait est en cours pour cette équipe")
	}
	if err := r.moveTo(RegistrationAccepted, now); err != nil {
		return err
	}
	r.clearDecisionMetadata()
	return nil
}

func (r *TournamentTeam) Reject(staffID uuid.UUID, reason string, now time.Time) error {
	if err := r.moveTo(RegistrationRejected, now); err != nil {
		return err
	}
	r.RejectionReason = utils.StringOrNil(reason)
	r.RejectedBy = &staffID
	return nil
}

func (r *TournamentTeam) Cancel(now time.Time) error {
	if r.Status != RegistrationPending {
		return apperr.NewInvalidState("Seule une inscription en attente peut être annulée")
	}
	if err := r.moveTo(RegistrationCancelled, now); err != nil {
		return err
	}
	r.CancelledAt = &now
	return nil
}

func (r *TournamentTeam) RequestWithdraw(reason string, now time.Time) error {
	reasonPtr := utils.StringOrNil(reason)
	if reasonPtr == nil {
		return apperr.NewValidationFailed("Une raison est obligatoire pour demander un retrait")
	}
	if r.Status != RegistrationAccepted {
		return apperr.NewInvalidState("Seule une équipe acceptée peut demander un retrait")
	}
	if err := r.moveTo(RegistrationWithdrawRequested, now); err != nil {
		return err
	}
	r.WithdrawReason = reasonPtr
	r.WithdrawRequestedAt = &now
	return nil
}

// ApproveWithdraw carries the player's withdraw reason over as removal reason.
func (r *TournamentTeam) ApproveWithdraw(staffID uuid.UUID, now time.Time) error {
	if r.Status != RegistrationWithdrawRequested {
		return apperr.NewInvalidState("Aucune demande de retrait en cours")
	}
	if err := r.moveTo(RegistrationRemoved, now); err != nil {
		return err
	}
	r.RemovalReason = r.WithdrawReason
	r.RemovedBy = &staffID
	return nil
}

func (r *TournamentTeam) RejectWithdraw(now time.Time) error {
	if r.Status != RegistrationWithdrawRequested {
		return apperr.NewInvalidState("Aucune demande de retrait en cours")
	}
	if err := r.moveTo(RegistrationAccepted, now); err != nil {
		return err
	}
	r.WithdrawReason = nil
	r.WithdrawRequestedAt = nil
	return nil
}

func (r *TournamentTeam) ForceRemove(staffID uuid.UUID, reason string, now time.Time) error {
	reasonPtr := utils.StringOrNil(reason)
	if reasonPtr == nil {
		return apperr.NewValidationFailed("Une raison est obligatoire pour retirer une équipe")
	}
	if r.Status != RegistrationAccepted {
		return apperr.NewInvalidState("Seule une équipe acceptée peut être retirée")
	}
	if err := r.moveTo(RegistrationRemoved, now); err != nil {
		return err
	}
	r.RemovalReason = reasonPtr
	r.RemovedBy = &staffID
	return nil
}

func (r *TournamentTeam) clearDecisionMetadata() {
	r.RejectionReason = nil
	r.RejectedBy = nil
	r.RemovalReason = nil
	r.RemovedBy = nil
	r.WithdrawReason = nil
	r.WithdrawRequestedAt = nil
}
