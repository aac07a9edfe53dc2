package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	"github.com/AdamBeresnev/esport-cup/internal/notification"
	"github.com/AdamBeresnev/esport-cup/internal/store"
	"github.com/AdamBeresnev/esport-cup/internal/team"
	users "github.com/AdamBeresnev/esport-cup/internal/user"
	"github.com/AdamBeresnev/esport-cup/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const maxTeamTagLength = 5

type TeamService struct {
	db            *sqlx.DB
	store         *store.TeamStore
	users         *store.UserStore
	notifications *NotificationService
	log           *zap.SugaredLogger
	now           Clock
}

func NewTeamService(db *sqlx.DB, store *store.TeamStore, users *store.UserStore, notifications *NotificationService, log *zap.SugaredLogger) *TeamService {
	return &TeamService{db: db, store: store, users: users, notifications: notifications, log: log, now: UTCNow}
}

// CreateTeam makes the actor owner and first member of a new team.
func (s *TeamService) CreateTeam(ctx context.Context, actor users.Actor, name, tag string) (*team.Team, error) {
	if err := requireLoggedIn(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.NewValidationFailed("Le nom de l'équipe est obligatoire")
	}
	tagPtr := utils.StringOrNil(strings.ToUpper(tag))
	if tagPtr != nil && len([]rune(*tagPtr)) > maxTeamTagLength {
		return nil, apperr.E(apperr.ValidationFailed, "Le tag ne peut pas dépasser %d caractères", maxTeamTagLength)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	teams := s.store.WithTx(tx)
	exists, err := teams.NameExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check team name: %w", err)
	}
	if exists {
		return nil, apperr.NewConflict("Ce nom d'équipe est déjà pris")
	}

	t := &team.Team{ID: uuid.New(), Name: name, Tag: tagPtr, OwnerID: actor.ID, CreatedAt: s.now()}
	if err := teams.CreateTeam(ctx, t); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Wrap(apperr.Conflict, "Ce nom d'équipe est déjà pris", err)
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	if err := teams.AddMember(ctx, t.ID, actor.ID); err != nil {
		return nil, fmt.Errorf("failed to add owner to team: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.log.Infow("team created", "team_id", t.ID, "owner_id", actor.ID)
	return t, nil
}

// InvitePlayer lets the owner invite a player by username.
func (s *TeamService) InvitePlayer(ctx context.Context, actor users.Actor, teamID uuid.UUID, username string) (*team.Invite, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	teams := s.store.WithTx(tx)
	t, err := teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, notFoundOr(err, "Équipe introuvable")
	}
	if t.OwnerID != actor.ID {
		return nil, apperr.NewForbidden("Seul le propriétaire de l'équipe peut inviter des joueurs")
	}

	invitee, err := s.users.WithTx(tx).GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, notFoundOr(err, "Joueur introuvable")
	}

	member, err := teams.IsMember(ctx, teamID, invitee.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if member {
		return nil, apperr.NewConflict("Ce joueur fait déjà partie de l'équipe")
	}
	pending, err := teams.HasPendingInvite(ctx, teamID, invitee.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check invites: %w", err)
	}
	if pending {
		return nil, apperr.NewConflict("Une invitation est déjà en attente pour ce joueur")
	}

	invite := &team.Invite{
		ID:        uuid.New(),
		TeamID:    teamID,
		UserID:    invitee.ID,
		InvitedBy: actor.ID,
		Status:    team.InvitePending,
		CreatedAt: s.now(),
	}
	if err := teams.CreateInvite(ctx, invite); err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	err = s.notifications.Notify(ctx, tx, []uuid.UUID{invitee.ID}, Message{
		Type:      notification.TeamInvite,
		Title:     "Invitation d'équipe",
		Message:   fmt.Sprintf("Vous êtes invité à rejoindre %s.", t.Name),
		RelatedID: &invite.ID,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return invite, nil
}

// RespondInvite accepts or declines an invite addressed to the actor.
func (s *TeamService) RespondInvite(ctx context.Context, actor users.Actor, inviteID uuid.UUID, accept bool) (*team.Invite, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	teams := s.store.WithTx(tx)
	invite, err := teams.GetInvite(ctx, inviteID)
	if err != nil {
		return nil, notFoundOr(err, "Invitation introuvable")
	}
	if invite.UserID != actor.ID {
		return nil, apperr.NewForbidden("Cette invitation ne vous est pas destinée")
	}
	if invite.Status != team.InvitePending {
		return nil, apperr.NewInvalidState("Cette invitation a déjà reçu une réponse")
	}

	now := s.now()
	invite.RespondedAt = &now
	invite.Status = team.InviteDeclined
	if accept {
		invite.Status = team.InviteAccepted
		if err := teams.AddMember(ctx, invite.TeamID, actor.ID); err != nil {
			return nil, fmt.Errorf("failed to add member: %w", err)
		}
	}
	if err := teams.UpdateInvite(ctx, invite); err != nil {
		return nil, fmt.Errorf("failed to update invite: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.log.Infow("team invite answered", "invite_id", invite.ID, "team_id", invite.TeamID, "status", invite.Status)
	return invite, nil
}

func (s *TeamService) GetTeam(ctx context.Context, teamID uuid.UUID) (*team.Team, error) {
	t, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, notFoundOr(err, "Équipe introuvable")
	}
	return t, nil
}

func (s *TeamService) ListMembers(ctx context.Context, teamID uuid.UUID) ([]team.Member, error) {
	return s.store.ListMembers(ctx, teamID)
}

func (s *TeamService) ListForUser(ctx context.Context, userID uuid.UUID) ([]team.Team, error) {
	return s.store.ListTeamsForUser(ctx, userID)
}

func (s *TeamService) ListPendingInvites(ctx context.Context, userID uuid.UUID) ([]team.Invite, error) {
	return s.store.ListPendingInvites(ctx, userID)
}
