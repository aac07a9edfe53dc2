package service

import (
	"context"
	"database/sql"
	"errors"
	"slices"

	"github.com/AdamBeresnev/esport-cup/internal/store"
	users "github.com/AdamBeresnev/esport-cup/internal/user"
	"github.com/AdamBeresnev/esport-cup/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/markbates/goth"
	"go.uber.org/zap"
)

// RoleLists promote provider accounts at login.
type RoleLists struct {
	Staff  []string
	Admins []string
}

func (l RoleLists) roleFor(providerID string, current users.Role) users.Role {
	switch {
	case slices.Contains(l.Admins, providerID):
		return users.RoleAdmin
	case slices.Contains(l.Staff, providerID):
		return users.RoleStaff
	case current == "":
		return users.RolePlayer
	default:
		return current
	}
}

type UserService struct {
	db    *sqlx.DB
	store *store.UserStore
	roles RoleLists
	log   *zap.SugaredLogger
	now   Clock
}

func NewUserService(db *sqlx.DB, store *store.UserStore, roles RoleLists, log *zap.SugaredLogger) *UserService {
	return &UserService{db: db, store: store, roles: roles, log: log, now: UTCNow}
}

func displayName(gothUser goth.User) string {
	if gothUser.NickName != "" {
		return gothUser.NickName
	}
	if gothUser.Name != "" {
		return gothUser.Name
	}
	return gothUser.Email
}

// FindOrCreateUserByProvider keeps the profile in sync with the provider on
// every login.
func (s *UserService) FindOrCreateUserByProvider(ctx context.Context, gothUser goth.User) (*users.User, error) {
	user, err := s.store.GetUserByProvider(ctx, gothUser.Provider, gothUser.UserID)

	if err == nil {
		role := s.roles.roleFor(gothUser.UserID, user.Role)
		name := displayName(gothUser)
		if utils.OrZero(user.AvatarURL) != gothUser.AvatarURL || user.Username != name || user.Role != role {
			user.AvatarURL = utils.StringOrNil(gothUser.AvatarURL)
			user.Username = name
			user.Role = role
			if err := s.store.UpdateUserProfile(ctx, user); err != nil {
				return nil, err
			}
		}
		return user, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		newUser := &users.User{
			ID:         uuid.New(),
			Email:      gothUser.Email,
			Username:   displayName(gothUser),
			Role:       s.roles.roleFor(gothUser.UserID, ""),
			CreatedAt:  s.now(),
			Provider:   utils.Ptr(gothUser.Provider),
			ProviderID: utils.Ptr(gothUser.UserID),
			AvatarURL:  utils.StringOrNil(gothUser.AvatarURL),
		}
		if err := s.store.CreateUser(ctx, newUser); err != nil {
			return nil, err
		}
		s.log.Infow("user created", "user_id", newUser.ID, "provider", gothUser.Provider, "role", newUser.Role)
		return newUser, nil
	}

	return nil, err
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Utilisateur introuvable")
	}
	return user, nil
}
