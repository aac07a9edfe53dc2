package store

import (
	"context"

	users "github.com/AdamBeresnev/esport-cup/internal/user"
	"github.com/jmoiron/sqlx"
)

type UserStore struct {
	db sqlx.ExtContext
}

const (
	getUserQuery           = "SELECT * FROM users WHERE id = ?"
	getUserByProviderQuery = `
		SELECT * FROM users
		WHERE provider = ?
		AND provider_id = ?
	`
	createUserQuery = `
		INSERT INTO users (id, email, username, role, created_at, provider, provider_id, avatar_url) VALUES
		(:id, :email, :username, :role, :created_at, :provider, :provider_id, :avatar_url)
	`
	updateUserProfileQuery = `
		UPDATE users SET
		username = :username,
		avatar_url = :avatar_url,
		role = :role
		WHERE id = :id
	`
)

func NewUserStore(db sqlx.ExtContext) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) WithTx(tx *sqlx.Tx) *UserStore {
	return &UserStore{db: tx}
}

func (s *UserStore) GetUserByProvider(ctx context.Context, provider string, providerID string) (*users.User, error) {
	var user users.User
	err := sqlx.GetContext(ctx, s.db, &user, getUserByProviderQuery, provider, providerID)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (s *UserStore) GetUser(ctx context.Context, id interface{}) (*users.User, error) {
	var user users.User
	err := sqlx.GetContext(ctx, s.db, &user, getUserQuery, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*users.User, error) {
	var user users.User
	err := sqlx.GetContext(ctx, s.db, &user,
		"SELECT * FROM users WHERE username = ? COLLATE NOCASE ORDER BY created_at LIMIT 1", username)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *users.User) error {
	_, err := sqlx.NamedExecContext(ctx, s.db, createUserQuery, user)
	return err
}

// UpdateUserProfile rewrites the provider-owned fields and the role.
func (s *UserStore) UpdateUserProfile(ctx context.Context, user *users.User) error {
	_, err := sqlx.NamedExecContext(ctx, s.db, updateUserProfileQuery, user)
	return err
}
