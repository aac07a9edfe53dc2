package users

import (
	"time"

	"github.com/google/uuid"
)

type ContextKey string

const UserKey ContextKey = "user"

type Role string

const (
	RolePlayer Role = "player"
	RoleStaff  Role = "staff"
	RoleAdmin  Role = "admin"
)

type User struct {
	ID         uuid.UUID `db:"id"`
	Email      string    `db:"email"`
	Username   string    `db:"username"`
	Role       Role      `db:"role"`
	CreatedAt  time.Time `db:"created_at"`
	Provider   *string   `db:"provider"`
	ProviderID *string   `db:"provider_id"`
	AvatarURL  *string   `db:"avatar_url"`
}

func (u *User) IsStaff() bool {
	return u != nil && (u.Role == RoleStaff || u.Role == RoleAdmin)
}

// Actor is whoever triggers a service operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}
