package team

import (
	"time"

	"github.com/google/uuid"
)

type Team struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Tag       *string   `db:"tag" json:"tag,omitempty"`
	OwnerID   uuid.UUID `db:"owner_id" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

type Member struct {
	TeamID    uuid.UUID `db:"team_id"`
	UserID    uuid.UUID `db:"user_id"`
	Username  string    `db:"username"`
	AvatarURL *string   `db:"avatar_url"`
	JoinedAt  time.Time `db:"joined_at"`
}

type InviteStatus string

const (
	InvitePending  InviteStatus = "PENDING"
	InviteAccepted InviteStatus = "ACCEPTED"
	InviteDeclined InviteStatus = "DECLINED"
)

type Invite struct {
	ID          uuid.UUID    `db:"id"`
	TeamID      uuid.UUID    `db:"team_id"`
	UserID      uuid.UUID    `db:"user_id"`
	InvitedBy   uuid.UUID    `db:"invited_by"`
	Status      InviteStatus `db:"status"`
	CreatedAt   time.Time    `db:"created_at"`
	RespondedAt *time.Time   `db:"responded_at"`
}
