package notification

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	RegistrationSubmitted Type = "registration_submitted"
	RegistrationAccepted  Type = "registration_accepted"
	RegistrationRejected  Type = "registration_rejected"
	RegistrationRemoved   Type = "registration_removed"
	MatchVictory          Type = "match_victory"
	MatchDefeat           Type = "match_defeat"
	TournamentCompleted   Type = "tournament_completed"
	TeamInvite            Type = "team_invite"
)

// Notification rows are written once; only IsRead changes afterwards.
type Notification struct {
	ID        uuid.UUID  `db:"id"`
	UserID    uuid.UUID  `db:"user_id"`
	Type      Type       `db:"type"`
	Title     string     `db:"title"`
	Message   string     `db:"message"`
	RelatedID *uuid.UUID `db:"related_id"`
	IsRead    bool       `db:"is_read"`
	CreatedAt time.Time  `db:"created_at"`
}

// StaffLog records staff-facing events, including player actions staff must
// act on such as withdraw requests.
type StaffLog struct {
	ID           uuid.UUID  `db:"id"`
	ActorID      uuid.UUID  `db:"actor_id"`
	Action       string     `db:"action"`
	TournamentID *uuid.UUID `db:"tournament_id"`
	TargetID     *uuid.UUID `db:"target_id"`
	Details      string     `db:"details"`
	CreatedAt    time.Time  `db:"created_at"`
}
