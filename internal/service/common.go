package service

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	users "github.com/AdamBeresnev/esport-cup/internal/user"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// Clock is injected into services so tests can pin time.
type Clock func() time.Time

func UTCNow() time.Time {
	return time.Now().UTC()
}

// notFoundOr turns a missing row into a NotFound error and wraps anything
// else as an internal failure.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Wrap(apperr.NotFound, msg, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func requireStaff(actor users.Actor) error {
	if !actor.IsStaff() {
		return apperr.NewForbidden("Action réservée au staff")
	}
	return nil
}

func requireLoggedIn(actor users.Actor) error {
	if actor.ID == uuid.Nil {
		return apperr.NewUnauthorized("Vous devez être connecté")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
