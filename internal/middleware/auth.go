package middleware

import (
	"context"
	"net/http"

	"github.com/AdamBeresnev/esport-cup/internal/config"
	"github.com/AdamBeresnev/esport-cup/internal/store"
	users "github.com/AdamBeresnev/esport-cup/internal/user"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/discord"
)

type ContextKey string

const UserIDKey ContextKey = "userID"

// SessionUserIDKey is the session entry holding the logged in user's ID.
const SessionUserIDKey = "userID"

func InitAuth(cfg config.DiscordConfig) {
	goth.UseProviders(
		discord.New(cfg.Key, cfg.Secret, cfg.CallbackURL, discord.ScopeIdentify, discord.ScopeEmail),
	)
}

// LoadUser puts the session user in the context when there is one. Public
// pages use it to show staff controls without requiring a login.
func LoadUser(sessionManager *scs.SessionManager, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userIDStr := sessionManager.GetString(r.Context(), SessionUserIDKey)
			if userIDStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := uuid.Parse(userIDStr)
			if err != nil {
				sessionManager.Remove(r.Context(), SessionUserIDKey)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)

			user, err := userStore.GetUser(ctx, userID)
			if err == nil {
				ctx = context.WithValue(ctx, users.UserKey, user)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth expects LoadUser to run first.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetAuthenticatedUser(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetAuthenticatedUser(r.Context())
		if user == nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		if !user.IsStaff() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(UserIDKey)
	if val == nil {
		return uuid.Nil, false
	}

	id, ok := val.(uuid.UUID)
	return id, ok
}

func GetAuthenticatedUser(ctx context.Context) *users.User {
	val := ctx.Value(users.UserKey)
	if val == nil {
		return nil
	}
	user, ok := val.(*users.User)
	if !ok {
		return nil
	}
	return user
}
