package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AdamBeresnev/esport-cup/internal/bracket"
	"github.com/AdamBeresnev/esport-cup/internal/config"
	"github.com/AdamBeresnev/esport-cup/internal/store"
	"github.com/AdamBeresnev/esport-cup/internal/team"
	users "github.com/AdamBeresnev/esport-cup/internal/user"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	// every connection would get its own empty in-memory database
	database.SetMaxOpenConns(1)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	t.Cleanup(func() { database.Close() })
	return database
}

// testClock moves forward one second per call so rows written in a test keep
// a stable order.
type testClock struct {
	current time.Time
}

func (c *testClock) Now() time.Time {
	c.current = c.current.Add(time.Second)
	return c.current
}

type fixture struct {
	db    *sqlx.DB
	clock *testClock
	log   *zap.SugaredLogger

	tournamentStore   *store.TournamentStore
	registrationStore *store.RegistrationStore
	teamStore         *store.TeamStore
	userStore         *store.UserStore
	notificationStore *store.NotificationStore

	notifications *NotificationService
	tournaments   *TournamentService
	registrations *RegistrationService
	brackets      *BracketService
	matches       *MatchService
	teams         *TeamService
	users         *UserService
	overlays      *OverlayService

	staff users.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	log := zaptest.NewLogger(t).Sugar()
	clock := &testClock{current: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)}

	f := &fixture{
		db:                db,
		clock:             clock,
		log:               log,
		tournamentStore:   store.NewTournamentStore(db),
		registrationStore: store.NewRegistrationStore(db),
		teamStore:         store.NewTeamStore(db),
		userStore:         store.NewUserStore(db),
		notificationStore: store.NewNotificationStore(db),
	}

	f.notifications = NewNotificationService(db, f.notificationStore, log)
	f.tournaments = NewTournamentService(db, f.tournamentStore, f.registrationStore, f.notifications, log)
	f.registrations = NewRegistrationService(db, f.tournamentStore, f.registrationStore, f.teamStore, f.notifications, log)
	f.brackets = NewBracketService(db, f.tournamentStore, f.registrationStore, f.notifications,
		config.BracketConfig{MatchSpacing: time.Hour, RoundSpacing: 24 * time.Hour}, log)
	f.matches = NewMatchService(db, f.tournamentStore, f.registrationStore, f.teamStore, f.notifications, log)
	f.teams = NewTeamService(db, f.teamStore, f.userStore, f.notifications, log)
	f.users = NewUserService(db, f.userStore, RoleLists{Staff: []string{"staff-discord"}, Admins: []string{"admin-discord"}}, log)
	f.overlays = NewOverlayService(f.tournamentStore, f.registrationStore, log)

	f.notifications.now = clock.Now
	f.tournaments.now = clock.Now
	f.registrations.now = clock.Now
	f.brackets.now = clock.Now
	f.matches.now = clock.Now
	f.teams.now = clock.Now
	f.users.now = clock.Now

	f.staff = f.seedUser(t, "staff", users.RoleStaff).Actor()
	return f
}

func (f *fixture) seedUser(t *testing.T, name string, role users.Role) *users.User {
	t.Helper()
	user := &users.User{
		ID:        uuid.New(),
		Email:     name + "@example.com",
		Username:  name,
		Role:      role,
		CreatedAt: f.clock.Now(),
	}
	require.NoError(t, f.userStore.CreateUser(context.Background(), user))
	return user
}

// seedTeam creates a team whose owner is one of its players.
func (f *fixture) seedTeam(t *testing.T, name string, players int) (*team.Team, []*users.User) {
	t.Helper()
	ctx := context.Background()

	members := make([]*users.User, players)
	for i := range members {
		members[i] = f.seedUser(t, fmt.Sprintf("%s-player%d", name, i+1), users.RolePlayer)
	}

	tm, err := f.teams.CreateTeam(ctx, members[0].Actor(), name, "")
	require.NoError(t, err)
	for _, m := range members[1:] {
		require.NoError(t, f.teamStore.AddMember(ctx, tm.ID, m.ID))
	}
	return tm, members
}

func (f *fixture) seedTournament(t *testing.T, name string, maxTeams int) *bracket.Tournament {
	t.Helper()
	tournament, err := f.tournaments.CreateTournament(context.Background(), f.staff, TournamentInput{
		Name:     name,
		Game:     "Valorant",
		MaxTeams: maxTeams,
	})
	require.NoError(t, err)
	require.Equal(t, bracket.TournamentRegistrationOpen, tournament.Status)
	return tournament
}

func (f *fixture) register(t *testing.T, tournament *bracket.Tournament, tm *team.Team) *bracket.TournamentTeam {
	t.Helper()
	registration, err := f.registrations.SubmitRegistration(context.Background(), users.Actor{ID: tm.OwnerID, Role: users.RolePlayer}, tournament.ID, tm.ID)
	require.NoError(t, err)
	return registration
}

func (f *fixture) acceptTeams(t *testing.T, tournament *bracket.Tournament, teams ...*team.Team) {
	t.Helper()
	for _, tm := range teams {
		registration := f.register(t, tournament, tm)
		_, err := f.registrations.ValidateRegistration(context.Background(), f.staff, registration.ID, bracket.RegistrationAccepted, "")
		require.NoError(t, err)
	}
}

func (f *fixture) notificationsOf(t *testing.T, userID uuid.UUID) []string {
	t.Helper()
	list, err := f.notifications.ListForUser(context.Background(), userID)
	require.NoError(t, err)
	types := make([]string, len(list))
	for i, n := range list {
		types[i] = string(n.Type)
	}
	return types
}

func matchByNumber(t *testing.T, matches []bracket.Match, number int) bracket.Match {
	t.Helper()
	for _, m := range matches {
		if m.MatchNumber == number {
			return m
		}
	}
	require.FailNow(t, "match not found", "match %d", number)
	return bracket.Match{}
}
