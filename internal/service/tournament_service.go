package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	"github.com/AdamBeresnev/esport-cup/internal/bracket"
	"github.com/AdamBeresnev/esport-cup/internal/notification"
	"github.com/AdamBeresnev/esport-cup/internal/store"
	users "github.com/AdamBeresnev/esport-cup/internal/user"
	"github.com/AdamBeresnev/esport-cup/internal/utils"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type TournamentService struct {
	db            *sqlx.DB
	store         *store.TournamentStore
	registrations *store.RegistrationStore
	notifications *NotificationService
	log           *zap.SugaredLogger
	now           Clock
}

func NewTournamentService(
	db *sqlx.DB,
	store *store.TournamentStore,
	registrations *store.RegistrationStore,
	notifications *NotificationService,
	log *zap.SugaredLogger,
) *TournamentService {
	return &TournamentService{
		db:            db,
		store:         store,
		registrations: registrations,
		notifications: notifications,
		log:           log,
		now:           UTCNow,
	}
}

type TournamentInput struct {
	Name                 string
	Game                 string
	MaxTeams             int
	BracketFormat        string
	MatchFormat          string
	RegistrationOpensAt  *time.Time
	RegistrationClosesAt *time.Time
	StartDate            *time.Time
	StreamURL            string
}

func (in TournamentInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.NewValidationFailed("Le nom du tournoi est obligatoire")
	}
	if in.MaxTeams < 2 {
		return apperr.NewValidationFailed("Un tournoi doit accepter au moins 2 équipes")
	}
	if in.RegistrationOpensAt != nil && in.RegistrationClosesAt != nil && !in.RegistrationClosesAt.After(*in.RegistrationOpensAt) {
		return apperr.NewValidationFailed("La fermeture des inscriptions doit suivre leur ouverture")
	}
	return nil
}

func (s *TournamentService) CreateTournament(ctx context.Context, actor users.Actor, in TournamentInput) (*bracket.Tournament, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	bracketFormat, err := bracket.ParseBracketFormat(in.BracketFormat)
	if err != nil {
		return nil, err
	}
	matchFormat, err := bracket.ParseMatchFormat(in.MatchFormat)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournaments := s.store.WithTx(tx)
	tournamentSlug, err := s.uniqueSlug(ctx, tournaments, in.Name)
	if err != nil {
		return nil, err
	}

	now := s.now()
	status := bracket.TournamentUpcoming
	if in.RegistrationOpensAt == nil || !in.RegistrationOpensAt.After(now) {
		status = bracket.TournamentRegistrationOpen
	}

	tournament := &bracket.Tournament{
		ID:                   uuid.New(),
		Name:                 strings.TrimSpace(in.Name),
		Slug:                 tournamentSlug,
		Game:                 strings.TrimSpace(in.Game),
		Status:               status,
		MaxTeams:             in.MaxTeams,
		BracketFormat:        bracketFormat,
		MatchFormat:          matchFormat,
		RegistrationOpensAt:  utcPtr(in.RegistrationOpensAt),
		RegistrationClosesAt: utcPtr(in.RegistrationClosesAt),
		StartDate:            utcPtr(in.StartDate),
		StreamURL:            utils.StringOrNil(in.StreamURL),
		CreatedBy:            actor.ID,
		CreatedAt:            now,
	}
	if err := tournaments.CreateTournament(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	err = s.notifications.LogStaffAction(ctx, tx, notification.StaffLog{
		ActorID:      actor.ID,
		Action:       "tournament_created",
		TournamentID: &tournament.ID,
		Details:      tournament.Name,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.log.Infow("tournament created", "tournament_id", tournament.ID, "slug", tournament.Slug, "status", tournament.Status)
	return tournament, nil
}

func (s *TournamentService) uniqueSlug(ctx context.Context, tournaments *store.TournamentStore, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "tournoi"
	}

	candidate := base
	for i := 2; ; i++ {
		exists, err := tournaments.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return utils.Ptr(t.UTC())
}

// SetStatus is the staff override of the tournament lifecycle. It allows any
// status, completing by hand stamps the end date.
func (s *TournamentService) SetStatus(ctx context.Context, actor users.Actor, tournamentID uuid.UUID, status bracket.TournamentStatus) (*bracket.Tournament, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournaments := s.store.WithTx(tx)
	tournament, err := tournaments.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, notFoundOr(err, "Tournoi introuvable")
	}

	from := tournament.Status
	tournament.Status = status
	if status == bracket.TournamentCompleted && tournament.EndDate == nil {
		tournament.EndDate = utils.Ptr(s.now())
	}
	if err := tournaments.UpdateTournament(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to update tournament: %w", err)
	}

	err = s.notifications.LogStaffAction(ctx, tx, notification.StaffLog{
		ActorID:      actor.ID,
		Action:       "tournament_status_changed",
		TournamentID: &tournament.ID,
		Details:      fmt.Sprintf("%s -> %s", from, status),
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.log.Infow("tournament status overridden", "tournament_id", tournamentID, "from", from, "to", status, "actor_id", actor.ID)
	return tournament, nil
}

// OpenDueRegistrations is run by the scheduler.
func (s *TournamentService) OpenDueRegistrations(ctx context.Context) (int64, error) {
	opened, err := s.store.OpenDueRegistrations(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to open registrations: %w", err)
	}
	if opened > 0 {
		s.log.Infow("registrations opened", "tournaments", opened)
	}
	return opened, nil
}

type TournamentData struct {
	Tournament    *bracket.Tournament
	Registrations []store.RegistrationView
	Matches       []bracket.Match
	TeamNames     map[uuid.UUID]string
	StaffLogs     []notification.StaffLog
}

// GetTournamentData loads everything the tournament page shows. Staff logs
// are only loaded for staff.
func (s *TournamentService) GetTournamentData(ctx context.Context, actor users.Actor, tournamentID uuid.UUID) (*TournamentData, error) {
	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, notFoundOr(err, "Tournoi introuvable")
	}

	registrations, err := s.registrations.ListViews(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.GetMatches(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	names := make(map[uuid.UUID]string, len(registrations))
	for _, r := range registrations {
		names[r.TeamID] = r.TeamName
	}

	data := &TournamentData{
		Tournament:    tournament,
		Registrations: registrations,
		Matches:       matches,
		TeamNames:     names,
	}

	if actor.IsStaff() {
		data.StaffLogs, err = s.notifications.ListStaffLogs(ctx, tournamentID)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (s *TournamentService) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	return s.store.ListTournaments(ctx)
}
