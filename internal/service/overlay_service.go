package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	"github.com/AdamBeresnev/esport-cup/internal/bracket"
	"github.com/AdamBeresnev/esport-cup/internal/store"
	"github.com/AdamBeresnev/esport-cup/internal/video"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"go.uber.org/zap"
)

type OverlayTeam struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Tag  *string   `json:"tag,omitempty"`
	Seed int       `json:"seed"`
}

type OverlayMatch struct {
	bracket.Match
	TeamAName string `json:"teamAName,omitempty"`
	TeamBName string `json:"teamBName,omitempty"`
}

// Overlay is the read-only feed polled by stream overlays.
type Overlay struct {
	Tournament *bracket.Tournament `json:"tournament"`
	Teams      []OverlayTeam       `json:"teams"`
	Matches    []OverlayMatch      `json:"matches"`
	Stream     video.EmbedInfo     `json:"stream"`
}

type OverlayService struct {
	store         *store.TournamentStore
	registrations *store.RegistrationStore
	log           *zap.SugaredLogger
}

func NewOverlayService(store *store.TournamentStore, registrations *store.RegistrationStore, log *zap.SugaredLogger) *OverlayService {
	return &OverlayService{store: store, registrations: registrations, log: log}
}

// GetOverlay loads the tournament, its teams and matches concurrently.
func (s *OverlayService) GetOverlay(ctx context.Context, tournamentID uuid.UUID, host string) (*Overlay, error) {
	var (
		tournament    *bracket.Tournament
		registrations []store.RegistrationView
		matches       []bracket.Match
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := s.store.GetTournament(gCtx, tournamentID)
		if err != nil {
			return notFoundOr(err, "Tournoi introuvable")
		}
		tournament = t
		return nil
	})

	g.Go(func() error {
		r, err := s.registrations.ListViews(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load overlay teams: %w", err)
		}
		registrations = r
		return nil
	})

	g.Go(func() error {
		m, err := s.store.GetMatches(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load overlay matches: %w", err)
		}
		matches = m
		return nil
	})

	if err := g.Wait(); err != nil {
		if apperr.KindOf(err) != apperr.NotFound {
			s.log.Errorw("overlay load failed", "tournament_id", tournamentID, "error", err)
		}
		return nil, err
	}

	overlay := &Overlay{
		Tournament: tournament,
		Teams:      []OverlayTeam{},
		Matches:    make([]OverlayMatch, len(matches)),
		Stream:     video.GetEmbedInfo(tournament.StreamURL, host),
	}

	names := make(map[uuid.UUID]string, len(registrations))
	for _, r := range registrations {
		names[r.TeamID] = r.TeamName
		if r.Status.HoldsSlot() {
			overlay.Teams = append(overlay.Teams, OverlayTeam{ID: r.TeamID, Name: r.TeamName, Tag: r.TeamTag, Seed: len(overlay.Teams) + 1})
		}
	}

	for i, m := range matches {
		overlay.Matches[i] = OverlayMatch{Match: m}
		if m.TeamAID != nil {
			overlay.Matches[i].TeamAName = names[*m.TeamAID]
		}
		if m.TeamBID != nil {
			overlay.Matches[i].TeamBName = names[*m.TeamBID]
		}
	}
	return overlay, nil
}

// GetActiveOverlay serves the most recently started ongoing tournament.
func (s *OverlayService) GetActiveOverlay(ctx context.Context, host string) (*Overlay, error) {
	tournament, err := s.store.GetLatestByStatus(ctx, bracket.TournamentOngoing)
	if err != nil {
		return nil, fmt.Errorf("failed to find active tournament: %w", err)
	}
	if tournament == nil {
		return nil, apperr.NewNotFound("Aucun tournoi en cours")
	}
	return s.GetOverlay(ctx, tournament.ID, host)
}
