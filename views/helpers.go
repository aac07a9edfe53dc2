package views

import (
	"context"
	"time"

	"github.com/AdamBeresnev/esport-cup/internal/bracket"
	"github.com/AdamBeresnev/esport-cup/internal/middleware"
	users "github.com/AdamBeresnev/esport-cup/internal/user"
)

func GetUser(ctx context.Context) *users.User {
	return middleware.GetAuthenticatedUser(ctx)
}

const dateLayout = "02/01/2006 15:04"

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(dateLayout) + " UTC"
}

var tournamentStatusLabels = map[bracket.TournamentStatus]string{
	bracket.TournamentUpcoming:         "À venir",
	bracket.TournamentRegistrationOpen: "Inscriptions ouvertes",
	bracket.TournamentOngoing:          "En cours",
	bracket.TournamentCompleted:        "Terminé",
}

var registrationStatusLabels = map[bracket.RegistrationStatus]string{
	bracket.RegistrationPending:           "En attente",
	bracket.RegistrationAccepted:          "Acceptée",
	bracket.RegistrationRejected:          "Refusée",
	bracket.RegistrationWithdrawRequested: "Retrait demandé",
	bracket.RegistrationRemoved:           "Retirée",
	bracket.RegistrationCancelled:         "Annulée",
}

var matchStatusLabels = map[bracket.MatchStatus]string{
	bracket.MatchPending:   "En attente",
	bracket.MatchScheduled: "Programmé",
	bracket.MatchOngoing:   "En cours",
	bracket.MatchCompleted: "Terminé",
}

func TournamentStatusLabel(s bracket.TournamentStatus) string {
	if label, ok := tournamentStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

func RegistrationStatusLabel(s bracket.RegistrationStatus) string {
	if label, ok := registrationStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

func MatchStatusLabel(s bracket.MatchStatus) string {
	if label, ok := matchStatusLabels[s]; ok {
		return label
	}
	return string(s)
}
