package views

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/esport-cup/internal/bracket"
	"github.com/AdamBeresnev/esport-cup/internal/notification"
	"github.com/AdamBeresnev/esport-cup/internal/service"
	"github.com/AdamBeresnev/esport-cup/internal/team"
	"github.com/AdamBeresnev/esport-cup/internal/video"
	"github.com/a-h/templ"
	"github.com/google/uuid"
)

func LoginPage(chrome Chrome, discordEnabled bool) templ.Component {
	return page("Connexion", chrome, func(_ context.Context, h *html) {
		h.raw(`<h1>Connexion</h1>`)
		if !discordEnabled {
			h.raw(`<p>La connexion Discord n'est pas configurée.</p>`)
			return
		}
		h.raw(`<a class="button" href="/auth/discord">Se connecter avec Discord</a>`)
	})
}

func Index(chrome Chrome, tournaments []bracket.Tournament) templ.Component {
	return page("Tournois", chrome, func(_ context.Context, h *html) {
		h.raw(`<h1>Tournois</h1>`)
		if len(tournaments) == 0 {
			h.raw(`<p>Aucun tournoi pour le moment.</p>`)
		} else {
			h.raw(`<table><thead><tr><th>Nom</th><th>Jeu</th><th>Statut</th><th>Équipes max</th><th>Début</th></tr></thead><tbody>`)
			for _, t := range tournaments {
				h.rawf(`<tr><td><a href="/tournaments/%s">`, t.ID)
				h.text(t.Name)
				h.raw(`</a></td><td>`)
				h.text(t.Game)
				h.raw(`</td><td>`)
				h.text(TournamentStatusLabel(t.Status))
				h.rawf(`</td><td>%d</td><td>`, t.MaxTeams)
				h.text(formatTime(t.StartDate))
				h.raw(`</td></tr>`)
			}
			h.raw(`</tbody></table>`)
		}

		if chrome.User.IsStaff() {
			createTournamentForm(h)
		}
	})
}

func createTournamentForm(h *html) {
	h.raw(`<h2>Nouveau tournoi</h2><form method="post" action="/tournaments" class="stack">`)
	h.raw(`<label>Nom <input name="name" required maxlength="100"></label>`)
	h.raw(`<label>Jeu <input name="game"></label>`)
	h.raw(`<label>Équipes max <input name="max_teams" type="number" min="2" value="8" required></label>`)
	h.raw(`<label>Format <select name="bracket_format">`)
	h.rawf(`<option value="%s">Élimination directe</option>`, bracket.SingleElimination)
	h.rawf(`<option value="%s">Double élimination</option>`, bracket.DoubleElimination)
	h.rawf(`<option value="%s">Round robin</option>`, bracket.RoundRobin)
	h.raw(`</select></label><label>Matchs <select name="match_format">`)
	for _, f := range []bracket.MatchFormat{bracket.BestOf1, bracket.BestOf3, bracket.BestOf5} {
		h.rawf(`<option>%s</option>`, f)
	}
	h.raw(`</select></label>`)
	h.raw(`<label>Ouverture des inscriptions (UTC) <input name="registration_opens_at" type="datetime-local"></label>`)
	h.raw(`<label>Clôture des inscriptions (UTC) <input name="registration_closes_at" type="datetime-local"></label>`)
	h.raw(`<label>Début (UTC) <input name="start_date" type="datetime-local"></label>`)
	h.raw(`<label>Stream <input name="stream_url" type="url" placeholder="https://www.twitch.tv/..."></label>`)
	h.raw(`<button>Créer</button></form>`)
}

type TournamentPageData struct {
	*service.TournamentData
	// OwnedTeams are the teams the viewer may register.
	OwnedTeams []team.Team
	Stream     video.EmbedInfo
}

func TournamentPage(chrome Chrome, data TournamentPageData) templ.Component {
	t := data.Tournament
	staff := chrome.User.IsStaff()

	return page(t.Name, chrome, func(_ context.Context, h *html) {
		h.raw(`<h1>`)
		h.text(t.Name)
		h.raw(`</h1><p class="meta">`)
		h.text(fmt.Sprintf("%s · %s · %s · %s", t.Game, TournamentStatusLabel(t.Status), t.MatchFormat, t.BracketFormat))
		h.raw(`</p><dl>`)
		h.raw(`<dt>Inscriptions</dt><dd>`)
		h.text(formatTime(t.RegistrationOpensAt) + " → " + formatTime(t.RegistrationClosesAt))
		h.raw(`</dd><dt>Début</dt><dd>`)
		h.text(formatTime(t.StartDate))
		h.raw(`</dd>`)
		if t.ChampionTeamID != nil {
			h.raw(`<dt>Champion</dt><dd class="champion">`)
			h.text(data.TeamNames[*t.ChampionTeamID])
			h.raw(`</dd>`)
		}
		h.raw(`</dl>`)

		streamEmbed(h, data.Stream)

		if staff {
			staffTournamentActions(h, t)
		}

		registrationSection(h, chrome, data)

		if len(data.Matches) > 0 {
			bracketSection(h, PrepareBracketData(data.TeamNames, data.Matches), staff && t.Status != bracket.TournamentCompleted)
		}

		if staff && len(data.StaffLogs) > 0 {
			h.raw(`<h2>Journal staff</h2><ul class="log">`)
			for _, l := range data.StaffLogs {
				h.raw(`<li>`)
				h.text(formatTime(&l.CreatedAt) + " " + l.Action)
				if l.Details != "" {
					h.text(" : " + l.Details)
				}
				h.raw(`</li>`)
			}
			h.raw(`</ul>`)
		}
	})
}

func streamEmbed(h *html, stream video.EmbedInfo) {
	switch stream.Type {
	case video.EmbedTypeNone:
		return
	case video.EmbedTypeVideo:
		h.raw(`<video class="stream" controls src="`)
		h.text(stream.URL)
		h.raw(`"></video>`)
	default:
		h.raw(`<iframe class="stream" allowfullscreen src="`)
		h.text(stream.URL)
		h.raw(`"></iframe>`)
	}
}

func staffTournamentActions(h *html, t *bracket.Tournament) {
	h.raw(`<section class="staff"><h2>Staff</h2>`)
	h.rawf(`<form method="post" action="/tournaments/%s/status" class="inline"><select name="status">`, t.ID)
	for _, s := range []bracket.TournamentStatus{bracket.TournamentUpcoming, bracket.TournamentRegistrationOpen, bracket.TournamentOngoing, bracket.TournamentCompleted} {
		selected := ""
		if s == t.Status {
			selected = " selected"
		}
		h.rawf(`<option value="%s"%s>`, s, selected)
		h.text(TournamentStatusLabel(s))
		h.raw(`</option>`)
	}
	h.raw(`</select><button>Changer le statut</button></form>`)
	if t.Status != bracket.TournamentCompleted {
		h.rawf(`<form method="post" action="/tournaments/%s/bracket" class="inline"><button>Générer le bracket</button></form>`, t.ID)
	}
	h.raw(`</section>`)
}

func registrationSection(h *html, chrome Chrome, data TournamentPageData) {
	t := data.Tournament
	staff := chrome.User.IsStaff()

	h.raw(`<h2>Équipes inscrites</h2>`)
	if len(data.Registrations) == 0 {
		h.raw(`<p>Aucune inscription.</p>`)
	} else {
		h.raw(`<table><thead><tr><th>Équipe</th><th>Statut</th><th>Inscrite le</th><th></th></tr></thead><tbody>`)
		for _, r := range data.Registrations {
			h.raw(`<tr><td>`)
			if r.TeamTag != nil {
				h.text("[" + *r.TeamTag + "] ")
			}
			h.text(r.TeamName)
			h.raw(`</td><td>`)
			h.text(RegistrationStatusLabel(r.Status))
			if r.RejectionReason != nil {
				h.raw(` <small>`)
				h.text(*r.RejectionReason)
				h.raw(`</small>`)
			}
			if r.WithdrawReason != nil && (staff || r.Status == bracket.RegistrationWithdrawRequested) {
				h.raw(` <small>`)
				h.text(*r.WithdrawReason)
				h.raw(`</small>`)
			}
			h.raw(`</td><td>`)
			h.text(formatTime(&r.RegisteredAt))
			h.raw(`</td><td>`)
			if staff {
				staffRegistrationActions(h, r.TournamentTeam)
			}
			if chrome.User != nil && ownsTeam(data.OwnedTeams, r.TeamID) {
				ownerRegistrationActions(h, r.TournamentTeam)
			}
			h.raw(`</td></tr>`)
		}
		h.raw(`</tbody></table>`)
	}

	if chrome.User == nil || t.Status != bracket.TournamentRegistrationOpen {
		return
	}
	if len(data.OwnedTeams) == 0 {
		h.raw(`<p><a href="/teams">Créez une équipe</a> pour vous inscrire.</p>`)
		return
	}
	h.rawf(`<form method="post" action="/tournaments/%s/registrations" class="inline"><select name="team_id">`, t.ID)
	for _, tm := range data.OwnedTeams {
		h.rawf(`<option value="%s">`, tm.ID)
		h.text(tm.Name)
		h.raw(`</option>`)
	}
	h.raw(`</select><button>Inscrire</button></form>`)
}

func ownsTeam(teams []team.Team, id uuid.UUID) bool {
	for _, tm := range teams {
		if tm.ID == id {
			return true
		}
	}
	return false
}

func staffRegistrationActions(h *html, r bracket.TournamentTeam) {
	switch r.Status {
	case bracket.RegistrationPending, bracket.RegistrationRejected, bracket.RegistrationRemoved:
		h.rawf(`<form method="post" action="/registrations/%s/validate" class="inline">`, r.ID)
		h.rawf(`<input type="hidden" name="decision" value="%s"><button>Accepter</button></form>`, bracket.RegistrationAccepted)
		if r.Status == bracket.RegistrationPending {
			h.rawf(`<form method="post" action="/registrations/%s/validate" class="inline">`, r.ID)
			h.rawf(`<input type="hidden" name="decision" value="%s">`, bracket.RegistrationRejected)
			h.raw(`<input name="reason" placeholder="Raison"><button>Refuser</button></form>`)
		}
	case bracket.RegistrationAccepted:
		h.rawf(`<form method="post" action="/registrations/%s/remove" class="inline">`, r.ID)
		h.raw(`<input name="reason" placeholder="Raison" required><button>Retirer</button></form>`)
	case bracket.RegistrationWithdrawRequested:
		h.rawf(`<form method="post" action="/registrations/%s/withdraw/approve" class="inline"><button>Valider le retrait</button></form>`, r.ID)
		h.rawf(`<form method="post" action="/registrations/%s/withdraw/reject" class="inline"><button>Refuser le retrait</button></form>`, r.ID)
	}
}

func ownerRegistrationActions(h *html, r bracket.TournamentTeam) {
	switch r.Status {
	case bracket.RegistrationPending:
		h.rawf(`<form method="post" action="/registrations/%s/cancel" class="inline"><button>Annuler</button></form>`, r.ID)
	case bracket.RegistrationAccepted:
		h.rawf(`<form method="post" action="/registrations/%s/withdraw" class="inline">`, r.ID)
		h.raw(`<input name="reason" placeholder="Raison du retrait" required><button>Demander le retrait</button></form>`)
	}
}

func bracketSection(h *html, data BracketData, editable bool) {
	h.raw(`<h2>Bracket</h2><div class="bracket">`)
	for _, round := range data.RoundNums {
		h.raw(`<div class="round"><h3>`)
		h.text(data.Labels[round])
		h.raw(`</h3>`)
		for _, m := range data.Rounds[round] {
			h.rawf(`<div class="match status-%s" id="match-%d">`, m.Status, m.MatchNumber)
			h.rawf(`<span class="number">#%d</span> `, m.MatchNumber)
			matchSide(h, data, m, m.TeamAID, m.ScoreA)
			matchSide(h, data, m, m.TeamBID, m.ScoreB)
			h.raw(`<span class="status">`)
			h.text(MatchStatusLabel(m.Status))
			if m.ScheduledAt != nil && m.Status != bracket.MatchCompleted {
				h.text(" · " + formatTime(m.ScheduledAt))
			}
			h.raw(`</span>`)
			if editable && m.HasBothTeams() && m.Status != bracket.MatchCompleted {
				resultForm(h, m)
			}
			h.raw(`</div>`)
		}
		h.raw(`</div>`)
	}
	h.raw(`</div>`)
}

func matchSide(h *html, data BracketData, m bracket.Match, teamID *uuid.UUID, score int) {
	class := "side"
	if teamID != nil && m.WinnerID != nil && *m.WinnerID == *teamID {
		class += " winner"
	}
	h.rawf(`<div class="%s">`, class)
	h.text(data.SlotName(m, teamID))
	if !m.IsBye && m.Status != bracket.MatchPending && m.Status != bracket.MatchScheduled {
		h.rawf(` <b>%d</b>`, score)
	}
	h.raw(`</div>`)
}

func resultForm(h *html, m bracket.Match) {
	h.rawf(`<form method="post" action="/matches/%s/result" class="result">`, m.ID)
	h.rawf(`<input name="score_a" type="number" min="0" value="%d" required>`, m.ScoreA)
	h.rawf(`<input name="score_b" type="number" min="0" value="%d" required>`, m.ScoreB)
	h.raw(`<select name="status">`)
	h.rawf(`<option value="%s">En cours</option><option value="%s">Terminé</option>`, bracket.MatchOngoing, bracket.MatchCompleted)
	h.raw(`</select><button>Enregistrer</button></form>`)
}

func TeamsPage(chrome Chrome, teams []team.Team, invites []team.Invite, inviteTeams map[uuid.UUID]string) templ.Component {
	return page("Équipes", chrome, func(_ context.Context, h *html) {
		h.raw(`<h1>Mes équipes</h1>`)
		if len(teams) == 0 {
			h.raw(`<p>Vous ne faites partie d'aucune équipe.</p>`)
		} else {
			h.raw(`<ul>`)
			for _, tm := range teams {
				h.rawf(`<li><a href="/teams/%s">`, tm.ID)
				if tm.Tag != nil {
					h.text("[" + *tm.Tag + "] ")
				}
				h.text(tm.Name)
				h.raw(`</a></li>`)
			}
			h.raw(`</ul>`)
		}

		if len(invites) > 0 {
			h.raw(`<h2>Invitations</h2><ul>`)
			for _, inv := range invites {
				h.raw(`<li>`)
				h.text(inviteTeams[inv.TeamID])
				h.rawf(` <form method="post" action="/invites/%s/respond" class="inline"><input type="hidden" name="accept" value="true"><button>Rejoindre</button></form>`, inv.ID)
				h.rawf(` <form method="post" action="/invites/%s/respond" class="inline"><input type="hidden" name="accept" value="false"><button>Décliner</button></form>`, inv.ID)
				h.raw(`</li>`)
			}
			h.raw(`</ul>`)
		}

		h.raw(`<h2>Créer une équipe</h2><form method="post" action="/teams" class="stack">`)
		h.raw(`<label>Nom <input name="name" required maxlength="50"></label>`)
		h.raw(`<label>Tag <input name="tag" maxlength="5"></label>`)
		h.raw(`<button>Créer</button></form>`)
	})
}

func TeamPage(chrome Chrome, t *team.Team, members []team.Member) templ.Component {
	isOwner := chrome.User != nil && chrome.User.ID == t.OwnerID

	return page(t.Name, chrome, func(_ context.Context, h *html) {
		h.raw(`<h1>`)
		if t.Tag != nil {
			h.text("[" + *t.Tag + "] ")
		}
		h.text(t.Name)
		h.raw(`</h1><h2>Joueurs</h2><ul class="members">`)
		for _, m := range members {
			h.raw(`<li>`)
			if m.AvatarURL != nil {
				h.raw(`<img class="avatar" alt="" src="`)
				h.text(*m.AvatarURL)
				h.raw(`"> `)
			}
			h.text(m.Username)
			if m.UserID == t.OwnerID {
				h.raw(` <em>capitaine</em>`)
			}
			h.raw(`</li>`)
		}
		h.raw(`</ul>`)

		if isOwner {
			h.rawf(`<h2>Inviter un joueur</h2><form method="post" action="/teams/%s/invites" class="inline">`, t.ID)
			h.raw(`<input name="username" placeholder="Pseudo" required><button>Inviter</button></form>`)
		}
	})
}

func NotificationsPage(chrome Chrome, list []notification.Notification) templ.Component {
	return page("Notifications", chrome, func(_ context.Context, h *html) {
		h.raw(`<h1>Notifications</h1>`)
		if len(list) == 0 {
			h.raw(`<p>Rien de neuf.</p>`)
			return
		}
		h.raw(`<form method="post" action="/notifications/read-all"><button>Tout marquer comme lu</button></form><ul class="notifications">`)
		for _, n := range list {
			class := "read"
			if !n.IsRead {
				class = "unread"
			}
			h.rawf(`<li class="%s type-%s"><strong>`, class, n.Type)
			h.text(n.Title)
			h.raw(`</strong> `)
			h.text(n.Message)
			h.raw(` <small>`)
			h.text(formatTime(&n.CreatedAt))
			h.raw(`</small>`)
			if !n.IsRead {
				h.rawf(` <form method="post" action="/notifications/%s/read" class="inline"><button>Lu</button></form>`, n.ID)
			}
			h.raw(`</li>`)
		}
		h.raw(`</ul>`)
	})
}
