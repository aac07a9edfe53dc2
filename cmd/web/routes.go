package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	"github.com/AdamBeresnev/esport-cup/internal/bracket"
	"github.com/AdamBeresnev/esport-cup/internal/config"
	"github.com/AdamBeresnev/esport-cup/internal/httputil"
	"github.com/AdamBeresnev/esport-cup/internal/middleware"
	"github.com/AdamBeresnev/esport-cup/internal/service"
	"github.com/AdamBeresnev/esport-cup/internal/store"
	"github.com/AdamBeresnev/esport-cup/internal/team"
	users "github.com/AdamBeresnev/esport-cup/internal/user"
	"github.com/AdamBeresnev/esport-cup/internal/video"
	"github.com/AdamBeresnev/esport-cup/views"
	"github.com/a-h/templ"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const flashKey = "flash"

type app struct {
	cfg      config.Config
	log      *zap.SugaredLogger
	sessions *scs.SessionManager

	userStore     *store.UserStore
	notifications *service.NotificationService
	tournaments   *service.TournamentService
	registrations *service.RegistrationService
	brackets      *service.BracketService
	matches       *service.MatchService
	teams         *service.TeamService
	users         *service.UserService
	overlays      *service.OverlayService
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestLogger(a.log))
	r.Use(chimiddleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/overlay", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: a.cfg.OverlayAllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/active", a.overlayActive)
		r.Get("/tournaments/{id}", a.overlayTournament)
	})

	r.Group(func(r chi.Router) {
		r.Use(a.sessions.LoadAndSave)
		r.Use(middleware.LoadUser(a.sessions, a.userStore))

		// Serve static files
		fileServer := http.FileServer(http.Dir("./static"))
		r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

		r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
			a.render(w, r, views.LoginPage(a.chrome(r), a.cfg.Discord.Enabled()))
		})
		r.Get("/auth/{provider}", a.beginAuth)
		r.Get("/auth/{provider}/callback", a.authCallback)
		r.Post("/logout", a.logout)

		r.Get("/tournaments/{id}", a.tournamentPage)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/", a.index)
			r.Get("/teams", a.teamsPage)
			r.Post("/teams", a.createTeam)
			r.Get("/teams/{id}", a.teamPage)
			r.Post("/teams/{id}/invites", a.invitePlayer)
			r.Post("/invites/{id}/respond", a.respondInvite)

			r.Post("/tournaments/{id}/registrations", a.submitRegistration)
			r.Post("/registrations/{id}/cancel", a.cancelRegistration)
			r.Post("/registrations/{id}/withdraw", a.requestWithdraw)

			r.Get("/notifications", a.notificationsPage)
			r.Post("/notifications/read-all", a.markAllRead)
			r.Post("/notifications/{id}/read", a.markRead)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStaff)

			r.Post("/tournaments", a.createTournament)
			r.Post("/tournaments/{id}/status", a.setTournamentStatus)
			r.Post("/tournaments/{id}/bracket", a.generateBracket)
			r.Post("/registrations/{id}/validate", a.validateRegistration)
			r.Post("/registrations/{id}/withdraw/approve", a.approveWithdraw)
			r.Post("/registrations/{id}/withdraw/reject", a.rejectWithdraw)
			r.Post("/registrations/{id}/remove", a.forceRemove)
			r.Post("/matches/{id}/result", a.reportResult)
		})
	})

	return r
}

func actorFrom(r *http.Request) users.Actor {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		return users.Actor{}
	}
	return user.Actor()
}

func (a *app) chrome(r *http.Request) views.Chrome {
	chrome := views.Chrome{
		User:  middleware.GetAuthenticatedUser(r.Context()),
		Flash: a.sessions.PopString(r.Context(), flashKey),
	}
	if chrome.User != nil {
		unread, err := a.notifications.UnreadCount(r.Context(), chrome.User.ID)
		if err != nil {
			a.log.Warnw("failed to count unread notifications", "user_id", chrome.User.ID, "error", err)
		}
		chrome.Unread = unread
	}
	return chrome
}

func (a *app) render(w http.ResponseWriter, r *http.Request, component templ.Component) {
	if err := views.Render(w, r, component); err != nil {
		a.log.Errorw("failed to render page", "path", r.URL.Path, "error", err)
	}
}

func (a *app) urlID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, a.log, "Identifiant invalide", err)
		return uuid.Nil, false
	}
	return id, true
}

func back(r *http.Request) string {
	if ref := r.Referer(); ref != "" {
		return ref
	}
	return "/"
}

// done redirects after a form post. Domain errors become a flash message on
// the page the form came from.
func (a *app) done(w http.ResponseWriter, r *http.Request, err error, success, target string) {
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			httputil.InternalServerError(w, a.log, "request failed", err)
			return
		}
		a.sessions.Put(r.Context(), flashKey, apperr.Message(err, "Action impossible"))
		http.Redirect(w, r, back(r), http.StatusSeeOther)
		return
	}
	if success != "" {
		a.sessions.Put(r.Context(), flashKey, success)
	}
	if target == "" {
		target = back(r)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func tournamentURL(id uuid.UUID) string {
	return "/tournaments/" + id.String()
}

func (a *app) beginAuth(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

	gothic.BeginAuthHandler(w, r)
}

func (a *app) authCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		httputil.BadRequest(w, a.log, "Authentication failure", err)
		return
	}

	user, err := a.users.FindOrCreateUserByProvider(r.Context(), gothUser)
	if err != nil {
		httputil.InternalServerError(w, a.log, "Failed to find or create user", err)
		return
	}

	if err := a.sessions.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, a.log, "Failed to renew session", err)
		return
	}
	a.sessions.Put(r.Context(), middleware.SessionUserIDKey, user.ID.String())
	a.log.Infow("user logged in", "user_id", user.ID, "provider", provider)

	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *app) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context()); err != nil {
		a.log.Warnw("failed to destroy session", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (a *app) index(w http.ResponseWriter, r *http.Request) {
	tournaments, err := a.tournaments.ListTournaments(r.Context())
	if err != nil {
		httputil.InternalServerError(w, a.log, "Failed to get tournaments", err)
		return
	}
	a.render(w, r, views.Index(a.chrome(r), tournaments))
}

func (a *app) tournamentPage(w http.ResponseWriter, r *http.Request) {
	id, ok := a.urlID(w, r)
	if !ok {
		return
	}

	actor := actorFrom(r)
	data, err := a.tournaments.GetTournamentData(r.Context(), actor, id)
	if err != nil {
		httputil.Error(w, a.log, err)
		return
	}

	var owned []team.Team
	if actor.ID != uuid.Nil {
		mine, err := a.teams.ListForUser(r.Context(), actor.ID)
		if err != nil {
			httputil.InternalServerError(w, a.log, "Failed to get teams", err)
			return
		}
		for _, tm := range mine {
			if tm.OwnerID == actor.ID {
				owned = append(owned, tm)
			}
		}
	}

	a.render(w, r, views.TournamentPage(a.chrome(r), views.TournamentPageData{
		TournamentData: data,
		OwnedTeams:     owned,
		Stream:         video.GetEmbedInfo(data.Tournament.StreamURL, r.Host),
	}))
}

// parseFormTime reads a datetime-local field as UTC.
func parseFormTime(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04", value, time.UTC)
	if err != nil {
		return nil, apperr.E(apperr.ValidationFailed, "Date invalide : %q", value)
	}
	return &t, nil
}

func tournamentInputFromForm(r *http.Request) (service.TournamentInput, error) {
	in := service.TournamentInput{
		Name:          r.PostForm.Get("name"),
		Game:          r.PostForm.Get("game"),
		BracketFormat: r.PostForm.Get("bracket_format"),
		MatchFormat:   r.PostForm.Get("match_format"),
		StreamURL:     r.PostForm.Get("stream_url"),
	}

	maxTeams, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("max_teams")))
	if err != nil {
		return in, apperr.NewValidationFailed("Le nombre d'équipes doit être un entier")
	}
	in.MaxTeams = maxTeams

	if in.RegistrationOpensAt, err = parseFormTime(r.PostForm.Get("registration_opens_at")); err != nil {
		return in, err
	}
	if in.RegistrationClosesAt, err = parseFormTime(r.PostForm.Get("registration_closes_at")); err != nil {
		return in, err
	}
	if in.StartDate, err = parseFormTime(r.PostForm.Get("start_date")); err != nil {
		return in, err
	}
	return in, nil
}

func (a *app) createTournament(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, a.log, "Invalid form data", err)
		return
	}
	in, err := tournamentInputFromForm(r)
	if err != nil {
		a.done(w, r, err, "", "")
		return
	}

	tournament, err := a.tournaments.CreateTournament(r.Context(), actorFrom(r), in)
	if err != nil {
		a.done(w, r, err, "", "")
		return
	}
	a.done(w, r, nil, "Tournoi créé", tournamentURL(tournament.ID))
}

func (a *app) setTournamentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := a.urlID(w, r)
	if !ok {
		return
	}
	status, err := bracket.ParseTournamentStatus(r.FormValue("status"))
	if err == nil {
		_, err = a.tournaments.SetStatus(r.Context(), actorFrom(r), id, status)
	}
	a.done(w, r, err, "Statut mis à jour", tournamentURL(id))
}

func (a *app) generateBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := a.urlID(w, r)
	if !ok {
		return
	}
	_, err := a.brackets.GenerateBracket(r.Context(), actorFrom(r), id)
	a.done(w, r, err, "Bracket généré", tournamentURL(id))
}

func (a *app) submitRegistration(w http.ResponseWriter, r *http.Request) {
	id, ok := a.urlID(w, r)
	if !ok {
		return
	}
	teamID, err := uuid.Parse(r.FormValue("team_id"))
	if err != nil {
		httputil.BadRequest(w, a.log, "Équipe invalide", err)
		return
	}
	_, err = a.registrations.SubmitRegistration(r.Context(), actorFrom(r), id, teamID)
	a.done(w, r, err, "Inscription envoyée", tournamentURL(id))
}

// registrationAction runs a registration transition and goes back to the
// tournament page.
func (a *app) registrationAction(w http.ResponseWriter, r *http.Request, success string, fn func(ctx context.Context, actor users.Actor, id uuid.UUID) (*bracket.TournamentTeam, error)) {
	id, ok := a.urlID(w, r)
	if !ok {
		return
	}
	registration, err := fn(r.Context(), actorFrom(r), id)
	target := ""
	if err == nil {
		target = tournamentURL(registration.TournamentID)
	}
	a.done(w, r, err, success, target)
}

func (a *app) cancelRegistration(w http.ResponseWriter, r *http.Request) {
	a.registrationAction(w, r, "Inscription annulée", a.registrations.CancelRegistration)
}

func (a *app) requestWithdraw(w http.ResponseWriter, r *http.Request) {
	reason := r.FormValue("reason")
	a.registrationAction(w, r, "Demande de retrait envoyée", func(ctx context.Context, actor users.Actor, id uuid.UUID) (*bracket.TournamentTeam, error) {
		return a.registrations.RequestWithdraw(ctx, actor, id, reason)
	})
}

func (a *app) validateRegistration(w http.ResponseWriter, r *http.Request) {
	decision, err := bracket.ParseDecision(r.FormValue("decision"))
	if err != nil {
		a.done(w, r, err, "", "")
		return
	}
	reason := r.FormValue("reason")
	a.registrationAction(w, r, "Inscription mise à jour", func(ctx context.Context, actor users.Actor, id uuid.UUID) (*bracket.TournamentTeam, error) {
		return a.registrations.ValidateRegistration(ctx, actor, id, decision, reason)
	})
}

func (a *app) approveWithdraw(w http.ResponseWriter, r *http.Request) {
	a.registrationAction(w, r, "Retrait validé", a.registrations.ApproveWithdraw)
}

func (a *app) rejectWithdraw(w http.ResponseWriter, r *http.Request) {
	a.registrationAction(w, r, "Retrait refusé", a.registrations.RejectWithdraw)
}

func (a *app) forceRemove(w http.ResponseWriter, r *http.Request) {
	reason := r.FormValue("reason")
	a.registrationAction(w, r, "Équipe retirée", func(ctx context.Context, actor users.Actor, id uuid.UUID) (*bracket.TournamentTeam, error) {
		return a.registrations.ForceRemove(ctx, actor, id, reason)
	})
}

func (a *app) reportResult(w http.ResponseWriter, r *http.Request) {
	id, ok := a.urlID(w, r)
	if !ok {
		return
	}
	scoreA, errA := strconv.Atoi(strings.TrimSpace(r.FormValue("score_a")))
	scoreB, errB := strconv.Atoi(strings.TrimSpace(r.FormValue("score_b")))
	if errA != nil || errB != nil {
		a.done(w, r, apperr.NewValidationFailed("Les scores doivent être des entiers"), "", "")
		return
	}
	status, err := bracket.ParseMatchStatus(r.FormValue("status"))
	if err != nil {
		a.done(w, r, err, "", "")
		return
	}

	match, err := a.matches.ReportResult(r.Context(), actorFrom(r), id, scoreA, scoreB, status)
	target := ""
	if err == nil {
		target = tournamentURL(match.TournamentID)
	}
	a.done(w, r, err, "Résultat enregistré", target)
}

func (a *app) teamsPage(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	mine, err := a.teams.ListForUser(r.Context(), actor.ID)
	if err != nil {
		httputil.InternalServerError(w, a.log, "Failed to get teams", err)
		return
	}
	invites, err := a.teams.ListPendingInvites(r.Context(), actor.ID)
	if err != nil {
		httputil.InternalServerError(w, a.log, "Failed to get invites", err)
		return
	}

	names := make(map[uuid.UUID]string, len(invites))
	for _, inv := range invites {
		tm, err := a.teams.GetTeam(r.Context(), inv.TeamID)
		if err != nil {
			httputil.Error(w, a.log, err)
			return
		}
		names[inv.TeamID] = tm.Name
	}

	a.render(w, r, views.TeamsPage(a.chrome(r), mine, invites, names))
}

func (a *app) createTeam(w http.ResponseWriter, r *http.Request) {
	tm, err := a.teams.CreateTeam(r.Context(), actorFrom(r), r.FormValue("name"), r.FormValue("tag"))
	if err != nil {
		a.done(w, r, err, "", "")
		return
	}
	a.done(w, r, nil, "Équipe créée", "/teams/"+tm.ID.String())
}

func (a *app) teamPage(w http.ResponseWriter, r *http.Request) {
	id, ok := a.urlID(w, r)
	if !ok {
		return
	}
	tm, err := a.teams.GetTeam(r.Context(), id)
	if err != nil {
		httputil.Error(w, a.log, err)
		return
	}
	members, err := a.teams.ListMembers(r.Context(), id)
	if err != nil {
		httputil.InternalServerError(w, a.log, "Failed to get members", err)
		return
	}
	a.render(w, r, views.TeamPage(a.chrome(r), tm, members))
}

func (a *app) invitePlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := a.urlID(w, r)
	if !ok {
		return
	}
	_, err := a.teams.InvitePlayer(r.Context(), actorFrom(r), id, r.FormValue("username"))
	a.done(w, r, err, "Invitation envoyée", "")
}

func (a *app) respondInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := a.urlID(w, r)
	if !ok {
		return
	}
	accept := r.FormValue("accept") == "true"
	invite, err := a.teams.RespondInvite(r.Context(), actorFrom(r), id, accept)
	if err != nil || !accept {
		a.done(w, r, err, "Invitation déclinée", "/teams")
		return
	}
	a.done(w, r, nil, "Bienvenue dans l'équipe", "/teams/"+invite.TeamID.String())
}

func (a *app) notificationsPage(w http.ResponseWriter, r *http.Request) {
	list, err := a.notifications.ListForUser(r.Context(), actorFrom(r).ID)
	if err != nil {
		httputil.InternalServerError(w, a.log, "Failed to get notifications", err)
		return
	}
	a.render(w, r, views.NotificationsPage(a.chrome(r), list))
}

func (a *app) markRead(w http.ResponseWriter, r *http.Request) {
	id, ok := a.urlID(w, r)
	if !ok {
		return
	}
	err := a.notifications.MarkRead(r.Context(), actorFrom(r).ID, id)
	a.done(w, r, err, "", "/notifications")
}

func (a *app) markAllRead(w http.ResponseWriter, r *http.Request) {
	err := a.notifications.MarkAllRead(r.Context(), actorFrom(r).ID)
	a.done(w, r, err, "", "/notifications")
}

func (a *app) overlayTournament(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.JSONError(w, a.log, apperr.NewValidationFailed("Identifiant invalide"))
		return
	}
	overlay, err := a.overlays.GetOverlay(r.Context(), id, r.Host)
	a.writeOverlay(w, overlay, err)
}

func (a *app) overlayActive(w http.ResponseWriter, r *http.Request) {
	overlay, err := a.overlays.GetActiveOverlay(r.Context(), r.Host)
	a.writeOverlay(w, overlay, err)
}

func (a *app) writeOverlay(w http.ResponseWriter, overlay *service.Overlay, err error) {
	if err != nil {
		httputil.JSONError(w, a.log, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	if err := httputil.WriteJSON(w, http.StatusOK, overlay); err != nil {
		a.log.Warnw("failed to write overlay", "error", err)
	}
}
