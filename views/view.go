package views

import (
	"context"
	"fmt"
	"io"
	"net/http"

	users "github.com/AdamBeresnev/esport-cup/internal/user"
	"github.com/a-h/templ"
)

func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

// Chrome is the per-request part of the layout.
type Chrome struct {
	User   *users.User
	Flash  string
	Unread int
}

// html writes markup and keeps the first write error.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) rawf(format string, args ...any) {
	if h.err == nil {
		_, h.err = fmt.Fprintf(h.w, format, args...)
	}
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

// page wraps body in the shared layout.
func page(title string, chrome Chrome, body func(ctx context.Context, h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="fr"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(title)
		h.raw(` · E-sport Cup</title><link rel="stylesheet" href="/static/style.css"></head><body>`)

		h.raw(`<header><nav><a href="/">Tournois</a>`)
		if chrome.User != nil {
			h.raw(` <a href="/teams">Équipes</a>`)
			h.rawf(` <a href="/notifications">Notifications (%d)</a>`, chrome.Unread)
			h.raw(` <span class="user">`)
			h.text(chrome.User.Username)
			if chrome.User.IsStaff() {
				h.raw(` <em>staff</em>`)
			}
			h.raw(`</span><form method="post" action="/logout" class="inline"><button>Déconnexion</button></form>`)
		} else {
			h.raw(` <a href="/login">Connexion</a>`)
		}
		h.raw(`</nav></header><main>`)

		if chrome.Flash != "" {
			h.raw(`<p class="flash">`)
			h.text(chrome.Flash)
			h.raw(`</p>`)
		}

		body(ctx, h)
		h.raw(`</main></body></html>`)
		return h.err
	})
}
