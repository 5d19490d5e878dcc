// Package handler contains the HTTP handlers. They parse requests, call the
// service layer and answer with a rendered page or a redirect.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/wetube/internal/auth"
	"github.com/sakif/wetube/internal/routes"
	"github.com/sakif/wetube/internal/session"
	"github.com/sakif/wetube/internal/view"
)

// pages is what every page-rendering handler shares.
type pages struct {
	sessions *session.Manager
	views    view.Renderer
	logger   *slog.Logger
}

// render shows a page with the notices queued so far, including any queued
// earlier in this same request.
func (p pages) render(w http.ResponseWriter, r *http.Request, sc auth.SessionContext, status int, name, title string, data any) {
	page := view.Page{
		Title:   title,
		User:    sc.User,
		Notices: p.sessions.PopNotices(r.Context()),
		Data:    data,
	}
	if err := p.views.Render(w, status, name, page); err != nil {
		p.logger.Error("render failed", slog.String("page", name), slog.Any("error", err))
	}
}

func (p pages) flash(ctx context.Context, level session.Level, message string) {
	p.sessions.Flash(ctx, level, message)
}

func redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusFound)
}

func goHome(w http.ResponseWriter, r *http.Request) {
	redirect(w, r, routes.Home)
}
