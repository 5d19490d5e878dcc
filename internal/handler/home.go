package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/wetube/internal/auth"
	"github.com/sakif/wetube/internal/model"
	"github.com/sakif/wetube/internal/session"
	"github.com/sakif/wetube/internal/view"
)

const homeVideoLimit = 20

// VideoLister lists videos for the home page.
type VideoLister interface {
	ListRecentVideos(ctx context.Context, limit int) ([]model.Video, error)
}

// HomeHandler serves the landing page most redirects end on.
type HomeHandler struct {
	videos VideoLister
	pages
}

func NewHomeHandler(videos VideoLister, sessions *session.Manager, views view.Renderer, logger *slog.Logger) *HomeHandler {
	return &HomeHandler{
		videos: videos,
		pages:  pages{sessions: sessions, views: views, logger: logger},
	}
}

// Home lists the newest videos. A store failure shows an empty list.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request, sc auth.SessionContext) {
	videos, err := h.videos.ListRecentVideos(r.Context(), homeVideoLimit)
	if err != nil {
		h.logger.Error("listing videos", slog.Any("error", err))
		videos = []model.Video{}
	}
	h.render(w, r, sc, http.StatusOK, view.Home, "Home", videos)
}
