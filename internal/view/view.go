// Package view renders the server-side HTML pages.
//
// Every page is parsed together with base.html: base.html lays out the
// document and calls {{template "content" .}}, and the page file defines
// "content". Each page gets its own template set so the "content"
// definitions never collide.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/sakif/wetube/internal/model"
	"github.com/sakif/wetube/internal/routes"
	"github.com/sakif/wetube/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	Home           = "home"
	Join           = "join"
	Login          = "login"
	UserDetail     = "userDetail"
	EditProfile    = "editProfile"
	ChangePassword = "changePassword"
)

var pages = []string{Home, Join, Login, UserDetail, EditProfile, ChangePassword}

// Page is the data every template receives.
type Page struct {
	Title   string
	User    *model.User // logged-in user, nil when anonymous
	Notices []session.Notice
	Data    any
}

// Renderer writes a named page with the given status.
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, page Page) error
}

// Templates is the html/template Renderer.
type Templates struct {
	sets   map[string]*template.Template
	logger *slog.Logger
}

var _ Renderer = (*Templates)(nil)

var funcs = template.FuncMap{
	"userURL": routes.UserDetail,
	"route": func(name string) (string, error) {
		p, ok := routeTable[name]
		if !ok {
			return "", fmt.Errorf("unknown route %q", name)
		}
		return p, nil
	},
}

var routeTable = map[string]string{
	"home":           routes.Home,
	"join":           routes.Join,
	"login":          routes.Login,
	"logout":         routes.Logout,
	"me":             routes.Me,
	"editProfile":    routes.EditProfile,
	"changePassword": routes.ChangePassword,
	"github":         routes.GitHub,
	"facebook":       routes.Facebook,
}

// New parses the embedded templates.
func New(logger *slog.Logger) (*Templates, error) {
	sets := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/base.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("view: parsing %s: %w", name, err)
		}
		sets[name] = t
	}
	return &Templates{sets: sets, logger: logger}, nil
}

// Render executes the page into a buffer first, so a template error still
// produces a clean 500 instead of a half-written page.
func (t *Templates) Render(w http.ResponseWriter, status int, name string, page Page) error {
	set, ok := t.sets[name]
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return fmt.Errorf("view: unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, "base", page); err != nil {
		t.logger.Error("rendering page", slog.String("page", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return fmt.Errorf("view: rendering %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
