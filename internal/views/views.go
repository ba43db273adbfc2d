// Package views renders the portal's presentational fragments. Templates carry
// no logic beyond showing what the services decided.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
)

type ToastData struct {
	Kind    ToastKind
	Message string
}

// PostCard renders one post. Confirming swaps the delete button for the
// confirmation form, the only form that posts confirm=true.
type PostCard struct {
	Post       services.PostView
	Editing    bool
	Confirming bool
}

type ProfileDialog struct {
	Form       services.ProfileForm
	Guidelines *backend.CommunityGuidelines
	Error      string
	Languages  []backend.Language
	MinAge     int
	MaxAge     int
}

// NewProfileDialog fills the fixed parts of the setup dialog.
func NewProfileDialog(form services.ProfileForm, guidelines *backend.CommunityGuidelines, errMsg string) ProfileDialog {
	if form.Language == "" {
		form.Language = string(backend.LanguageEnglish)
	}
	return ProfileDialog{
		Form:       form,
		Guidelines: guidelines,
		Error:      errMsg,
		Languages:  backend.Languages,
		MinAge:     services.MinAge,
		MaxAge:     services.MaxAge,
	}
}

type Page struct {
	Title         string
	Locale        string
	Crisis        string
	Session       services.Session
	Unread        uint64
	Promoted      bool
	ProfileDialog *ProfileDialog
	Toasts        []ToastData
	Posts         []services.PostView
}

type Renderer struct {
	t *template.Template
}

var funcs = template.FuncMap{
	"card": func(p services.PostView) PostCard { return PostCard{Post: p} },
	"isoTime": func(t backend.Time) string {
		return t.Std().Format(time.RFC3339)
	},
	"shortTime": func(t backend.Time) string {
		return t.Std().Format("Jan 2, 2006 15:04")
	},
	"title": func(s string) string {
		r, n := utf8.DecodeRuneInString(s)
		if n == 0 {
			return s
		}
		return string(unicode.ToUpper(r)) + s[n:]
	},
}

func New() (*Renderer, error) {
	t, err := template.New("views").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{t: t}, nil
}

// Must is New for package-level wiring; the templates are embedded, so a
// failure is a build defect.
func Must() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// render executes into a buffer first so a failing template never leaves a
// half-written response.
func (r *Renderer) render(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func (r *Renderer) CommunityPostCard(w io.Writer, card PostCard) error {
	return r.render(w, "community_post_card", card)
}

func (r *Renderer) CommunityFeed(w io.Writer, posts []services.PostView) error {
	return r.render(w, "community_feed", struct{ Posts []services.PostView }{posts})
}

func (r *Renderer) AdminPromotionBanner(w io.Writer) error {
	return r.render(w, "admin_promotion_banner", nil)
}

func (r *Renderer) ProfileSetupDialog(w io.Writer, d ProfileDialog) error {
	return r.render(w, "profile_setup_dialog", d)
}

func (r *Renderer) Toast(w io.Writer, t ToastData) error {
	if strings.TrimSpace(t.Message) == "" {
		return nil
	}
	if t.Kind == "" {
		t.Kind = ToastInfo
	}
	return r.render(w, "toast", t)
}

func (r *Renderer) Page(w io.Writer, p Page) error {
	if p.Locale == "" {
		p.Locale = "en"
	}
	return r.render(w, "page", p)
}
