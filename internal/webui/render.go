package webui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smartapp/smartapp/internal/common/httpx"
	"github.com/smartapp/smartapp/internal/views"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	tmplLogin       = "login"
	tmplRegister    = "register"
	tmplDashboard   = "dashboard"
	tmplAadhaar     = "aadhaar"
	tmplStudents    = "students"
	tmplStudentForm = "studentform"
	tmplBackground  = "background"

	flashCookie = "smartapp_flash"
)

var pageNames = []string{
	tmplLogin, tmplRegister, tmplDashboard, tmplAadhaar,
	tmplStudents, tmplStudentForm, tmplBackground,
}

var funcs = template.FuncMap{
	"editPath": views.EditStudentPath,
}

// parseTemplates builds one template set per page, each sharing the layout.
func parseTemplates() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// refresh is a delayed client-side navigation.
type refresh struct {
	After time.Duration
	URL   string
}

// Content is the value of the refresh meta tag.
func (r refresh) Content() string {
	return fmt.Sprintf("%g;url=%s", r.After.Seconds(), r.URL)
}

type page struct {
	Title      string
	Path       string
	ShowNavbar bool
	NavItems   []views.NavItem
	Message    views.Message
	Refresh    *refresh
	Data       any
}

func newPage(r *http.Request, title string, data any) *page {
	return &page{
		Title:      title,
		Path:       r.URL.Path,
		ShowNavbar: views.ShowNavbar(r.URL.Path),
		NavItems:   views.NavItems(),
		Data:       data,
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, status int, p *page) {
	t, ok := s.templates[name]
	if !ok {
		httpx.ErrApplicationError("unknown page " + name).Send(w, r)
		return
	}
	if p.Message.Text == "" {
		p.Message = takeFlash(w, r)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("page", name).Msg("error rendering page")
		httpx.ErrApplicationError().Send(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// finish renders the page for an outcome. An immediate redirect carries the
// message to the next page in a flash cookie; a delayed one shows the
// message here and navigates after the delay.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, name string, p *page, out views.Outcome) {
	p.Message = out.Message
	if out.Redirect == nil {
		status := http.StatusOK
		if out.Message.IsError() {
			status = http.StatusUnprocessableEntity
		}
		s.render(w, r, name, status, p)
		return
	}
	if out.Redirect.After <= 0 {
		setFlash(w, out.Message)
		http.Redirect(w, r, out.Redirect.Path, http.StatusSeeOther)
		return
	}
	p.Refresh = &refresh{After: out.Redirect.After, URL: out.Redirect.Path}
	s.render(w, r, name, http.StatusOK, p)
}

func setFlash(w http.ResponseWriter, m views.Message) {
	if m.Text == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(string(m.Kind) + "|" + m.Text),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func takeFlash(w http.ResponseWriter, r *http.Request) views.Message {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return views.Message{}
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})
	v, err := url.QueryUnescape(c.Value)
	if err != nil {
		return views.Message{}
	}
	kind, text, ok := strings.Cut(v, "|")
	if !ok {
		return views.Message{}
	}
	return views.Message{Kind: views.MessageKind(kind), Text: text}
}
