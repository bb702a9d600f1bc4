// Package webui is the local web shell. It renders every page server-side
// from the view state machines, keeps the session on the server and proxies
// image processing so no credential reaches the browser.
package webui

import (
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/smartapp/smartapp/internal/common/httpx"
	"github.com/smartapp/smartapp/internal/common/middleware"
	"github.com/smartapp/smartapp/internal/config"
	"github.com/smartapp/smartapp/internal/views"
)

// Session is the token holder the shell logs in and out of.
type Session interface {
	views.TokenStore
	Authenticated() bool
}

// Deps are the services behind the pages.
type Deps struct {
	Backend views.Backend
	Session Session
	Images  views.ImageProcessor
	Version string
}

// Server serves the web shell.
type Server struct {
	Router        *chi.Mux
	cfg           *config.ShellConfig
	deps          Deps
	templates     map[string]*template.Template
	redirectDelay time.Duration
	timeout       time.Duration
	uploadLimit   int64
	inflight      *inflight
}

// CreateNewServer creates the shell. A nil cfg uses the defaults.
func CreateNewServer(cfg *config.ShellConfig, deps Deps) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultShellConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tmpls, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	delay, _ := cfg.GetRedirectDelay()
	timeout, _ := cfg.GetRequestTimeout()
	return &Server{
		Router:        chi.NewRouter(),
		cfg:           cfg,
		deps:          deps,
		templates:     tmpls,
		redirectDelay: delay,
		timeout:       timeout,
		uploadLimit:   cfg.UploadLimitMB << 20,
		inflight:      newInflight(),
	}, nil
}

// MountHandlers installs middleware and routes.
func (s *Server) MountHandlers() {
	s.Router.Use(middleware.RequestLogger)
	s.Router.Use(middleware.PanicHandler)
	if s.cfg.HandleCORS {
		s.Router.Use(s.HandleCORS)
	}
	s.Router.Use(middleware.SameOrigin(s.trustedOrigins()))
	s.Router.Use(middleware.SetTimeout(s.timeout))
	s.Router.Use(middleware.LimitBody(s.uploadLimit + 1<<20))
	s.mountPages(s.Router)
	s.Router.Get("/version", s.getVersion)
	s.Router.Get("/ready", s.getReadiness)
	s.Router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.ErrNotFound().Send(w, r)
	})
	s.Router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.ErrReqMethodNotSupported().Send(w, r)
	})
}

func (s *Server) mountPages(r chi.Router) {
	r.Get(views.PathLogin, s.getLogin)
	r.Post(views.PathLogin, s.oneAtATime(s.postLogin))
	r.Get(views.PathRegister, s.getRegister)
	r.Post(views.PathRegister, s.oneAtATime(s.postRegister))
	r.Get(views.PathDashboard, s.getDashboard)
	r.Get(views.PathAadhaar, s.getAadhaar)
	r.Post(views.PathAadhaar, s.oneAtATime(s.postAadhaar))
	r.Get(views.PathStudents, s.getStudents)
	r.Post(views.PathStudents+"/delete", s.oneAtATime(s.postDeleteStudent))
	r.Get(views.PathAddStudent, s.getStudentForm)
	r.Post(views.PathAddStudent, s.oneAtATime(s.postStudentForm))
	r.Get(views.PathEditStudent+"{id}", s.getStudentForm)
	r.Post(views.PathEditStudent+"{id}", s.oneAtATime(s.postStudentForm))
	r.Get(views.PathBackground, s.getBackground)
	r.Post(views.PathBackground, s.oneAtATime(s.postBackground))
	r.Post(views.PathLogout, s.postLogout)
}

type versionRsp struct {
	Version       string `json:"version"`
	Authenticated bool   `json:"authenticated"`
}

func (s *Server) getVersion(w http.ResponseWriter, r *http.Request) {
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, &versionRsp{
		Version:       s.deps.Version,
		Authenticated: s.deps.Session != nil && s.deps.Session.Authenticated(),
	})
}

func (s *Server) getReadiness(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("readiness check")
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, map[string]string{"status": "ready"})
}

// trustedOrigins are the origins besides the shell's own host that may
// submit its forms.
func (s *Server) trustedOrigins() []string {
	if len(s.cfg.AllowedOrigins) > 0 {
		return s.cfg.AllowedOrigins
	}
	return []string{"http://" + s.cfg.Listen}
}

// HandleCORS applies the configured CORS policy.
func (s *Server) HandleCORS(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   s.trustedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding"},
		ExposedHeaders:   []string{"Location", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})(next)
}
