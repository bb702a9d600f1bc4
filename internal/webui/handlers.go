package webui

import (
	"encoding/base64"
	"errors"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/smartapp/smartapp/internal/common/httpx"
	"github.com/smartapp/smartapp/internal/imagebg"
	"github.com/smartapp/smartapp/internal/views"
	"github.com/smartapp/smartapp/pkg/api"
)

type loginData struct {
	Email    string
	WakingUp bool
}

func (s *Server) getLogin(w http.ResponseWriter, r *http.Request) {
	views.NewLogin(s.deps.Backend, s.deps.Session).Mount(r.Context())
	s.render(w, r, tmplLogin, http.StatusOK, newPage(r, "Login", &loginData{}))
}

func (s *Server) postLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.ErrInvalidRequest().Send(w, r)
		return
	}
	v := views.NewLogin(s.deps.Backend, s.deps.Session)
	out, err := v.Submit(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		httpx.SendError(w, r, err)
		return
	}
	p := newPage(r, "Login", &loginData{Email: v.Email(), WakingUp: v.WakingUp() && out.Message.IsError()})
	s.finish(w, r, tmplLogin, p, out)
}

type registerData struct {
	Email string
}

func (s *Server) getRegister(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, tmplRegister, http.StatusOK, newPage(r, "Register", &registerData{}))
}

func (s *Server) postRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.ErrInvalidRequest().Send(w, r)
		return
	}
	v := views.NewRegister(s.deps.Backend)
	out, err := v.Submit(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"), r.PostFormValue("confirm"))
	if err != nil {
		httpx.SendError(w, r, err)
		return
	}
	s.finish(w, r, tmplRegister, newPage(r, "Register", &registerData{Email: v.Email()}), out)
}

type dashboardData struct {
	Cards []views.Card
}

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, tmplDashboard, http.StatusOK, newPage(r, "Dashboard", &dashboardData{Cards: views.DashboardCards()}))
}

type aadhaarData struct {
	Rows []views.Row
}

func (s *Server) getAadhaar(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, tmplAadhaar, http.StatusOK, newPage(r, "Aadhaar Extraction", &aadhaarData{}))
}

func (s *Server) postAadhaar(w http.ResponseWriter, r *http.Request) {
	v := views.NewAadhaar(s.deps.Backend)
	up, err := httpx.ReadUpload(r, "file", s.uploadLimit)
	if err != nil && !errors.Is(err, httpx.ErrNoUpload) {
		httpx.SendError(w, r, err)
		return
	}
	if up != nil {
		v.SelectFile(up.FileName, up.Data)
	}
	out, err := v.Extract(r.Context())
	if err != nil {
		httpx.SendError(w, r, err)
		return
	}
	s.finish(w, r, tmplAadhaar, newPage(r, "Aadhaar Extraction", &aadhaarData{Rows: v.Rows()}), out)
}

type studentsData struct {
	Students []api.Student
	Error    string
}

func (s *Server) getStudents(w http.ResponseWriter, r *http.Request) {
	v := views.NewStudentList(s.deps.Backend)
	// the failure is shown through v.Error
	_ = v.Load(r.Context())
	s.render(w, r, tmplStudents, http.StatusOK, newPage(r, "Students", &studentsData{
		Students: v.Students(),
		Error:    v.Error(),
	}))
}

// postDeleteStudent deletes after the browser confirmed. The list is
// reloaded first so the id is matched against current records.
func (s *Server) postDeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.ErrInvalidRequest().Send(w, r)
		return
	}
	v := views.NewStudentList(s.deps.Backend)
	p := newPage(r, "Students", nil)
	p.Path = views.PathStudents
	if err := v.Load(r.Context()); err != nil {
		p.Data = &studentsData{Error: v.Error()}
		s.render(w, r, tmplStudents, http.StatusBadGateway, p)
		return
	}
	out, err := v.Delete(r.Context(), r.PostFormValue("id"))
	if err != nil {
		httpx.SendError(w, r, err)
		return
	}
	if !out.Message.IsError() {
		setFlash(w, out.Message)
		http.Redirect(w, r, views.PathStudents, http.StatusSeeOther)
		return
	}
	p.Data = &studentsData{Students: v.Students()}
	s.finish(w, r, tmplStudents, p, out)
}

type studentFormData struct {
	Editing bool
	Values  views.StudentValues
}

func (s *Server) studentForm(r *http.Request) (*views.StudentForm, string) {
	v := views.NewStudentForm(s.deps.Backend, chi.URLParam(r, "id"))
	v.SetRedirectDelay(s.redirectDelay)
	if v.Editing() {
		return v, "Edit Student"
	}
	return v, "Add Student"
}

func (s *Server) getStudentForm(w http.ResponseWriter, r *http.Request) {
	v, title := s.studentForm(r)
	status := http.StatusOK
	if err := v.Load(r.Context()); err != nil {
		status = http.StatusBadGateway
		if v.Message().Text == views.MsgStudentNotFound {
			status = http.StatusNotFound
		}
	}
	p := newPage(r, title, &studentFormData{Editing: v.Editing(), Values: v.Values()})
	p.Message = v.Message()
	s.render(w, r, tmplStudentForm, status, p)
}

func (s *Server) postStudentForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.ErrInvalidRequest().Send(w, r)
		return
	}
	v, title := s.studentForm(r)
	out, err := v.Submit(r.Context(), views.StudentValues{
		Name:   r.PostFormValue("name"),
		Age:    r.PostFormValue("age"),
		Course: r.PostFormValue("course"),
	})
	if err != nil {
		httpx.SendError(w, r, err)
		return
	}
	s.finish(w, r, tmplStudentForm, newPage(r, title, &studentFormData{Editing: v.Editing(), Values: v.Values()}), out)
}

type backgroundData struct {
	Mode     string
	Color    string
	Image    template.URL
	Download string
}

func (s *Server) getBackground(w http.ResponseWriter, r *http.Request) {
	v := views.NewBackground(s.deps.Images)
	s.render(w, r, tmplBackground, http.StatusOK, newPage(r, "Change Background", &backgroundData{
		Mode:  string(v.Mode()),
		Color: v.Color(),
	}))
}

func (s *Server) postBackground(w http.ResponseWriter, r *http.Request) {
	v := views.NewBackground(s.deps.Images)
	up, err := httpx.ReadUpload(r, "image", s.uploadLimit)
	if err != nil && !errors.Is(err, httpx.ErrNoUpload) {
		httpx.SendError(w, r, err)
		return
	}
	mode, err := imagebg.ParseMode(r.FormValue("mode"))
	if err != nil {
		httpx.ErrInvalidRequest(err.Error()).Send(w, r)
		return
	}
	v.SetMode(mode)
	v.SetColor(r.FormValue("color"))

	data := &backgroundData{Mode: string(v.Mode()), Color: v.Color()}
	p := newPage(r, "Change Background", data)

	if up != nil {
		if msg := v.SelectFile(up.FileName, up.Data); msg.Text != "" {
			p.Message = msg
			s.render(w, r, tmplBackground, http.StatusUnprocessableEntity, p)
			return
		}
	}
	out, err := v.Process(r.Context())
	if err != nil {
		httpx.SendError(w, r, err)
		return
	}
	if res := v.Result(); res != nil {
		name := processedName(v.FileName())
		if r.FormValue("download") != "" {
			httpx.SendBlob(w, res.ContentType, name, res.Data)
			return
		}
		data.Image = template.URL("data:" + res.ContentType + ";base64," + base64.StdEncoding.EncodeToString(res.Data))
		data.Download = name
	}
	log.Ctx(r.Context()).Debug().Str("mode", data.Mode).Bool("result", data.Image != "").Msg("background processed")
	s.finish(w, r, tmplBackground, p, out)
}

func processedName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." {
		base = "image"
	}
	return base + "-processed.png"
}

func (s *Server) postLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Session.Clear(); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("error clearing session")
	}
	http.Redirect(w, r, views.PathLogin, http.StatusSeeOther)
}
