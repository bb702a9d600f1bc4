package webui

import (
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/smartapp/smartapp/internal/common/httpx"
	"github.com/smartapp/smartapp/internal/views"
)

// inflight tracks the form submissions the shell is running, one per form
// path. It outlives the per-request views.
type inflight struct {
	mu    sync.Mutex
	forms map[string]*views.FormState
}

func newInflight() *inflight {
	return &inflight{forms: make(map[string]*views.FormState)}
}

// begin moves the form at key to submitting. It returns false when a
// submission of that form is already running.
func (f *inflight) begin(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.forms[key]
	if !ok {
		st = &views.FormState{}
		f.forms[key] = st
	}
	return st.Begin()
}

func (f *inflight) end(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.forms, key)
}

// oneAtATime refuses a POST to a form while an earlier POST to the same form
// is still being handled.
func (s *Server) oneAtATime(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if !s.inflight.begin(key) {
			log.Ctx(r.Context()).Info().Str("form", key).Msg("submission already in progress")
			httpx.ErrConflict(views.MsgBusy).Send(w, r)
			return
		}
		defer s.inflight.end(key)
		next(w, r)
	}
}
