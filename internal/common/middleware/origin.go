package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/smartapp/smartapp/internal/common/httpx"
)

// SameOrigin rejects state-changing requests sent by pages of another origin.
// A request passes when its Origin (or, lacking that, its Referer) names the
// host it was sent to or one of trusted. Requests that carry neither header
// and no Sec-Fetch-Site come from non-browser clients and pass.
func SameOrigin(trusted []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(trusted))
	for _, o := range trusted {
		allowed[strings.TrimSuffix(strings.ToLower(o), "/")] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) || sameOrigin(r, allowed) {
				next.ServeHTTP(w, r)
				return
			}
			log.Ctx(r.Context()).Warn().
				Str("origin", r.Header.Get("Origin")).
				Str("referer", r.Header.Get("Referer")).
				Str("path", r.URL.Path).
				Msg("cross-origin request rejected")
			httpx.ErrForbidden("cross-origin request rejected").Send(w, r)
		})
	}
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func sameOrigin(r *http.Request, allowed map[string]bool) bool {
	switch r.Header.Get("Sec-Fetch-Site") {
	case "same-origin", "none":
		return true
	case "cross-site":
		return false
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		return r.Header.Get("Sec-Fetch-Site") == ""
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return allowed[strings.ToLower(u.Scheme+"://"+u.Host)]
}
