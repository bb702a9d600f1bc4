package views

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smartapp/smartapp/internal/common/httpclient"
	"github.com/smartapp/smartapp/pkg/api"
)

const (
	MsgLoginMissing     = "Please enter your email and password."
	MsgLoginSuccess     = "Login Successful!"
	MsgIncorrectPass    = "Incorrect password. Please enter the valid password."
	MsgAccountNotFound  = "Account not found. Please register."
	MsgLoginFailedFmt   = "Login failed: "
	MsgUnknownError     = "Unknown error"
	MsgWakingUp         = "Waking up server..."
	DefaultWakeHint     = 2 * time.Second
	wakeRequestDeadline = 90 * time.Second
)

// Login is the entry page.
type Login struct {
	FormState

	backend  Backend
	session  TokenStore
	wakeHint time.Duration

	// OnWaking, when set, is called once if a login takes longer than the
	// wake hint delay.
	OnWaking func()

	mu       sync.Mutex
	email    string
	wakingUp bool
}

// NewLogin creates the login page.
func NewLogin(backend Backend, session TokenStore) *Login {
	return &Login{backend: backend, session: session, wakeHint: DefaultWakeHint}
}

// SetWakeHint changes how long a login may take before the wake hint shows.
func (v *Login) SetWakeHint(d time.Duration) { v.wakeHint = d }

// Mount pings the backend so a cold host starts booting. The ping outlives
// ctx's cancellation and its failure is ignored.
func (v *Login) Mount(ctx context.Context) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), wakeRequestDeadline)
	go func() {
		defer cancel()
		if err := v.backend.WakeServer(wctx); err != nil {
			log.Ctx(ctx).Debug().Err(err).Msg("wake request failed")
		}
	}()
}

// Email returns the email last submitted, kept for correction after errors.
func (v *Login) Email() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.email
}

// WakingUp reports whether the current or last login exceeded the wake hint.
func (v *Login) WakingUp() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.wakingUp
}

// Submit logs in and stores the token on success.
func (v *Login) Submit(ctx context.Context, email, password string) (Outcome, error) {
	email = strings.TrimSpace(email)
	v.mu.Lock()
	v.email = email
	v.wakingUp = false
	v.mu.Unlock()

	creds := api.Credentials{Email: email, Password: password}
	if err := creds.Validate(); err != nil {
		return Outcome{Message: v.reject(MsgLoginMissing)}, nil
	}
	if !v.Begin() {
		return Outcome{}, ErrBusy
	}

	timer := time.AfterFunc(v.wakeHint, func() {
		v.mu.Lock()
		v.wakingUp = true
		v.mu.Unlock()
		if v.OnWaking != nil {
			v.OnWaking()
		}
	})
	rsp, err := v.backend.Login(ctx, creds)
	timer.Stop()

	if err != nil {
		log.Ctx(ctx).Error().Err(err).Int("status", httpclient.StatusCode(err)).Msg("login failed")
		return Outcome{Message: v.fail(LoginErrorMessage(err))}, nil
	}
	if err := v.session.Set(rsp.AccessToken); err != nil {
		return Outcome{Message: v.fail(MsgLoginFailedFmt + err.Error())}, nil
	}
	v.mu.Lock()
	v.wakingUp = false
	v.mu.Unlock()
	return Outcome{
		Message:  v.succeed(MsgLoginSuccess),
		Redirect: &Redirect{Path: PathDashboard},
	}, nil
}

// LoginErrorMessage maps a login failure to what the user sees. Rejected
// credentials and unknown accounts are never reported the same way.
func LoginErrorMessage(err error) string {
	switch httpclient.StatusCode(err) {
	case http.StatusBadRequest, http.StatusUnauthorized:
		return MsgIncorrectPass
	case http.StatusNotFound:
		return MsgAccountNotFound
	}
	detail := err.Error()
	if detail == "" {
		detail = MsgUnknownError
	}
	return MsgLoginFailedFmt + detail
}
