package views

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/smartapp/smartapp/internal/common/httpclient"
	"github.com/smartapp/smartapp/pkg/api"
)

const (
	MsgRegisterMissing  = "Please enter your email and password."
	MsgPasswordMismatch = "Passwords do not match"
	MsgRegisterSuccess  = "Registration successful! Please login."
	MsgRegisterFailed   = "Registration failed. Try again."
)

// Register is the account creation page.
type Register struct {
	FormState
	backend Backend
	email   string
}

// NewRegister creates the registration page.
func NewRegister(backend Backend) *Register {
	return &Register{backend: backend}
}

// Email returns the email last submitted.
func (v *Register) Email() string { return v.email }

// Submit creates the account. Passwords must match before anything is sent.
func (v *Register) Submit(ctx context.Context, email, password, confirm string) (Outcome, error) {
	v.email = strings.TrimSpace(email)
	creds := api.Credentials{Email: v.email, Password: password}
	if err := creds.Validate(); err != nil {
		return Outcome{Message: v.reject(MsgRegisterMissing)}, nil
	}
	if password != confirm {
		return Outcome{Message: v.reject(MsgPasswordMismatch)}, nil
	}
	if !v.Begin() {
		return Outcome{}, ErrBusy
	}

	if _, err := v.backend.Register(ctx, creds); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("registration failed")
		msg := MsgRegisterFailed
		var he *httpclient.HTTPError
		if errors.As(err, &he) && he.Message != "" {
			msg = he.Message
		}
		return Outcome{Message: v.fail(msg)}, nil
	}
	return Outcome{
		Message:  v.succeed(MsgRegisterSuccess),
		Redirect: &Redirect{Path: PathLogin},
	}, nil
}
