package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smartapp/smartapp/internal/common/httpclient"
	"github.com/smartapp/smartapp/internal/config"
	"github.com/smartapp/smartapp/internal/session"
	"github.com/smartapp/smartapp/internal/views"
)

const wakeTimeout = 90 * time.Second

// newLoginCmd creates and returns a new login command
func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the backend",
		Long: `Log in with email and password. The access token is stored in the
configuration file and sent with every later request until "smartapp logout".

Example:
  smartapp login --email me@example.com --password secret`,
		RunE: runLogin,
	}
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password")
	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	backend, err := a.connect()
	if err != nil {
		return err
	}
	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		email = a.cfg.Email
	}
	password, _ := cmd.Flags().GetString("password")

	v := views.NewLogin(backend, a.session)
	if !jsonOutput {
		v.OnWaking = func() {
			infoLabel.Fprintln(os.Stderr, views.MsgWakingUp)
		}
	}
	out, err := v.Submit(cmd.Context(), email, password)
	if err != nil {
		return err
	}
	if err := outcomeError(out); err != nil {
		return err
	}

	// remember the email for the next login
	cfg, err := config.LoadOrDefault(a.cfgPath)
	if err != nil {
		return err
	}
	cfg.Email = v.Email()
	if err := cfg.WriteConfig(a.cfgPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	printStatus(cmd, out.Message.Text, map[string]any{"email": v.Email()})
	return nil
}

// newRegisterCmd creates the register command
func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account on the backend. The password must be given twice.

Example:
  smartapp register --email me@example.com --password secret --confirm secret`,
		RunE: runRegister,
	}
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password")
	cmd.Flags().String("confirm", "", "Password confirmation")
	return cmd
}

func runRegister(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	backend, err := a.connect()
	if err != nil {
		return err
	}
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	confirm, _ := cmd.Flags().GetString("confirm")

	out, err := views.NewRegister(backend).Submit(cmd.Context(), email, password, confirm)
	if err != nil {
		return err
	}
	if err := outcomeError(out); err != nil {
		return err
	}
	printStatus(cmd, out.Message.Text, nil)
	return nil
}

// newLogoutCmd creates the logout command
func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			if _, err := a.connect(); err != nil {
				return err
			}
			if err := a.session.Clear(); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			printStatus(cmd, "Logged out", nil)
			return nil
		},
	}
}

// newWakeCmd creates the wake command
func newWakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wake",
		Short: "Ping the backend so a sleeping host starts up",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			backend, err := a.connect()
			if err != nil {
				return err
			}
			if !jsonOutput {
				infoLabel.Fprintln(os.Stderr, views.MsgWakingUp)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), wakeTimeout)
			defer cancel()
			start := time.Now()
			if err := backend.WakeServer(ctx); err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return fmt.Errorf("backend did not answer within %s", wakeTimeout)
				}
				// any answer, even an error status, means the host is up
				if httpclient.StatusCode(err) == 0 {
					return err
				}
			}
			printStatus(cmd, "Server is awake", map[string]any{"elapsed_ms": time.Since(start).Milliseconds()})
			return nil
		},
	}
}

// newStatusCmd creates the status command
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the backend and the login state",
		Long: `Show the configured backend, the remembered email and whether a token
is held. JWT access tokens also report their subject and expiry; the
signature is not checked, the backend does that.`,
		RunE: runStatus,
	}
}

type statusInfo struct {
	Server    string `json:"server"`
	Email     string `json:"email,omitempty"`
	LoggedIn  bool   `json:"logged_in"`
	Subject   string `json:"subject,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Expired   bool   `json:"expired"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	if _, err := a.connect(); err != nil {
		return err
	}
	info := statusInfo{
		Server:   a.cfg.ServerURL,
		Email:    a.cfg.Email,
		LoggedIn: a.session.Token() != "",
	}
	claims, err := a.session.Claims()
	switch {
	case err == nil:
		info.Subject = claims.Subject
		if !claims.ExpiresAt.IsZero() {
			info.ExpiresAt = claims.ExpiresAt.UTC().Format(time.RFC3339)
		}
		info.Expired = claims.Expired(time.Now())
	case errors.Is(err, session.ErrOpaqueToken):
		log.Debug().Err(err).Msg("token carries no claims")
	}

	if jsonOutput {
		printJSON(cmd.OutOrStdout(), info)
		return nil
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Server:    %s\n", info.Server)
	if info.Email != "" {
		fmt.Fprintf(w, "Email:     %s\n", info.Email)
	}
	switch {
	case !info.LoggedIn:
		infoLabel.Fprintln(w, "Not logged in")
	case info.Expired:
		errorLabel.Fprintf(w, "Token expired at %s; run \"smartapp login\"\n", info.ExpiresAt)
	default:
		okLabel.Fprintln(w, "✓ Logged in")
	}
	if info.Subject != "" {
		fmt.Fprintf(w, "Subject:   %s\n", info.Subject)
	}
	if info.ExpiresAt != "" && !info.Expired {
		fmt.Fprintf(w, "Expires:   %s\n", info.ExpiresAt)
	}
	return nil
}
