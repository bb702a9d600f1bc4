package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smartapp/smartapp/internal/config"
	"github.com/smartapp/smartapp/internal/webui"
)

const shutdownGrace = 5 * time.Second

// newServeCmd creates the serve command
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web application on a local port",
		Long: `Start the SmartApp pages as a local web application. Logging in
through the browser stores the token in the same configuration file the
CLI uses. The image service token stays on this machine.

Examples:
  smartapp serve
  smartapp serve --listen 127.0.0.1:8080
  smartapp serve --shell-config smartapp.toml`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("shell-config", "", "TOML file with web shell settings")
	cmd.Flags().String("listen", "", "Address to listen on (overrides the shell config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	shellFile, _ := cmd.Flags().GetString("shell-config")
	shellCfg, err := config.LoadShellConfig(shellFile)
	if err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		shellCfg.Listen = listen
	}

	backend, err := a.connect()
	if err != nil {
		return err
	}
	s, err := webui.CreateNewServer(shellCfg, webui.Deps{
		Backend: backend,
		Session: a.session,
		Images:  a.images(),
		Version: Version,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	s.MountHandlers()

	srv := &http.Server{
		Addr:              shellCfg.Listen,
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("listen", shellCfg.Listen).Str("backend", a.cfg.ServerURL).Msg("web shell started")
		serverErrors <- srv.ListenAndServe()
	}()
	if !jsonOutput {
		okLabel.Fprintf(cmd.OutOrStdout(), "✓ SmartApp running at http://%s\n", shellCfg.Listen)
	}

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("could not stop server gracefully")
		if err := srv.Close(); err != nil {
			log.Error().Err(err).Msg("could not stop server")
		}
	}
	log.Info().Msg("server stopped")
	return nil
}
