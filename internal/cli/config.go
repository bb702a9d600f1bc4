package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartapp/smartapp/internal/config"
)

// newConfigCmd creates the config command
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the CLI configuration",
		Long: `Show or change the CLI configuration. Without flags the current
configuration is printed. Values from .env and the environment are not
written back to the file.

Examples:
  smartapp config --server https://api.example.com
  smartapp config --image-token $TOKEN
  smartapp config -j`,
		RunE: runConfig,
	}
	cmd.Flags().String("server", "", "Backend base URL")
	cmd.Flags().String("image-url", "", "Background image service base URL")
	cmd.Flags().String("image-token", "", "Background image service token")
	cmd.Flags().String("level", "", "Default log level")
	return cmd
}

func runConfig(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	// start from the file alone so environment overrides are not persisted
	cfg, err := config.LoadOrDefault(a.cfgPath)
	if err != nil {
		return err
	}

	changed := false
	if cmd.Flags().Changed("server") {
		v, _ := cmd.Flags().GetString("server")
		cfg.ServerURL = config.MorphServer(v)
		if err := cfg.ValidateConfig(); err != nil {
			return err
		}
		changed = true
	}
	if cmd.Flags().Changed("image-url") {
		cfg.ImageService.URL, _ = cmd.Flags().GetString("image-url")
		changed = true
	}
	if cmd.Flags().Changed("image-token") {
		cfg.ImageService.Token, _ = cmd.Flags().GetString("image-token")
		changed = true
	}
	if cmd.Flags().Changed("level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("level")
		changed = true
	}

	if changed {
		if err := cfg.WriteConfig(a.cfgPath); err != nil {
			return err
		}
		printStatus(cmd, "Configuration saved to "+a.cfgPath, nil)
		return nil
	}

	effective := a.cfg
	view := map[string]any{
		"config_file":    a.cfgPath,
		"server_url":     effective.ServerURL,
		"logged_in":      effective.CurrentToken != "",
		"email":          effective.Email,
		"image_url":      effective.ImageService.URL,
		"image_token":    redact(effective.ImageService.Token),
		"log_level":      effective.LogLevel,
		"format_version": effective.Version,
	}
	if jsonOutput {
		printJSON(cmd.OutOrStdout(), view)
		return nil
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config file:   %s\n", a.cfgPath)
	fmt.Fprintf(out, "Server:        %s\n", effective.ServerURL)
	fmt.Fprintf(out, "Logged in:     %v\n", effective.CurrentToken != "")
	if effective.Email != "" {
		fmt.Fprintf(out, "Email:         %s\n", effective.Email)
	}
	fmt.Fprintf(out, "Image service: %s\n", effective.ImageService.URL)
	fmt.Fprintf(out, "Image token:   %s\n", redact(effective.ImageService.Token))
	return nil
}

// redact hides all but the last four characters of a secret.
func redact(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
