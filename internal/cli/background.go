package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartapp/smartapp/internal/config"
	"github.com/smartapp/smartapp/internal/imagebg"
	"github.com/smartapp/smartapp/internal/views"
)

// newBackgroundCmd creates the background command group
func newBackgroundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "background",
		Short: "Remove or replace the background of an image",
		Long: `Send an image to the background service and save the result.
The service token is read from the configuration file or from
SMARTAPP_IMAGE_API_TOKEN.

Examples:
  smartapp background remove photo.jpg -o photo-clean.png
  smartapp background change photo.jpg -o photo-blue.png --color "#0000ff"`,
	}
	remove := &cobra.Command{
		Use:   "remove FILE",
		Short: "Remove the background",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackground(cmd, args[0], imagebg.ModeRemove)
		},
	}
	change := &cobra.Command{
		Use:     "change FILE",
		Aliases: []string{"replace"},
		Short:   "Replace the background with a flat color",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackground(cmd, args[0], imagebg.ModeChange)
		},
	}
	change.Flags().String("color", imagebg.DefaultColor, "Background color as #rrggbb")
	for _, c := range []*cobra.Command{remove, change} {
		c.Flags().StringP("output", "o", "", "Output file (default: <name>-processed.png)")
		cmd.AddCommand(c)
	}
	return cmd
}

func runBackground(cmd *cobra.Command, file string, mode imagebg.Mode) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	images := a.images()
	if !images.Configured() {
		return fmt.Errorf("image service token is not configured; run \"smartapp config --image-token <token>\" or set %s", config.EnvImageAPIToken)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	v := views.NewBackground(images)
	if msg := v.SelectFile(filepath.Base(file), data); msg.IsError() {
		return fmt.Errorf("%s: %s", msg.Text, file)
	}
	v.SetMode(mode)
	if mode == imagebg.ModeChange {
		color, _ := cmd.Flags().GetString("color")
		v.SetColor(color)
	}
	out, err := v.Process(cmd.Context())
	if err != nil {
		return err
	}
	if err := outcomeError(out); err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = defaultOutputName(file)
	}
	res := v.Result()
	if err := os.WriteFile(output, res.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	printStatus(cmd, out.Message.Text, map[string]any{
		"output":       output,
		"content_type": res.ContentType,
		"bytes":        len(res.Data),
	})
	if !jsonOutput {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", output)
	}
	return nil
}

func defaultOutputName(file string) string {
	ext := filepath.Ext(file)
	return strings.TrimSuffix(file, ext) + "-processed.png"
}
