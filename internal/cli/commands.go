package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/smartapp/smartapp/internal/common/logtrace"
)

var (
	// Global flags
	jsonOutput bool
	configFile string
	logLevel   string
)

var ErrAlreadyHandled = errors.New("already handled")

var okLabel = color.New(color.FgGreen)
var errorLabel = color.New(color.FgRed)
var infoLabel = color.New(color.FgYellow)

// Version is set at build time.
var Version = "v0.1.0"

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smartapp [command] [flags]",
		Short: "SmartApp CLI - manage students and extract Aadhaar details",
		Long: `SmartApp is the client of the student-management backend.
It logs in, manages student records, extracts Aadhaar details from card
images and removes or replaces photo backgrounds. "smartapp serve" starts
the same pages as a local web application.

Examples:
  # Point the CLI at a backend
  smartapp config --server https://api.example.com

  # Log in and list students
  smartapp login --email me@example.com --password secret
  smartapp students list

  # Replace a photo's background
  smartapp background change photo.png -o out.png --color "#0000ff"`,
		PersistentPreRunE: preRunHandlePersistents,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "", "", "Path to configuration file to override default")
	cmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newRegisterCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newWakeCmd())
	cmd.AddCommand(newAadhaarCmd())
	cmd.AddCommand(newStudentsCmd())
	cmd.AddCommand(newBackgroundCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	err := rootCmd.Execute()
	if err != nil {
		if errors.Is(err, ErrAlreadyHandled) {
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(os.Stdout, map[string]string{"error": err.Error()})
		} else {
			errorLabel.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// preRunHandlePersistents sets up logging and loads the configuration for
// every command except version.
func preRunHandlePersistents(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	if configFile == "" {
		var err error
		if configFile, err = defaultConfigPath(); err != nil {
			return err
		}
	}
	a, err := loadApp(configFile)
	if err != nil {
		return err
	}
	level := a.cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if cmd.Name() == "serve" {
		logtrace.InitLogger(level)
	} else {
		logtrace.InitConsoleLogger(level)
	}
	current = a
	return nil
}

// newVersionCmd creates and returns a new version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of smartapp",
		Run: func(cmd *cobra.Command, args []string) {
			configPath, err := defaultConfigPath()
			if err != nil {
				configPath = "unknown"
			}
			if jsonOutput {
				printJSON(cmd.OutOrStdout(), map[string]string{
					"version":     Version,
					"config_file": configPath,
				})
				return
			}
			cmd.Printf("smartapp CLI %s\n", Version)
			cmd.Printf("Config file: %s\n", configPath)
		},
	}
}

// printJSON prints data as indented JSON.
func printJSON(w io.Writer, data any) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintln(w, string(jsonData))
}

// printStatus prints a success line, or {"status":"success","message":...}
// in JSON mode.
func printStatus(cmd *cobra.Command, msg string, extra map[string]any) {
	if jsonOutput {
		kv := map[string]any{"status": "success", "message": msg}
		for k, v := range extra {
			kv[k] = v
		}
		printJSON(cmd.OutOrStdout(), kv)
		return
	}
	okLabel.Fprintf(cmd.OutOrStdout(), "✓ %s\n", msg)
}
