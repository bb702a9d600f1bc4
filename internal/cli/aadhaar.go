package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/smartapp/smartapp/internal/views"
)

// newAadhaarCmd creates the aadhaar command group
func newAadhaarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aadhaar",
		Short: "Extract details from Aadhaar card images",
	}
	extract := &cobra.Command{
		Use:   "extract FILE",
		Short: "Upload a card image and print the extracted fields",
		Long: `Upload an Aadhaar card image and print the fields the service
extracted, in the order it returned them.

Examples:
  smartapp aadhaar extract card.jpg
  smartapp aadhaar extract card.jpg --yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runAadhaarExtract,
	}
	extract.Flags().Bool("yaml", false, "Output in YAML format")
	cmd.AddCommand(extract)
	return cmd
}

func runAadhaarExtract(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	backend, err := a.connect()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	v := views.NewAadhaar(backend)
	v.SelectFile(filepath.Base(args[0]), data)
	out, err := v.Extract(cmd.Context())
	if err != nil {
		return err
	}
	if err := outcomeError(out); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonOutput {
		b, err := v.Result().MarshalJSON()
		if err != nil {
			return err
		}
		printJSON(w, jsonRaw(b))
		return nil
	}
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		b, err := v.Result().MarshalJSON()
		if err != nil {
			return err
		}
		y, err := yaml.JSONToYAML(b)
		if err != nil {
			return err
		}
		w.Write(y)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range v.Rows() {
		fmt.Fprintf(tw, "%s:\t%s\n", row.Label, row.Value)
	}
	return tw.Flush()
}

// jsonRaw is JSON that printJSON re-indents without reordering keys.
type jsonRaw []byte

func (j jsonRaw) MarshalJSON() ([]byte, error) { return j, nil }
