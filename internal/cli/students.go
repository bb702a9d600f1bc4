package cli

import (
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"sigs.k8s.io/yaml"

	"github.com/smartapp/smartapp/internal/views"
	"github.com/smartapp/smartapp/pkg/api"
)

// newStudentsCmd creates the students command group
func newStudentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "students",
		Short: "List, add, update and delete student records",
		Long: `Manage student records.

Examples:
  smartapp students list
  smartapp students add --name Asha --age 20 --course CS
  smartapp students add -f students.yaml
  smartapp students update 65f1a2 --course Physics
  smartapp students update 65f1a2 -f patch.yaml
  smartapp students delete 65f1a2`,
	}
	cmd.AddCommand(newStudentsListCmd())
	cmd.AddCommand(newStudentsAddCmd())
	cmd.AddCommand(newStudentsUpdateCmd())
	cmd.AddCommand(newStudentsDeleteCmd())
	return cmd
}

func newStudentsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List students",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			backend, err := a.connect()
			if err != nil {
				return err
			}
			v := views.NewStudentList(backend)
			if err := v.Load(cmd.Context()); err != nil {
				return fmt.Errorf("%s: %w", v.Error(), err)
			}
			asYAML, _ := cmd.Flags().GetBool("yaml")
			return printStudents(cmd, v.Students(), asYAML)
		},
	}
	cmd.Flags().Bool("yaml", false, "Output in YAML format")
	return cmd
}

func printStudents(cmd *cobra.Command, students []api.Student, asYAML bool) error {
	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		printJSON(out, students)
	case asYAML:
		b, err := yaml.Marshal(students)
		if err != nil {
			return err
		}
		out.Write(b)
	case len(students) == 0:
		fmt.Fprintln(out, "No students found.")
	default:
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tAGE\tCOURSE")
		for _, s := range students {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, s.Name, s.Age, s.Course)
		}
		return w.Flush()
	}
	return nil
}

func newStudentsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a student, or every student listed in a file",
		Args:  cobra.NoArgs,
		RunE:  runStudentsAdd,
	}
	cmd.Flags().String("name", "", "Student name")
	cmd.Flags().String("age", "", "Student age")
	cmd.Flags().String("course", "", "Course")
	cmd.Flags().StringP("filename", "f", "", "YAML or JSON file with student records")
	return cmd
}

func runStudentsAdd(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	backend, err := a.connect()
	if err != nil {
		return err
	}

	var records []views.StudentValues
	if filename, _ := cmd.Flags().GetString("filename"); filename != "" {
		if records, err = LoadStudentsFile(filename); err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("no student records in %s", filename)
		}
	} else {
		name, _ := cmd.Flags().GetString("name")
		age, _ := cmd.Flags().GetString("age")
		course, _ := cmd.Flags().GetString("course")
		records = []views.StudentValues{{Name: name, Age: age, Course: course}}
	}

	var statusValues []map[string]any
	var failed int
	for _, rec := range records {
		out, err := views.NewStudentForm(backend, "").Submit(cmd.Context(), rec)
		if err != nil {
			return err
		}
		status := map[string]any{"name": rec.Name, "status": "success", "message": out.Message.Text}
		if out.Message.IsError() {
			failed++
			status["status"] = "error"
			if len(records) == 1 {
				return outcomeError(out)
			}
			if !jsonOutput {
				errorLabel.Fprintf(cmd.ErrOrStderr(), "✗ %s: %s\n", rec.Name, out.Message.Text)
			}
		} else if !jsonOutput {
			okLabel.Fprintf(cmd.OutOrStdout(), "✓ Added %s\n", rec.Name)
		}
		statusValues = append(statusValues, status)
	}
	if jsonOutput {
		printJSON(cmd.OutOrStdout(), statusValues)
	}
	if failed > 0 {
		if jsonOutput {
			return ErrAlreadyHandled
		}
		return fmt.Errorf("%d of %d students could not be added", failed, len(records))
	}
	return nil
}

func newStudentsUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a student; only the given fields change",
		Long: `Update a student. Fields not given keep their current values. Changes come
from flags, from a JSON or YAML patch file, or both; flags win.

Examples:
  smartapp students update 65f1a2 --course Physics
  smartapp students update 65f1a2 -f patch.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runStudentsUpdate,
	}
	cmd.Flags().String("name", "", "New name")
	cmd.Flags().String("age", "", "New age")
	cmd.Flags().String("course", "", "New course")
	cmd.Flags().StringP("file", "f", "", "JSON or YAML object with the fields to change")
	return cmd
}

func runStudentsUpdate(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	backend, err := a.connect()
	if err != nil {
		return err
	}
	patch, err := studentPatch(cmd)
	if err != nil {
		return err
	}

	form := views.NewStudentForm(backend, args[0])
	if err := form.Load(cmd.Context()); err != nil {
		return fmt.Errorf("%s: %s", form.Message().Text, args[0])
	}
	values, err := applyStudentPatch(form.Values(), patch)
	if err != nil {
		return err
	}

	out, err := form.Submit(cmd.Context(), values)
	if err != nil {
		return err
	}
	if err := outcomeError(out); err != nil {
		return err
	}
	printStatus(cmd, "Student updated", map[string]any{"id": form.ID()})
	return nil
}

var studentFields = []string{"name", "age", "course"}

// studentPatch builds the JSON object of changes from the patch file and the
// changed flags.
func studentPatch(cmd *cobra.Command) ([]byte, error) {
	patch := []byte(`{}`)
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("unable to read patch file: %w", err)
		}
		if patch, err = yaml.YAMLToJSON(data); err != nil {
			return nil, fmt.Errorf("unable to parse patch file: %w", err)
		}
		if !gjson.ParseBytes(patch).IsObject() {
			return nil, fmt.Errorf("patch file must hold a single object")
		}
	}
	var err error
	for _, field := range studentFields {
		if !cmd.Flags().Changed(field) {
			continue
		}
		v, _ := cmd.Flags().GetString(field)
		if patch, err = sjson.SetBytes(patch, field, v); err != nil {
			return nil, err
		}
	}
	if len(gjson.ParseBytes(patch).Map()) == 0 {
		return nil, fmt.Errorf("nothing to update; pass --name, --age, --course or -f")
	}
	return patch, nil
}

// applyStudentPatch sets each field of patch over base. Unknown fields and
// non-scalar values are rejected.
func applyStudentPatch(base views.StudentValues, patch []byte) (views.StudentValues, error) {
	doc := []byte(`{}`)
	var err error
	for k, v := range map[string]string{"name": base.Name, "age": base.Age, "course": base.Course} {
		if doc, err = sjson.SetBytes(doc, k, v); err != nil {
			return base, err
		}
	}
	gjson.ParseBytes(patch).ForEach(func(key, value gjson.Result) bool {
		switch {
		case !slices.Contains(studentFields, key.String()):
			err = fmt.Errorf("unknown student field %q", key.String())
		case value.IsObject() || value.IsArray():
			err = fmt.Errorf("student field %q must be a single value", key.String())
		default:
			doc, err = sjson.SetBytes(doc, key.String(), value.String())
		}
		return err == nil
	})
	if err != nil {
		return base, err
	}
	return views.StudentValues{
		Name:   gjson.GetBytes(doc, "name").String(),
		Age:    gjson.GetBytes(doc, "age").String(),
		Course: gjson.GetBytes(doc, "course").String(),
	}, nil
}

func newStudentsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a student",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			backend, err := a.connect()
			if err != nil {
				return err
			}
			v := views.NewStudentList(backend)
			if err := v.Load(cmd.Context()); err != nil {
				return fmt.Errorf("%s: %w", v.Error(), err)
			}
			s, ok := api.FindStudent(v.Students(), args[0])
			if !ok {
				return fmt.Errorf("%s: %s", views.MsgStudentNotFound, args[0])
			}
			if yes, _ := cmd.Flags().GetBool("yes"); !yes && !confirm(cmd, fmt.Sprintf("Delete %s (%s)?", s.Name, s.ID)) {
				return fmt.Errorf("delete cancelled")
			}
			out, err := v.Delete(cmd.Context(), s.ID)
			if err != nil {
				return err
			}
			if err := outcomeError(out); err != nil {
				return err
			}
			printStatus(cmd, out.Message.Text, map[string]any{"id": s.ID, "remaining": len(v.Students())})
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}
