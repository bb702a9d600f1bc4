package views

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smartapp/smartapp/pkg/api"
)

const (
	MsgFieldsRequired    = "All fields are required"
	MsgInvalidAge        = "Age must be a positive number"
	MsgStudentAdded      = "Student added successfully! Redirecting..."
	MsgStudentUpdated    = "Student updated successfully! Redirecting..."
	MsgAddFailed         = "Failed to add student. Please try again."
	MsgUpdateFailed      = "Failed to update student. Please try again."
	MsgFetchFailed       = "Failed to fetch student details"
	MsgStudentNotFound   = "Student not found"
	DefaultRedirectDelay = 1500 * time.Millisecond
)

// StudentValues are the raw form values.
type StudentValues struct {
	Name   string
	Age    string
	Course string
}

func valuesOf(s api.Student) StudentValues {
	age := ""
	if s.Age != 0 {
		age = itoa(s.Age)
	}
	return StudentValues{Name: s.Name, Age: age, Course: s.Course}
}

// StudentForm creates a student, or edits one when constructed with an ID.
type StudentForm struct {
	FormState
	backend       Backend
	id            string
	values        StudentValues
	redirectDelay time.Duration
}

// NewStudentForm creates the form. A non-empty id selects edit mode.
func NewStudentForm(backend Backend, id string) *StudentForm {
	return &StudentForm{
		backend:       backend,
		id:            strings.TrimSpace(id),
		redirectDelay: DefaultRedirectDelay,
	}
}

// SetRedirectDelay changes how long the success message shows before
// returning to the dashboard.
func (v *StudentForm) SetRedirectDelay(d time.Duration) { v.redirectDelay = d }

// Editing reports whether the form edits an existing record.
func (v *StudentForm) Editing() bool { return v.id != "" }

// ID returns the record being edited, or "".
func (v *StudentForm) ID() string { return v.id }

// Values returns the current form values.
func (v *StudentForm) Values() StudentValues { return v.values }

// Load fills the form from the record being edited. It is a no-op in create
// mode.
func (v *StudentForm) Load(ctx context.Context) error {
	if !v.Editing() {
		return nil
	}
	students, err := v.backend.ListStudents(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("error fetching student")
		v.reject(MsgFetchFailed)
		return err
	}
	s, ok := api.FindStudent(students, v.id)
	if !ok {
		v.reject(MsgStudentNotFound)
		return errStudentNotFound
	}
	v.values = valuesOf(s)
	return nil
}

var errStudentNotFound = errors.New("student not found")

// Submit validates the values and issues exactly one add or update call.
// On failure the values are kept for correction; on success they are cleared
// and the outcome returns to the list (edit) or the dashboard (create).
func (v *StudentForm) Submit(ctx context.Context, values StudentValues) (Outcome, error) {
	v.values = values
	in, err := api.ParseStudentInput(values.Name, values.Age, values.Course)
	if err != nil {
		return Outcome{Message: v.reject(MsgInvalidAge)}, nil
	}
	if err := in.Validate(); err != nil {
		return Outcome{Message: v.reject(MsgFieldsRequired)}, nil
	}
	if !v.Begin() {
		return Outcome{}, ErrBusy
	}

	if v.Editing() {
		err = v.backend.UpdateStudent(ctx, v.id, in)
	} else {
		err = v.backend.AddStudent(ctx, in)
	}
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Bool("editing", v.Editing()).Msg("saving student failed")
		if v.Editing() {
			return Outcome{Message: v.fail(MsgUpdateFailed)}, nil
		}
		return Outcome{Message: v.fail(MsgAddFailed)}, nil
	}

	v.values = StudentValues{}
	msg, next := MsgStudentAdded, PathDashboard
	if v.Editing() {
		msg, next = MsgStudentUpdated, PathStudents
	}
	return Outcome{
		Message:  v.succeed(msg),
		Redirect: &Redirect{Path: next, After: v.redirectDelay},
	}, nil
}
