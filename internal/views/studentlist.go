package views

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/smartapp/smartapp/pkg/api"
)

const (
	MsgListFailed    = "Failed to load students. Please try again."
	MsgDeleteFailed  = "Failed to delete student. Please try again."
	MsgDeleted       = "Student deleted."
	MsgDeleteRunning = "A delete is already in progress."
)

// StudentList is the student list page. It keeps its own loading, error and
// data state, independent of any form.
type StudentList struct {
	backend Backend

	mu       sync.Mutex
	loading  bool
	deleting bool
	err      string
	message  Message
	students []api.Student
}

// NewStudentList creates the list page.
func NewStudentList(backend Backend) *StudentList {
	return &StudentList{backend: backend}
}

// Load fetches the list; it is what mounting the page does.
func (v *StudentList) Load(ctx context.Context) error {
	return v.Refresh(ctx)
}

// Refresh refetches the list from the server.
func (v *StudentList) Refresh(ctx context.Context) error {
	v.mu.Lock()
	if v.loading {
		v.mu.Unlock()
		return ErrBusy
	}
	v.loading = true
	v.err = ""
	v.mu.Unlock()

	students, err := v.backend.ListStudents(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("error loading students")
		v.err = MsgListFailed
		return err
	}
	v.students = students
	return nil
}

// Delete removes the student identified by id, matching as strings. The local
// list changes only after the server confirms.
func (v *StudentList) Delete(ctx context.Context, id string) (Outcome, error) {
	v.mu.Lock()
	if v.deleting {
		v.mu.Unlock()
		return Outcome{Message: Message{Kind: MessageError, Text: MsgDeleteRunning}}, ErrBusy
	}
	s, ok := api.FindStudent(v.students, id)
	if !ok {
		v.message = Message{Kind: MessageError, Text: MsgStudentNotFound}
		v.mu.Unlock()
		return Outcome{Message: v.message}, nil
	}
	v.deleting = true
	v.mu.Unlock()

	err := v.backend.DeleteStudent(ctx, s.ID)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.deleting = false
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("id", s.ID).Msg("delete failed")
		v.message = Message{Kind: MessageError, Text: MsgDeleteFailed}
		return Outcome{Message: v.message}, nil
	}
	v.students = api.RemoveStudent(v.students, s.ID)
	v.message = Message{Kind: MessageSuccess, Text: MsgDeleted}
	return Outcome{Message: v.message}, nil
}

// Loading reports whether a fetch is in flight.
func (v *StudentList) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// Error returns the fetch error message, or "".
func (v *StudentList) Error() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Message returns the last delete outcome.
func (v *StudentList) Message() Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

// Students returns a copy of the displayed list.
func (v *StudentList) Students() []api.Student {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]api.Student, len(v.students))
	copy(out, v.students)
	return out
}

func itoa(n int) string { return strconv.Itoa(n) }
