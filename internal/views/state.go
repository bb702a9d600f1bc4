// Package views holds the page state machines behind both the CLI and the web
// shell. Every page moves Idle -> Submitting -> (Success | Failed) and back,
// refuses a second submission while one is in flight, validates locally before
// dispatch, and turns every error into a message the user can act on.
package views

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/smartapp/smartapp/internal/imagebg"
	"github.com/smartapp/smartapp/pkg/api"
)

// State of a page's submission lifecycle.
type State int

const (
	Idle State = iota
	Submitting
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failed:
		return "error"
	default:
		return "idle"
	}
}

// MessageKind is how a message should be presented.
type MessageKind string

const (
	MessageNone    MessageKind = ""
	MessageInfo    MessageKind = "info"
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

// Message is the user-visible outcome of an action.
type Message struct {
	Kind MessageKind
	Text string
}

// IsError reports whether m is an error message.
func (m Message) IsError() bool { return m.Kind == MessageError }

// Redirect asks the shell to navigate to Path after After has elapsed.
type Redirect struct {
	Path  string
	After time.Duration
}

// Outcome is returned by every submit-style action.
type Outcome struct {
	Message  Message
	Redirect *Redirect
}

// ErrBusy is returned when an action is attempted while one is in flight.
var ErrBusy = errors.New("a submission is already in progress")

// MsgBusy is shown when a form is submitted again before the first
// submission finished.
const MsgBusy = "Your previous submission is still being processed. Please wait."

// FormState tracks one page's submission lifecycle.
type FormState struct {
	mu      sync.Mutex
	state   State
	message Message
}

// Begin moves to Submitting. It returns false if a submission is in flight.
func (f *FormState) Begin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Submitting {
		return false
	}
	f.state = Submitting
	f.message = Message{}
	return true
}

func (f *FormState) succeed(text string) Message {
	return f.finish(Success, Message{Kind: MessageSuccess, Text: text})
}

func (f *FormState) fail(text string) Message {
	return f.finish(Failed, Message{Kind: MessageError, Text: text})
}

// reject records a validation failure without a submission having started.
func (f *FormState) reject(text string) Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = Message{Kind: MessageError, Text: text}
	if f.state != Submitting {
		f.state = Failed
	}
	return f.message
}

func (f *FormState) finish(s State, m Message) Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = s
	f.message = m
	return m
}

// Reset returns to Idle and clears the message.
func (f *FormState) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = Idle
	f.message = Message{}
}

// State returns the current state.
func (f *FormState) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Message returns the last message.
func (f *FormState) Message() Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Submitting reports whether a submission is in flight; the shell disables
// submit controls while it is true.
func (f *FormState) Submitting() bool {
	return f.State() == Submitting
}

// Backend is the set of resource operations the pages call.
type Backend interface {
	Login(ctx context.Context, creds api.Credentials) (*api.LoginResponse, error)
	Register(ctx context.Context, creds api.Credentials) (string, error)
	ExtractAadhaar(ctx context.Context, fileName string, data []byte) (*api.ExtractionResult, error)
	ListStudents(ctx context.Context) ([]api.Student, error)
	AddStudent(ctx context.Context, in api.StudentInput) error
	UpdateStudent(ctx context.Context, id string, in api.StudentInput) error
	DeleteStudent(ctx context.Context, id string) error
	WakeServer(ctx context.Context) error
}

var _ Backend = (*api.Client)(nil)

// TokenStore receives the token on login.
type TokenStore interface {
	Set(token string) error
	Clear() error
}

// ImageProcessor is the background-image service.
type ImageProcessor interface {
	Process(ctx context.Context, req imagebg.Request) (*imagebg.Result, error)
}

var _ ImageProcessor = (*imagebg.Client)(nil)
