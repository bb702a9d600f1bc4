package views

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/smartapp/smartapp/internal/common/httpclient"
	"github.com/smartapp/smartapp/internal/imagebg"
	"github.com/smartapp/smartapp/pkg/api"
)

var pngData = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

type backendCall struct {
	Op string
	ID string
	In api.StudentInput
}

// fakeBackend records calls and serves an in-memory student list.
type fakeBackend struct {
	mu       sync.Mutex
	calls    []backendCall
	students []api.Student
	nextID   int

	loginErr    error
	registerErr error
	extractErr  error
	listErr     error
	saveErr     error
	deleteErr   error
	extraction  *api.ExtractionResult
	block       chan struct{} // when set, Login waits on it
}

func (f *fakeBackend) record(c backendCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeBackend) Calls() []backendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]backendCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeBackend) Login(ctx context.Context, creds api.Credentials) (*api.LoginResponse, error) {
	f.record(backendCall{Op: "login"})
	if f.block != nil {
		<-f.block
	}
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &api.LoginResponse{AccessToken: "tok-" + creds.Email}, nil
}

func (f *fakeBackend) Register(ctx context.Context, creds api.Credentials) (string, error) {
	f.record(backendCall{Op: "register"})
	return "", f.registerErr
}

func (f *fakeBackend) ExtractAadhaar(ctx context.Context, name string, data []byte) (*api.ExtractionResult, error) {
	f.record(backendCall{Op: "extract"})
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	return f.extraction, nil
}

func (f *fakeBackend) ListStudents(ctx context.Context) ([]api.Student, error) {
	f.record(backendCall{Op: "list"})
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]api.Student, len(f.students))
	copy(out, f.students)
	return out, nil
}

func (f *fakeBackend) AddStudent(ctx context.Context, in api.StudentInput) error {
	f.record(backendCall{Op: "add", In: in})
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.students = append(f.students, api.Student{ID: strconv.Itoa(f.nextID), Name: in.Name, Age: in.Age, Course: in.Course})
	return nil
}

func (f *fakeBackend) UpdateStudent(ctx context.Context, id string, in api.StudentInput) error {
	f.record(backendCall{Op: "update", ID: id, In: in})
	return f.saveErr
}

func (f *fakeBackend) DeleteStudent(ctx context.Context, id string) error {
	f.record(backendCall{Op: "delete", ID: id})
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.students = api.RemoveStudent(f.students, id)
	return nil
}

func (f *fakeBackend) WakeServer(ctx context.Context) error {
	f.record(backendCall{Op: "wake"})
	return &httpclient.HTTPError{StatusCode: http.StatusBadGateway}
}

type fakeTokens struct {
	token string
}

func (f *fakeTokens) Set(t string) error { f.token = t; return nil }
func (f *fakeTokens) Clear() error       { f.token = ""; return nil }

type fakeProcessor struct {
	reqs []imagebg.Request
	err  error
}

func (p *fakeProcessor) Process(ctx context.Context, req imagebg.Request) (*imagebg.Result, error) {
	p.reqs = append(p.reqs, req)
	if p.err != nil {
		return nil, p.err
	}
	return &imagebg.Result{Data: pngData, ContentType: "image/png"}, nil
}

func httpErr(code int, msg string) error {
	return &httpclient.HTTPError{StatusCode: code, Message: msg}
}
