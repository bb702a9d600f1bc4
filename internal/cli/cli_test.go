package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartapp/smartapp/internal/config"
)

type call struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

type backend struct {
	mu    sync.Mutex
	calls []call
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.calls = append(b.calls, call{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: string(body)})
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/login":
		var c map[string]string
		json.Unmarshal(body, &c)
		if c["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Incorrect password"}`))
			return
		}
		w.Write([]byte(`{"access_token":"tok-cli","token_type":"bearer"}`))
	case r.URL.Path == "/students" && r.Method == http.MethodGet:
		w.Write([]byte(`{"students":[{"_id":"a1","name":"Asha","age":20,"course":"CS"},{"id":7,"name":"Ravi","age":21,"course":"Math"}]}`))
	case r.URL.Path == "/extract-aadhaar":
		w.Write([]byte(`{"name":"Asha","father_name":"Ravi","dob":"01/01/2000"}`))
	default:
		w.Write([]byte(`{"message":"ok"}`))
	}
}

func (b *backend) matching(method, path string) []call {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []call
	for _, c := range b.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

type cliEnv struct {
	backend *backend
	cfgPath string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	for _, k := range []string{config.EnvAPIBaseURL, config.EnvImageAPIURL, config.EnvImageAPIToken, config.EnvLogLevel} {
		t.Setenv(k, "")
	}
	b := &backend{}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &config.Config{ServerURL: srv.URL}
	require.NoError(t, cfg.WriteConfig(cfgPath))
	return &cliEnv{backend: b, cfgPath: cfgPath}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader("y\n"))
	cmd.SetArgs(append([]string{"--config", e.cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *cliEnv) config(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig(e.cfgPath)
	require.NoError(t, err)
	return cfg
}

func TestLoginListLogout(t *testing.T) {
	e := newCLIEnv(t)

	_, err := e.run(t, "login", "--email", "me@example.com", "--password", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Incorrect password. Please enter the valid password.", err.Error())
	assert.Empty(t, e.config(t).CurrentToken)

	out, err := e.run(t, "login", "--email", "me@example.com", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Login Successful!")
	cfg := e.config(t)
	assert.Equal(t, "tok-cli", cfg.CurrentToken)
	assert.Equal(t, "me@example.com", cfg.Email)

	out, err = e.run(t, "students", "list", "-j")
	require.NoError(t, err)
	var students []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &students))
	require.Len(t, students, 2)
	assert.Equal(t, "a1", students[0]["id"])
	assert.Equal(t, "7", students[1]["id"])
	calls := e.backend.matching(http.MethodGet, "/students")
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer tok-cli", calls[0].Auth)

	_, err = e.run(t, "logout")
	require.NoError(t, err)
	assert.Empty(t, e.config(t).CurrentToken)

	_, err = e.run(t, "students", "list")
	require.NoError(t, err)
	calls = e.backend.matching(http.MethodGet, "/students")
	require.Len(t, calls, 2)
	assert.Empty(t, calls[1].Auth)
}

func TestConfigServer(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run(t, "config", "--server", "api.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", e.config(t).ServerURL)

	_, err = e.run(t, "config", "--image-token", "abcdefgh")
	require.NoError(t, err)
	out, err := e.run(t, "config", "-j")
	require.NoError(t, err)
	assert.Contains(t, out, `"server_url": "https://api.example.com"`)
	assert.Contains(t, out, `"image_token": "****efgh"`)
	assert.NotContains(t, out, "abcdefgh")
}

func TestStudentsAddRequiresFields(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run(t, "students", "add", "--name", "Asha", "--course", "CS")
	require.Error(t, err)
	assert.Equal(t, "All fields are required", err.Error())
	assert.Empty(t, e.backend.matching(http.MethodPost, "/students"))

	_, err = e.run(t, "students", "add", "--name", "Asha", "--age", "20", "--course", "CS")
	require.NoError(t, err)
	calls := e.backend.matching(http.MethodPost, "/students")
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"name":"Asha","age":20,"course":"CS"}`, calls[0].Body)
}

func TestStudentsAddFromFile(t *testing.T) {
	e := newCLIEnv(t)
	file := filepath.Join(t.TempDir(), "students.yaml")
	require.NoError(t, os.WriteFile(file, []byte("name: Asha\nage: 20\ncourse: CS\n---\nname: Meera\nage: 22\ncourse: Bio\n"), 0o600))

	out, err := e.run(t, "students", "add", "-f", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Added Meera")
	assert.Len(t, e.backend.matching(http.MethodPost, "/students"), 2)
}

func TestStudentsUpdateMergesChangedFields(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run(t, "students", "update", "7", "--course", "Physics")
	require.NoError(t, err)

	calls := e.backend.matching(http.MethodPut, "/students/7")
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"name":"Ravi","age":21,"course":"Physics"}`, calls[0].Body)
	assert.Empty(t, e.backend.matching(http.MethodPost, "/students"))

	_, err = e.run(t, "students", "update", "nope", "--course", "X")
	assert.ErrorContains(t, err, "Student not found")
}

func TestStudentsDelete(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run(t, "students", "delete", "a1")
	require.NoError(t, err)
	assert.Len(t, e.backend.matching(http.MethodDelete, "/students/a1"), 1)

	_, err = e.run(t, "students", "delete", "zzz", "--yes")
	assert.ErrorContains(t, err, "Student not found")
	assert.Empty(t, e.backend.matching(http.MethodDelete, "/students/zzz"))
}

func TestAadhaarExtract(t *testing.T) {
	e := newCLIEnv(t)
	file := filepath.Join(t.TempDir(), "card.png")
	require.NoError(t, os.WriteFile(file, []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}, 0o600))

	out, err := e.run(t, "aadhaar", "extract", file)
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "Name:"), strings.Index(out, "Father Name:"))
	assert.Less(t, strings.Index(out, "Father Name:"), strings.Index(out, "Dob:"))

	out, err = e.run(t, "aadhaar", "extract", file, "-j")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, `"name"`), strings.Index(out, `"dob"`))
}

func TestBackgroundRequiresToken(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run(t, "background", "remove", "photo.png")
	assert.ErrorContains(t, err, config.EnvImageAPIToken)
}

func TestApplyStudentPatch(t *testing.T) {
	base := viewsValues("Ravi", "21", "Math")
	got, err := applyStudentPatch(base, []byte(`{"age":22}`))
	require.NoError(t, err)
	assert.Equal(t, viewsValues("Ravi", "22", "Math"), got)

	got, err = applyStudentPatch(base, []byte(`{"name":"Ravi K","course":"Physics"}`))
	require.NoError(t, err)
	assert.Equal(t, viewsValues("Ravi K", "21", "Physics"), got)

	_, err = applyStudentPatch(base, []byte(`{"grade":"A"}`))
	assert.ErrorContains(t, err, "unknown student field")
	_, err = applyStudentPatch(base, []byte(`{"course":{"code":"M1"}}`))
	assert.ErrorContains(t, err, "must be a single value")
}

func TestStudentsUpdateFromPatchFile(t *testing.T) {
	e := newCLIEnv(t)
	file := filepath.Join(t.TempDir(), "patch.yaml")
	require.NoError(t, os.WriteFile(file, []byte("age: 23\ncourse: Chemistry\n"), 0o600))

	_, err := e.run(t, "students", "update", "7", "-f", file, "--course", "Physics")
	require.NoError(t, err)
	calls := e.backend.matching(http.MethodPut, "/students/7")
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"name":"Ravi","age":23,"course":"Physics"}`, calls[0].Body)

	require.NoError(t, os.WriteFile(file, []byte("grade: A\n"), 0o600))
	_, err = e.run(t, "students", "update", "7", "-f", file)
	assert.ErrorContains(t, err, `unknown student field "grade"`)
	assert.Len(t, e.backend.matching(http.MethodPut, "/students/7"), 1)

	_, err = e.run(t, "students", "update", "7")
	assert.ErrorContains(t, err, "nothing to update")
}

func TestStatusReportsTokenClaims(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(t, "status", "-j")
	require.NoError(t, err)
	var st map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, false, st["logged_in"])

	exp := time.Now().Add(-time.Hour)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "me@example.com",
		"exp": exp.Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	cfg := e.config(t)
	cfg.CurrentToken = tok
	require.NoError(t, cfg.WriteConfig(e.cfgPath))

	out, err = e.run(t, "status", "-j")
	require.NoError(t, err)
	st = map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, true, st["logged_in"])
	assert.Equal(t, true, st["expired"])
	assert.Equal(t, "me@example.com", st["subject"])
	assert.Equal(t, exp.UTC().Format(time.RFC3339), st["expires_at"])
}
