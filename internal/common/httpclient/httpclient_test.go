package httpclient

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	url   string
	token string
}

func (f *fakeSource) ServerURL() string { return f.url }
func (f *fakeSource) Token() string     { return f.token }

type capturedRequest struct {
	method string
	path   string
	header http.Header
	body   string
}

func newRecordingServer(t *testing.T, status int, rspBody string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var reqs []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		reqs = append(reqs, capturedRequest{method: r.Method, path: r.URL.Path, header: r.Header.Clone(), body: string(b)})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(rspBody))
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func TestBearerTokenAttachedWhenPresent(t *testing.T) {
	srv, reqs := newRecordingServer(t, http.StatusOK, `[]`)
	src := &fakeSource{url: srv.URL, token: "tok-123"}
	c := NewClient(src)

	_, err := c.ListResources(context.Background(), "/students", nil)
	require.NoError(t, err)
	require.Len(t, *reqs, 1)
	assert.Equal(t, "Bearer tok-123", (*reqs)[0].header.Get("Authorization"))
}

func TestTokenReadBeforeEveryRequest(t *testing.T) {
	srv, reqs := newRecordingServer(t, http.StatusOK, `{}`)
	src := &fakeSource{url: srv.URL}
	c := NewClient(src)

	_, err := c.DoRequest(context.Background(), RequestOptions{Method: http.MethodGet, Path: "/"})
	require.NoError(t, err)
	src.token = "later"
	_, err = c.DoRequest(context.Background(), RequestOptions{Method: http.MethodGet, Path: "/"})
	require.NoError(t, err)
	src.token = ""
	_, err = c.DoRequest(context.Background(), RequestOptions{Method: http.MethodGet, Path: "/"})
	require.NoError(t, err)

	require.Len(t, *reqs, 3)
	assert.Empty(t, (*reqs)[0].header.Values("Authorization"))
	assert.Equal(t, "Bearer later", (*reqs)[1].header.Get("Authorization"))
	assert.Empty(t, (*reqs)[2].header.Values("Authorization"))
}

func TestPathsAndMethods(t *testing.T) {
	srv, reqs := newRecordingServer(t, http.StatusOK, `{}`)
	c := NewClient(&fakeSource{url: srv.URL + "/api/"})
	ctx := context.Background()

	_, err := c.CreateResource(ctx, "/students", []byte(`{"name":"a"}`))
	require.NoError(t, err)
	_, err = c.UpdateResource(ctx, "/students", "42", []byte(`{"name":"b"}`))
	require.NoError(t, err)
	require.NoError(t, c.DeleteResource(ctx, "/students", "42"))

	require.Len(t, *reqs, 3)
	assert.Equal(t, http.MethodPost, (*reqs)[0].method)
	assert.Equal(t, "/api/students", (*reqs)[0].path)
	assert.Equal(t, "application/json", (*reqs)[0].header.Get("Content-Type"))
	assert.Equal(t, `{"name":"a"}`, (*reqs)[0].body)
	assert.Equal(t, http.MethodPut, (*reqs)[1].method)
	assert.Equal(t, "/api/students/42", (*reqs)[1].path)
	assert.Equal(t, http.MethodDelete, (*reqs)[2].method)
	assert.Equal(t, "/api/students/42", (*reqs)[2].path)

	assert.Error(t, c.DeleteResource(ctx, "/students", " "))
	assert.Error(t, c.DeleteResource(ctx, "/students", "a/b"))
	assert.Len(t, *reqs, 3)
}

func TestHTTPErrorCarriesStatusAndDetail(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"detail string", http.StatusUnauthorized, `{"detail":"Incorrect password"}`, "Incorrect password"},
		{"detail list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email"}]}`, "value is not a valid email"},
		{"message", http.StatusBadRequest, `{"message":"bad image"}`, "bad image"},
		{"nested error", http.StatusBadRequest, `{"error":{"code":1,"message":"quota exceeded"}}`, "quota exceeded"},
		{"plain text", http.StatusInternalServerError, "boom\n", "boom"},
		{"empty", http.StatusNotFound, "", "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newRecordingServer(t, tt.status, tt.body)
			c := NewClient(&fakeSource{url: srv.URL})
			_, err := c.ListResources(context.Background(), "/students", nil)
			require.Error(t, err)
			var he *HTTPError
			require.True(t, errors.As(err, &he))
			assert.Equal(t, tt.status, he.StatusCode)
			assert.Equal(t, tt.message, he.Error())
			assert.Equal(t, tt.status, StatusCode(err))
			assert.False(t, IsTransport(err))
		})
	}
}

func TestTransportErrorIsDistinct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(&fakeSource{url: url, token: "t"})
	_, err := c.ListResources(context.Background(), "/students", nil)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Equal(t, 0, StatusCode(err))
}

func TestInvalidServerURL(t *testing.T) {
	c := NewClient(&fakeSource{url: "not a url"})
	_, err := c.ListResources(context.Background(), "/", nil)
	require.Error(t, err)
	assert.False(t, IsTransport(err))
}

func TestUploadMultipart(t *testing.T) {
	var gotField, gotName, gotType, gotData, gotColor string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mt, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		require.Equal(t, "multipart/form-data", mt)
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			p, err := mr.NextPart()
			if err != nil {
				break
			}
			b, _ := io.ReadAll(p)
			if p.FileName() != "" {
				gotField, gotName, gotType, gotData = p.FormName(), p.FileName(), p.Header.Get("Content-Type"), string(b)
			} else if p.FormName() == "background_color" {
				gotColor = string(b)
			}
		}
		w.Header().Set("Content-Type", "image/png; charset=binary")
		w.Write([]byte("PNGDATA"))
	}))
	defer srv.Close()

	c := NewClient(&fakeSource{url: srv.URL}, WithHeader("apy-token", "k"))
	rsp, err := c.Upload(context.Background(), "/upload",
		[]FormField{{Name: "background_color", Value: "#ffffff"}},
		MultipartFile{Field: "image", FileName: "me.jpg", ContentType: "image/jpeg", Data: []byte("JPEG")})
	require.NoError(t, err)
	assert.Equal(t, "image", gotField)
	assert.Equal(t, "me.jpg", gotName)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, "JPEG", gotData)
	assert.Equal(t, "#ffffff", gotColor)
	assert.Equal(t, "image/png", rsp.ContentType())
	assert.Equal(t, "PNGDATA", string(rsp.Body))
}

func TestEncodeMultipartRequiresField(t *testing.T) {
	_, _, err := EncodeMultipart(nil, MultipartFile{FileName: "x"})
	assert.Error(t, err)
	_, ct, err := EncodeMultipart(nil, MultipartFile{Field: "file", FileName: "x"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ct, "multipart/form-data; boundary="))
}
