package imagebg

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartapp/smartapp/internal/common/apperrors"
)

var pngData = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R', 1, 2, 3}
var jpegData = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F', 0}

type received struct {
	path, token, color, fileType string
}

func newService(t *testing.T, status int, ctype string, body []byte) (*httptest.Server, *received) {
	t.Helper()
	got := &received{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.token = r.Header.Get("apy-token")
		_, params, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			p, err := mr.NextPart()
			if err != nil {
				break
			}
			b, _ := io.ReadAll(p)
			switch p.FormName() {
			case "image":
				got.fileType = p.Header.Get("Content-Type")
			case "background_color":
				got.color = string(b)
			}
		}
		w.Header().Set("Content-Type", ctype)
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestRemoveBackground(t *testing.T) {
	srv, got := newService(t, http.StatusOK, "image/png", pngData)
	c := NewClient(srv.URL, "secret")

	res, err := c.Process(context.Background(), Request{Mode: ModeRemove, FileName: "me.jpg", Data: jpegData})
	require.NoError(t, err)
	assert.Equal(t, pngData, res.Data)
	assert.Equal(t, "image/png", res.ContentType)
	assert.Equal(t, removePath, got.path)
	assert.Equal(t, "secret", got.token)
	assert.Equal(t, "image/jpeg", got.fileType)
	assert.Empty(t, got.color)
}

func TestChangeBackground(t *testing.T) {
	srv, got := newService(t, http.StatusOK, "application/octet-stream", pngData)
	c := NewClient(srv.URL, "secret")

	res, err := c.Process(context.Background(), Request{Mode: ModeChange, Data: jpegData, Color: "#00ff00"})
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.ContentType)
	assert.Equal(t, changePath, got.path)
	assert.Equal(t, "#00ff00", got.color)

	_, err = c.Process(context.Background(), Request{Mode: ModeChange, Data: jpegData, Color: "green"})
	assert.ErrorIs(t, err, ErrInvalidColor)
}

func TestErrorBlobIsDecoded(t *testing.T) {
	srv, _ := newService(t, http.StatusBadRequest, "application/octet-stream",
		[]byte(`{"error":{"code":104,"message":"Image dimensions too large"}}`))
	c := NewClient(srv.URL, "secret")

	_, err := c.Process(context.Background(), Request{Data: pngData})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImageService)
	assert.Equal(t, "Image dimensions too large", err.Error())
	assert.Equal(t, apperrors.KindProcessing, apperrors.KindOf(err))
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCodeOf(err))
}

func TestNonImageSuccessBody(t *testing.T) {
	srv, _ := newService(t, http.StatusOK, "application/json", []byte(`{"message":"credits exhausted"}`))
	c := NewClient(srv.URL, "secret")
	_, err := c.Process(context.Background(), Request{Data: pngData})
	require.Error(t, err)
	assert.Equal(t, "credits exhausted", err.Error())
}

func TestValidationBeforeDispatch(t *testing.T) {
	srv, got := newService(t, http.StatusOK, "image/png", pngData)

	_, err := NewClient(srv.URL, "").Process(context.Background(), Request{Data: pngData})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewClient(srv.URL, "secret").Process(context.Background(), Request{Data: []byte("plain text")})
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Empty(t, got.path)
}

func TestUnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()
	_, err := NewClient(url, "secret").Process(context.Background(), Request{Data: pngData})
	assert.Equal(t, apperrors.KindTransport, apperrors.KindOf(err))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeRemove, m)
	m, err = ParseMode("Replace")
	require.NoError(t, err)
	assert.Equal(t, ModeChange, m)
	_, err = ParseMode("blur")
	assert.Error(t, err)
}
