// Package httpx holds the response helpers shared by the web shell's
// handlers: error responses, JSON and binary bodies, and upload parsing.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/smartapp/smartapp/internal/common/logtrace"
)

// ErrNoUpload is returned by ReadUpload when the form carries no file.
var ErrNoUpload = errors.New("no file uploaded")

// SendJsonRsp writes msg as JSON. Strings and byte slices holding valid JSON
// are written as is.
func SendJsonRsp(ctx context.Context, w http.ResponseWriter, statusCode int, msg any) {
	var b []byte
	switch v := msg.(type) {
	case string:
		if json.Valid([]byte(v)) {
			b = []byte(v)
		}
	case []byte:
		if json.Valid(v) {
			b = v
		}
	default:
		var err error
		b, err = json.Marshal(msg)
		if err != nil {
			log.Ctx(ctx).Err(err).Msg("unable to marshal json")
			http.Error(w, "Id: "+logtrace.RequestIDFromContext(ctx), http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(b)
}

// SendBlob writes data with the given content type. A non-empty fileName
// makes the browser offer it as a download.
func SendBlob(w http.ResponseWriter, contentType, fileName string, data []byte) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if fileName != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Upload is a file read from a multipart form.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ReadUpload parses a multipart form of at most limit bytes and returns the
// file in field. Other form values stay available through r.FormValue.
func ReadUpload(r *http.Request, field string, limit int64) (*Upload, error) {
	if err := r.ParseMultipartForm(limit); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, ErrRequestTooLarge(mbe.Limit)
		}
		return nil, ErrInvalidRequest(fmt.Sprintf("unable to read form: %v", err))
	}
	f, hdr, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, ErrNoUpload
		}
		return nil, ErrInvalidRequest(err.Error())
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, FromError(err)
	}
	if len(data) == 0 {
		return nil, ErrNoUpload
	}
	return &Upload{
		FileName:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
