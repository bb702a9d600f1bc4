package httpclient

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// FormField is a plain multipart form value.
type FormField struct {
	Name  string
	Value string
}

// MultipartFile is the file part of a multipart upload.
type MultipartFile struct {
	Field       string // form field name
	FileName    string
	ContentType string // defaults to application/octet-stream
	Data        []byte
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// EncodeMultipart builds a multipart/form-data body. It returns the body and
// the Content-Type header value including the boundary.
func EncodeMultipart(fields []FormField, file MultipartFile) ([]byte, string, error) {
	if file.Field == "" {
		return nil, "", fmt.Errorf("multipart file field name is required")
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	ct := file.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(file.Field), quoteEscaper.Replace(file.FileName)))
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("creating file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("writing file part: %w", err)
	}

	for _, f := range fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
