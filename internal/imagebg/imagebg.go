// Package imagebg calls the third-party background processing service that
// removes an image's background or replaces it with a flat color. The service
// credential comes from configuration and is only used server-side.
package imagebg

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/h2non/filetype"
	"github.com/rs/zerolog/log"

	"github.com/smartapp/smartapp/internal/common/apperrors"
	"github.com/smartapp/smartapp/internal/common/httpclient"
)

const (
	removePath = "/processor/image/remove-background/file"
	changePath = "/processor/image/change-background/file"

	imageField = "image"
	colorField = "background_color"
	tokenHdr   = "apy-token"

	// DefaultColor is used when Change is requested without a color.
	DefaultColor = "#ffffff"
)

var (
	ErrImageService  = apperrors.New("image processing failed").SetKind(apperrors.KindProcessing).SetStatusCode(http.StatusBadGateway)
	ErrNotConfigured = ErrImageService.New("image service token is not configured")
	ErrInvalidImage  = apperrors.New("please upload a valid image file").SetKind(apperrors.KindValidation).SetStatusCode(http.StatusBadRequest)
	ErrInvalidColor  = ErrInvalidImage.New("background color must look like #rrggbb")
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Mode selects the operation.
type Mode string

const (
	ModeRemove Mode = "remove"
	ModeChange Mode = "change"
)

// ParseMode accepts "remove" and "change" (also "replace").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "remove":
		return ModeRemove, nil
	case "change", "replace":
		return ModeChange, nil
	}
	return "", fmt.Errorf("unknown background mode %q", s)
}

// Request describes one image to process.
type Request struct {
	Mode     Mode
	FileName string
	Data     []byte
	Color    string // #rrggbb, ModeChange only
}

// Result is the processed image.
type Result struct {
	Data        []byte
	ContentType string
}

type source struct{ url string }

func (s source) ServerURL() string { return s.url }
func (s source) Token() string     { return "" }

// Client talks to the background processing service.
type Client struct {
	http       *httpclient.HTTPClient
	configured bool
}

// NewClient creates a client for the service at baseURL authenticated with token.
func NewClient(baseURL, token string, opts ...httpclient.Option) *Client {
	opts = append([]httpclient.Option{httpclient.WithHeader(tokenHdr, token)}, opts...)
	return &Client{
		http:       httpclient.NewClient(source{url: strings.TrimRight(baseURL, "/")}, opts...),
		configured: token != "",
	}
}

// Configured reports whether a service token is available.
func (c *Client) Configured() bool {
	return c.configured
}

// ValidateImage checks that data sniffs as an image and returns its MIME type.
func ValidateImage(data []byte) (string, error) {
	if len(data) == 0 || !filetype.IsImage(data) {
		return "", ErrInvalidImage
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return "", ErrInvalidImage.Err(err)
	}
	return kind.MIME.Value, nil
}

// Process sends the image to the service and returns the processed image.
func (c *Client) Process(ctx context.Context, req Request) (*Result, error) {
	if !c.configured {
		return nil, ErrNotConfigured
	}
	mimeType, err := ValidateImage(req.Data)
	if err != nil {
		return nil, err
	}

	endpoint := removePath
	var fields []httpclient.FormField
	if req.Mode == ModeChange {
		color := req.Color
		if color == "" {
			color = DefaultColor
		}
		if !colorPattern.MatchString(color) {
			return nil, ErrInvalidColor
		}
		endpoint = changePath
		fields = append(fields, httpclient.FormField{Name: colorField, Value: color})
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = "image"
	}

	log.Ctx(ctx).Info().Str("mode", string(req.Mode)).Str("file", fileName).Int("bytes", len(req.Data)).Msg("processing image")

	body, contentType, err := httpclient.EncodeMultipart(fields, httpclient.MultipartFile{
		Field:       imageField,
		FileName:    fileName,
		ContentType: mimeType,
		Data:        req.Data,
	})
	if err != nil {
		return nil, err
	}
	rsp, err := c.http.DoRequest(ctx, httpclient.RequestOptions{
		Method: http.MethodPost,
		Path:   endpoint,
		Body:   body,
		Headers: map[string]string{
			"Content-Type": contentType,
			"Accept":       "image/*, application/json",
		},
	})
	if err != nil {
		return nil, processingError(err)
	}

	// Some failures arrive as 200 with a JSON body instead of an image.
	if !filetype.IsImage(rsp.Body) {
		msg := httpclient.ServerMessage(rsp.Body)
		if msg == "" {
			msg = "service returned no image"
		}
		return nil, ErrImageService.New(msg)
	}

	ct := rsp.ContentType()
	if !strings.HasPrefix(ct, "image/") {
		kind, _ := filetype.Match(rsp.Body)
		ct = kind.MIME.Value
	}
	return &Result{Data: rsp.Body, ContentType: ct}, nil
}

// processingError recovers the service's message from an error response,
// whose body is decoded as text (and JSON when possible) by the client core.
func processingError(err error) error {
	if httpclient.IsTransport(err) {
		return ErrImageService.MsgErr("image service unreachable", err).SetKind(apperrors.KindTransport)
	}
	code := httpclient.StatusCode(err)
	msg := err.Error()
	if msg == "" {
		msg = http.StatusText(code)
	}
	return ErrImageService.New(msg).SetStatusCode(code)
}
