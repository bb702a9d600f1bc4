// Package api provides the resource operations of the student-management
// backend. Each operation issues exactly one HTTP call through the configured
// client core, which attaches the session's bearer token.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/h2non/filetype"
	"github.com/tidwall/gjson"

	"github.com/smartapp/smartapp/internal/common/httpclient"
)

const (
	loginPath    = "/login"
	registerPath = "/register"
	aadhaarPath  = "/extract-aadhaar"
	studentsPath = "/students"
	wakePath     = "/"

	aadhaarFileField = "file"
)

// Client exposes the backend operations.
type Client struct {
	http httpclient.HTTPClientInterface
}

// NewClient wraps an already configured client core.
func NewClient(c httpclient.HTTPClientInterface) *Client {
	return &Client{http: c}
}

// New configures a client core for src and wraps it.
func New(src httpclient.TokenSource, opts ...httpclient.Option) *Client {
	return NewClient(httpclient.NewClient(src, opts...))
}

// Login exchanges credentials for an access token. It does not store the
// token; callers hand it to the session.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, err
	}
	rsp, err := c.http.CreateResource(ctx, loginPath, body)
	if err != nil {
		return nil, err
	}
	var lr LoginResponse
	if err := json.Unmarshal(rsp, &lr); err != nil {
		return nil, ErrMalformedResponse.MsgErr("unable to parse login response", err)
	}
	if lr.AccessToken == "" {
		return nil, ErrMalformedResponse.Msg("login response carries no access token")
	}
	return &lr, nil
}

// Register creates an account and returns the server's message, if any.
func (c *Client) Register(ctx context.Context, creds Credentials) (string, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return "", err
	}
	rsp, err := c.http.CreateResource(ctx, registerPath, body)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(rsp, "message").String(), nil
}

// ExtractAadhaar uploads an identity card image and returns the fields the
// OCR service found.
func (c *Client) ExtractAadhaar(ctx context.Context, fileName string, data []byte) (*ExtractionResult, error) {
	if len(data) == 0 {
		return nil, ErrNoFile
	}
	kind, _ := filetype.Match(data)
	if !filetype.IsImage(data) {
		return nil, ErrNotAnImage.New(fmt.Sprintf("%s is not an image", fileName))
	}
	rsp, err := c.http.Upload(ctx, aadhaarPath, nil, httpclient.MultipartFile{
		Field:       aadhaarFileField,
		FileName:    fileName,
		ContentType: kind.MIME.Value,
		Data:        data,
	})
	if err != nil {
		return nil, err
	}
	var res ExtractionResult
	if err := json.Unmarshal(rsp.Body, &res); err != nil {
		return nil, ErrMalformedResponse.MsgErr("unable to parse extraction result", err)
	}
	return &res, nil
}

// ListStudents returns all students with identifiers normalized.
func (c *Client) ListStudents(ctx context.Context) ([]Student, error) {
	rsp, err := c.http.ListResources(ctx, studentsPath, nil)
	if err != nil {
		return nil, err
	}
	return decodeStudents(ctx, rsp)
}

// AddStudent creates a student record.
func (c *Client) AddStudent(ctx context.Context, in StudentInput) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	_, err = c.http.CreateResource(ctx, studentsPath, body)
	return err
}

// UpdateStudent replaces the fields of the student identified by id.
func (c *Client) UpdateStudent(ctx context.Context, id string, in StudentInput) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	_, err = c.http.UpdateResource(ctx, studentsPath, id, body)
	return err
}

// DeleteStudent removes the student identified by id.
func (c *Client) DeleteStudent(ctx context.Context, id string) error {
	return c.http.DeleteResource(ctx, studentsPath, id)
}

// WakeServer pings the backend root so a cold-starting host begins booting.
// Callers ignore the error.
func (c *Client) WakeServer(ctx context.Context) error {
	_, err := c.http.DoRequest(ctx, httpclient.RequestOptions{
		Method: http.MethodGet,
		Path:   wakePath,
	})
	return err
}
