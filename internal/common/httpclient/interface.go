package httpclient

import "context"

// HTTPClientInterface is the request surface the resource operations depend on.
type HTTPClientInterface interface {
	DoRequest(ctx context.Context, opts RequestOptions) (*Response, error)
	CreateResource(ctx context.Context, resourcePath string, data []byte) ([]byte, error)
	ListResources(ctx context.Context, resourcePath string, queryParams map[string]string) ([]byte, error)
	UpdateResource(ctx context.Context, resourcePath, resourceName string, data []byte) ([]byte, error)
	DeleteResource(ctx context.Context, resourcePath, resourceName string) error
	Upload(ctx context.Context, resourcePath string, fields []FormField, file MultipartFile) (*Response, error)
}

var _ HTTPClientInterface = &HTTPClient{}
