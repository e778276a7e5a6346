package publish

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/blogger/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"BlogMigrator/internal/domain"
	"BlogMigrator/internal/ports"
)

// APITransport creates posts through the Blogger v3 API.
type APITransport struct {
	service *blogger.Service
}

var _ Transport = (*APITransport)(nil)

// NewAPITransport authenticates with an API key. An empty endpoint keeps the
// public Blogger base path.
func NewAPITransport(ctx context.Context, apiKey, endpoint string) (*APITransport, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	service, err := blogger.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: blogger client: %v", domain.ErrTransport, err)
	}
	return &APITransport{service: service}, nil
}

// Deliver inserts the post and returns its canonical URL.
func (t *APITransport) Deliver(ctx context.Context, cfg domain.PublishConfig, req ports.PublishRequest) (string, error) {
	post := &blogger.Post{
		Title:   req.Title,
		Content: req.Content,
		Labels:  req.Labels,
	}
	created, err := t.service.Posts.Insert(cfg.BlogID, post).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return "", fmt.Errorf("%w: blogger api error: %s", domain.ErrTransport, apiErr.Message)
		}
		return "", fmt.Errorf("%w: blogger api: %v", domain.ErrTransport, err)
	}
	return created.Url, nil
}
