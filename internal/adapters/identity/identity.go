// Package identity talks to the hosted identity provider's admin API.
// Only user removal is implemented; everything else about the provider
// stays external.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/tally/pkg/logger"
)

const defaultTimeout = 10 * time.Second

// Client removes users from the identity provider using a privileged
// service key.
type Client struct {
	baseURL string
	key     string
	http    *http.Client
	log     logger.Logger
}

// New creates a Client for the provider admin API at baseURL.
func New(baseURL, key string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		key:     key,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     logger.Get().Named("identity"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DeleteIdentity removes the user from the provider. A user that is
// already gone counts as success.
func (c *Client) DeleteIdentity(ctx context.Context, userID string) error {
	endpoint := c.baseURL + "/admin/users/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		c.log.Debug(ctx, "identity removed",
			logger.String("user_id", userID), logger.Int("status", resp.StatusCode))
		return nil
	default:
		return fmt.Errorf("%w: provider returned %d", ErrDeleteFailed, resp.StatusCode)
	}
}
