package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUserNotFound is returned when the provider has no user for a subject id.
var ErrUserNotFound = errors.New("identity user not found")

// Client talks to the identity provider's management API with a privileged
// secret key. It is used to fetch the current identity and to mirror the
// resolved application role back into the provider metadata bag.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewClient creates a management API client.
func NewClient(baseURL, secretKey string) (*Client, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if secretKey == "" {
		return nil, errors.New("secret key is required")
	}

	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// GetUser fetches the identity for a subject id.
func (c *Client) GetUser(ctx context.Context, subjectID string) (*Identity, error) {
	if subjectID == "" {
		return nil, errors.New("subject id is required")
	}

	resp, err := c.do(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(subjectID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrUserNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("identity API returned status %d", resp.StatusCode)
	}

	var payload userPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode identity user: %w", err)
	}

	return payload.toIdentity(), nil
}

// WriteRoleMetadata writes the resolved role into the identity's public
// metadata bag. Callers treat failures as best-effort: the application row is
// the durable source for authorization, the metadata copy is a read-side
// mirror for route gating.
func (c *Client) WriteRoleMetadata(ctx context.Context, subjectID, role string) error {
	if subjectID == "" {
		return errors.New("subject id is required")
	}

	body := map[string]any{
		"public_metadata": map[string]string{"role": role},
	}

	resp, err := c.do(ctx, http.MethodPatch, "/v1/users/"+url.PathEscape(subjectID)+"/metadata", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("identity API returned status %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity API request failed: %w", err)
	}

	return resp, nil
}
