// Package registry provides an HTTP client for the fleet service registry.
//
// The registry answers:
//
//	GET    {base}/registry          -> [{name, url}, ...]
//	GET    {base}/registry/{name}   -> {name, url} or 404
//	POST   {base}/registry          <- {name, url}
//	DELETE {base}/registry/{name}
package registry

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

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/model"
)

var (
	// ErrServiceNotFound indicates the registry has no entry for the name.
	ErrServiceNotFound = errors.New("service not registered")

	// ErrRegistryUnavailable indicates the registry could not be reached or
	// answered with an unexpected status.
	ErrRegistryUnavailable = errors.New("registry unavailable")
)

// maxErrorBody caps how much of an error response is echoed into errors.
const maxErrorBody = 512

// Client talks to the service registry.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the registry at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient creates a Client using hc for transport.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

// ListServices returns every registered service.
func (c *Client) ListServices(ctx context.Context) ([]model.ServiceDescriptor, error) {
	resp, err := c.do(ctx, http.MethodGet, "/registry", nil)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list services: %w: HTTP %d: %s", ErrRegistryUnavailable, resp.StatusCode, errorBody(resp.Body))
	}

	var services []model.ServiceDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&services); err != nil {
		return nil, fmt.Errorf("list services: %w: decode: %v", ErrRegistryUnavailable, err)
	}
	if services == nil {
		services = []model.ServiceDescriptor{}
	}
	return services, nil
}

// GetService returns the registry entry for name.
func (c *Client) GetService(ctx context.Context, name string) (*model.ServiceDescriptor, error) {
	resp, err := c.do(ctx, http.MethodGet, "/registry/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, fmt.Errorf("get service %q: %w", name, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("get service %q: %w", name, ErrServiceNotFound)
	default:
		return nil, fmt.Errorf("get service %q: %w: HTTP %d: %s", name, ErrRegistryUnavailable, resp.StatusCode, errorBody(resp.Body))
	}

	var service model.ServiceDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&service); err != nil {
		return nil, fmt.Errorf("get service %q: %w: decode: %v", name, ErrRegistryUnavailable, err)
	}
	if service.URL == "" {
		return nil, fmt.Errorf("get service %q: %w", name, ErrServiceNotFound)
	}
	return &service, nil
}

// Register announces a service to the registry.
func (c *Client) Register(ctx context.Context, service model.ServiceDescriptor) error {
	body, err := json.Marshal(service)
	if err != nil {
		return fmt.Errorf("register %q: %w", service.Name, err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/registry", body)
	if err != nil {
		return fmt.Errorf("register %q: %w", service.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("register %q: %w: HTTP %d: %s", service.Name, ErrRegistryUnavailable, resp.StatusCode, errorBody(resp.Body))
	}
	return nil
}

// Unregister removes a service from the registry. Removing an unknown
// service is not an error.
func (c *Client) Unregister(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/registry/"+url.PathEscape(name), nil)
	if err != nil {
		return fmt.Errorf("unregister %q: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unregister %q: %w: HTTP %d: %s", name, ErrRegistryUnavailable, resp.StatusCode, errorBody(resp.Body))
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	return resp, nil
}

func errorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(data))
}
