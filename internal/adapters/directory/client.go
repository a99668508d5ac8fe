package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"care-access/internal/platform/httpclient"
	"care-access/internal/ports/directory"
)

var (
	ErrNotConfigured = errors.New("directory client not configured")
	ErrUpstream      = errors.New("directory upstream error")
)

// Config del cliente del directorio de usuarios.
// BaseURL y APIKey normalmente vienen de env vars en quien lo instancia.
type Config struct {
	BaseURL string
	APIKey  string

	// Opcional: header de la API key. Vacío => "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

// Client resuelve perfiles (nombre/email) contra el directorio de la
// plataforma. Solo metadata de display: si el directorio no está o falla,
// el caller sigue sin ella.
type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewClient(cfg Config) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}

	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

// Lookup implementa directory.Resolver.
func (c *Client) Lookup(ctx context.Context, accessorType, accessorID string) (directory.Profile, error) {
	if !c.IsConfigured() {
		return directory.Profile{}, ErrNotConfigured
	}

	accessorType = strings.TrimSpace(accessorType)
	accessorID = strings.TrimSpace(accessorID)
	if accessorType == "" || accessorID == "" {
		return directory.Profile{}, ErrUpstream
	}

	var out struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	path := fmt.Sprintf("/v1/users/%s/%s", accessorType, accessorID)
	err := c.http.DoJSON(ctx, http.MethodGet, path, map[string]string{
		c.apiKeyHeader: c.apiKey,
	}, nil, &out)
	if err != nil {
		return directory.Profile{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return directory.Profile{
		Name:  strings.TrimSpace(out.Name),
		Email: strings.TrimSpace(out.Email),
	}, nil
}
