package staffservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// RoleProvider роль сотрудника, оказывающего услуги
const RoleProvider = "provider"

// Client клиент справочника сотрудников
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента справочника сотрудников
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetProvider получает сотрудника по ID
func (c *Client) GetProvider(ctx context.Context, providerID int64) (*Provider, error) {
	endpoint := fmt.Sprintf("%s/internal/providers/%d", c.baseURL, providerID)

	var provider Provider
	if err := c.get(ctx, endpoint, &provider); err != nil {
		return nil, err
	}
	return &provider, nil
}

// IsActiveProvider проверяет, что сотрудник существует, активен и оказывает услуги
func (c *Client) IsActiveProvider(ctx context.Context, providerID int64) (bool, error) {
	provider, err := c.GetProvider(ctx, providerID)
	if err != nil {
		if err == ErrProviderNotFound {
			return false, nil
		}
		return false, err
	}
	return provider.Active && provider.Role == RoleProvider, nil
}

// ListProvidersWithRole возвращает ID активных сотрудников с ролью мастера
func (c *Client) ListProvidersWithRole(ctx context.Context) ([]int64, error) {
	query := url.Values{}
	query.Set("role", RoleProvider)
	query.Set("active", "true")
	endpoint := fmt.Sprintf("%s/internal/providers?%s", c.baseURL, query.Encode())

	var providers []Provider
	if err := c.get(ctx, endpoint, &providers); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(providers))
	for _, p := range providers {
		if p.Active {
			ids = append(ids, p.ID)
		}
	}
	c.log.Info("Staff directory returned %d active providers", len(ids))
	return ids, nil
}

func (c *Client) get(ctx context.Context, endpoint string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrProviderNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}
	return nil
}
