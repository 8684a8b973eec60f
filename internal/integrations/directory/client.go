package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент справочника ресурсов и пользователей
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента справочника
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetResource получает активный ресурс арендатора
func (c *Client) GetResource(ctx context.Context, tenantID, resourceID int64) (*Resource, error) {
	url := fmt.Sprintf("%s/internal/resources/%d", c.baseURL, resourceID)

	var resource Resource
	if err := c.get(ctx, url, tenantID, ErrResourceNotFound, &resource); err != nil {
		return nil, err
	}
	if !resource.Active {
		c.log.Warn("Directory: resource id=%d is inactive", resourceID)
		return nil, ErrResourceNotFound
	}

	return &resource, nil
}

// GetUser получает активного пользователя арендатора
func (c *Client) GetUser(ctx context.Context, tenantID, userID int64) (*User, error) {
	url := fmt.Sprintf("%s/internal/users/%d", c.baseURL, userID)

	var user User
	if err := c.get(ctx, url, tenantID, ErrUserNotFound, &user); err != nil {
		return nil, err
	}
	if !user.Active {
		c.log.Warn("Directory: user id=%d is inactive", userID)
		return nil, ErrUserNotFound
	}

	return &user, nil
}

func (c *Client) get(ctx context.Context, url string, tenantID int64, notFound error, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", strconv.FormatInt(tenantID, 10))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %w", ErrInternal, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusNotFound:
		return notFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", ErrInvalidResponse, err)
	}

	return nil
}

// AllowAll справочник, считающий любой ресурс и пользователя существующими
// Используется, когда интеграция со справочником отключена
type AllowAll struct{}

// GetResource возвращает активный ресурс с запрошенным ID
func (AllowAll) GetResource(_ context.Context, tenantID, resourceID int64) (*Resource, error) {
	return &Resource{ID: resourceID, TenantID: tenantID, Active: true}, nil
}

// GetUser возвращает активного пользователя с запрошенным ID
func (AllowAll) GetUser(_ context.Context, tenantID, userID int64) (*User, error) {
	return &User{ID: userID, TenantID: tenantID, Active: true}, nil
}
