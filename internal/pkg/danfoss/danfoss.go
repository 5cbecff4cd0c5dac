package danfoss

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/danfoss-alerts/internal/pkg/contxt"
	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
	"github.com/anicoll/danfoss-alerts/internal/pkg/secrets"
)

const devicesPath = "/ally/devices"

// Client reads devices from the Danfoss Ally API.
type Client struct {
	baseURL              string
	accessTokenParamName string
	secrets              secrets.Reader
	httpClient           *http.Client
	timeout              time.Duration
	logger               *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = d
	}
}

func New(baseURL, accessTokenParamName string, store secrets.Reader, opts ...Option) *Client {
	c := &Client{
		baseURL:              strings.TrimRight(baseURL, "/"),
		accessTokenParamName: accessTokenParamName,
		secrets:              store,
		httpClient:           http.DefaultClient,
		timeout:              contxt.RequestTimeout,
		logger:               zap.L(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// AccessToken reads the bearer token from the secret store.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	value, err := c.secrets.Get(ctx, c.accessTokenParamName, true)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuth, err)
	}
	if value == "" {
		return "", fmt.Errorf("%w: parameter %s is empty", ErrAuth, c.accessTokenParamName)
	}
	var tokenData model.AccessTokenSecret
	if err := json.Unmarshal([]byte(value), &tokenData); err != nil {
		return "", fmt.Errorf("%w: parameter %s is not valid JSON: %w", ErrAuth, c.accessTokenParamName, err)
	}
	if tokenData.AccessToken == "" {
		return "", fmt.Errorf("%w: no access_token found in parameter", ErrAuth)
	}
	return tokenData.AccessToken, nil
}

// GetDevices returns every device, dropping those whose name contains
// excludeNamePattern when it is not empty.
func (c *Client) GetDevices(ctx context.Context, excludeNamePattern string) ([]model.Device, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	devices, err := c.GetDevicesWithToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if excludeNamePattern == "" {
		return devices, nil
	}
	return FilterDevices(devices, excludeNamePattern), nil
}

func (c *Client) GetDevicesWithToken(ctx context.Context, accessToken string) ([]model.Device, error) {
	ctx, cancel := contxt.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+devicesPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get devices: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read devices response: %w", err)
	}

	if res.StatusCode == http.StatusUnauthorized {
		return nil, ErrTokenExpired
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &RegistryError{StatusCode: res.StatusCode, Body: string(body)}
	}

	var data model.DevicesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &RegistryError{StatusCode: res.StatusCode, Body: "malformed response: " + err.Error()}
	}
	if data.Result == nil {
		return []model.Device{}, nil
	}
	c.logger.Debug("fetched devices", zap.Int("count", len(data.Result)))
	return data.Result, nil
}

// FilterDevices drops devices whose name contains pattern (case-sensitive).
func FilterDevices(devices []model.Device, pattern string) []model.Device {
	return lo.Reject(devices, func(d model.Device, _ int) bool {
		return strings.Contains(d.Name, pattern)
	})
}
