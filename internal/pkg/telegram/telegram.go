package telegram

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

	"go.uber.org/zap"

	"github.com/anicoll/danfoss-alerts/internal/pkg/contxt"
)

// APIError is an HTTP failure or an ok:false reply from the Bot API.
type APIError struct {
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error: %d - %s", e.StatusCode, e.Description)
}

// IsChatNotFound reports whether err means the chat never started the bot.
func IsChatNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.Contains(apiErr.Description, "chat not found")
}

// Client talks to the Telegram Bot API for a single bot token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
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

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: http.DefaultClient,
		timeout:    contxt.RequestTimeout,
		logger:     zap.L(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error) {
	var msg Message
	if err := c.call(ctx, "sendMessage", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) call(ctx context.Context, method string, payload, out any) error {
	ctx, cancel := contxt.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		// the url carries the token, keep it out of the error
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return fmt.Errorf("telegram %s: %w", method, urlErr.Err)
		}
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read telegram %s response: %w", method, err)
	}

	envelope := apiResponse[json.RawMessage]{}
	if err := json.Unmarshal(data, &envelope); err != nil {
		if res.StatusCode < 200 || res.StatusCode > 299 {
			return &APIError{StatusCode: res.StatusCode, Description: string(data)}
		}
		return fmt.Errorf("decode telegram %s response: %w", method, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 || !envelope.Ok {
		return &APIError{StatusCode: res.StatusCode, Description: envelope.Description}
	}
	if out == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		c.logger.Debug("unexpected telegram result", zap.String("method", method), zap.Error(err))
	}
	return nil
}
