package cmd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/anicoll/danfoss-alerts/internal/pkg/server"
)

type checkResponseBody struct {
	Message               string `json:"message"`
	DevicesChecked        int    `json:"devices_checked"`
	DevicesAboveThreshold int    `json:"devices_above_threshold"`
}

type rotateResponseBody struct {
	Message   string `json:"message"`
	ExpiresAt int64  `json:"expires_at"`
}

func jsonResponse(status int, body any) (events.APIGatewayProxyResponse, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	}, nil
}

// checkHandler runs one check per scheduled invocation. Errors fail the invocation.
func checkHandler(svc CheckRunner) func(ctx context.Context) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context) (events.APIGatewayProxyResponse, error) {
		res, err := svc.Run(ctx)
		if err != nil {
			return events.APIGatewayProxyResponse{}, err
		}
		return jsonResponse(http.StatusOK, checkResponseBody{
			Message:               "Temperature check completed",
			DevicesChecked:        res.DevicesChecked,
			DevicesAboveThreshold: res.DevicesAboveThreshold,
		})
	}
}

func rotateHandler(r TokenRotator) func(ctx context.Context) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context) (events.APIGatewayProxyResponse, error) {
		secret, err := r.Rotate(ctx)
		if err != nil {
			return events.APIGatewayProxyResponse{}, err
		}
		body := rotateResponseBody{Message: "Token rotated successfully"}
		if secret.TokenExpiresAt != nil {
			body.ExpiresAt = *secret.TokenExpiresAt
		}
		return jsonResponse(http.StatusOK, body)
	}
}

// lazyProcessor builds the webhook processor on first use. A failed build is
// retried on the next request.
type lazyProcessor struct {
	mu        sync.Mutex
	build     func(ctx context.Context) (WebhookProcessor, error)
	processor WebhookProcessor
}

func (l *lazyProcessor) get(ctx context.Context) (WebhookProcessor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.processor != nil {
		return l.processor, nil
	}
	p, err := l.build(ctx)
	if err != nil {
		return nil, err
	}
	l.processor = p
	return p, nil
}

// botHandler serves webhook calls proxied by API Gateway.
func botHandler(build func(ctx context.Context) (WebhookProcessor, error)) func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	lazy := &lazyProcessor{build: build}
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		p, err := lazy.get(ctx)
		if err != nil {
			zap.L().Error("error processing webhook", zap.Error(err))
			return jsonResponse(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		payload := []byte(req.Body)
		if req.IsBase64Encoded {
			if payload, err = base64.StdEncoding.DecodeString(req.Body); err != nil {
				return jsonResponse(http.StatusInternalServerError, map[string]string{"error": err.Error()})
			}
		}
		status, body := p.Process(ctx, payload, headerValue(req.Headers, server.SecretTokenHeader))
		return events.APIGatewayProxyResponse{
			StatusCode: status,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       string(body),
		}, nil
	}
}

// headerValue looks a header up case-insensitively; API Gateway does not
// canonicalise header names.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
