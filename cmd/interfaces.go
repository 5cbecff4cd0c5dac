package cmd

import (
	"context"

	"github.com/anicoll/danfoss-alerts/internal/pkg/alert"
	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
)

// CheckRunner is what the check command and schedule expect from alert.Service.
type CheckRunner interface {
	Run(ctx context.Context) (alert.Result, error)
}

// TokenRotator is what the rotate command and schedule expect from rotation.Rotator.
type TokenRotator interface {
	Rotate(ctx context.Context) (model.AccessTokenSecret, error)
}

// WebhookProcessor turns a raw webhook body into a status code and JSON reply.
type WebhookProcessor interface {
	Process(ctx context.Context, body []byte, secretToken string) (int, []byte)
}
