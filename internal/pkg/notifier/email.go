package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"github.com/anicoll/danfoss-alerts/internal/pkg/config"
	"github.com/anicoll/danfoss-alerts/internal/pkg/contxt"
	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
	"github.com/anicoll/danfoss-alerts/internal/pkg/secrets"
)

const (
	EmailChannel = "email"
	charset      = "UTF-8"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailNotifier sends one SES email per configured recipient.
type EmailNotifier struct {
	client          sesAPI
	secrets         secrets.Reader
	emailsParamName string
	greeting        string
	logger          *zap.Logger
}

func NewEmailNotifier(cfg aws.Config, store secrets.Reader, emailsParamName string) *EmailNotifier {
	return newEmailNotifier(ses.NewFromConfig(cfg), store, emailsParamName)
}

func newEmailNotifier(client sesAPI, store secrets.Reader, emailsParamName string) *EmailNotifier {
	return &EmailNotifier{
		client:          client,
		secrets:         store,
		emailsParamName: emailsParamName,
		greeting:        defaultGreetingName,
		logger:          zap.L(),
	}
}

func (e *EmailNotifier) Name() string {
	return EmailChannel
}

func (e *EmailNotifier) Recipients(ctx context.Context) ([]string, error) {
	value, err := secrets.GetRequired(ctx, e.secrets, e.emailsParamName)
	if err != nil {
		return nil, err
	}
	return secrets.ParseList(value), nil
}

func (e *EmailNotifier) Notify(ctx context.Context, devices []model.DeviceAboveThreshold, thresholdCelsius float64) (Tally, error) {
	recipients, err := e.Recipients(ctx)
	if err != nil {
		return Tally{}, err
	}
	if len(recipients) == 0 {
		return Tally{}, fmt.Errorf("%w: no recipients configured", config.ErrConfig)
	}

	sender := recipients[0]
	e.logger.Info("preparing email notifications",
		zap.String("sender", sender),
		zap.String("recipients", strings.Join(recipients, ", ")),
		zap.Int("devices", len(devices)),
	)

	data := alertData{Greeting: e.greeting, Threshold: thresholdCelsius, Devices: devices}
	subject, err := buildSubject(data)
	if err != nil {
		return Tally{}, err
	}
	text, err := buildBodyText(data)
	if err != nil {
		return Tally{}, err
	}
	html, err := buildBodyHTML(data)
	if err != nil {
		return Tally{}, err
	}

	message := &types.Message{
		Subject: &types.Content{Data: aws.String(subject), Charset: aws.String(charset)},
		Body: &types.Body{
			Text: &types.Content{Data: aws.String(text), Charset: aws.String(charset)},
			Html: &types.Content{Data: aws.String(html), Charset: aws.String(charset)},
		},
	}

	return deliver(e.logger, EmailChannel, recipients, func(recipient string) error {
		sendCtx, cancel := contxt.WithTimeout(ctx, contxt.RequestTimeout)
		defer cancel()

		out, err := e.client.SendEmail(sendCtx, &ses.SendEmailInput{
			Source:           aws.String(sender),
			Destination:      &types.Destination{ToAddresses: []string{recipient}},
			ReplyToAddresses: []string{sender},
			Message:          message,
		})
		if err != nil {
			return err
		}
		e.logger.Info("sent email notification",
			zap.String("recipient", recipient),
			zap.String("message_id", aws.ToString(out.MessageId)),
		)
		return nil
	}), nil
}
