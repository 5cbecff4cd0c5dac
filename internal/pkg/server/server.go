package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/anicoll/danfoss-alerts/internal/pkg/telegram"
)

// SecretTokenHeader carries the secret configured with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

var errForbidden = errors.New("invalid webhook secret token")

type updateHandler interface {
	HandleUpdate(ctx context.Context, update telegram.Update) error
}

type server struct {
	bot           updateHandler
	webhookSecret string
	logger        *zap.Logger
}

func New(bot updateHandler, webhookSecret string) *server {
	return &server{bot: bot, webhookSecret: webhookSecret, logger: zap.L()}
}

func (s *server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", s.PostWebhook)
	return LoggingMiddleware(mux)
}

func (s *server) PostWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody(err))
		return
	}
	status, resp := s.Process(r.Context(), body, r.Header.Get(SecretTokenHeader))
	writeJSON(w, status, resp)
}

// Process handles one raw webhook body and returns the status code and JSON
// reply. It backs both the HTTP server and the Lambda handler.
func (s *server) Process(ctx context.Context, body []byte, secretToken string) (int, []byte) {
	if s.webhookSecret != "" && subtle.ConstantTimeCompare([]byte(secretToken), []byte(s.webhookSecret)) != 1 {
		s.logger.Warn("rejected webhook", zap.Error(errForbidden))
		return http.StatusForbidden, errorBody(errForbidden)
	}

	update := telegram.Update{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &update); err != nil {
			s.logger.Error("error processing webhook", zap.Error(err))
			return http.StatusInternalServerError, errorBody(fmt.Errorf("invalid update: %w", err))
		}
	}

	if err := s.bot.HandleUpdate(ctx, update); err != nil {
		s.logger.Error("error processing webhook", zap.Error(err))
		return http.StatusInternalServerError, errorBody(err)
	}
	return http.StatusOK, []byte(`{"ok":true}`)
}

func errorBody(err error) []byte {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return b
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
