package rotation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/anicoll/danfoss-alerts/internal/pkg/contxt"
	"github.com/anicoll/danfoss-alerts/internal/pkg/model"
	"github.com/anicoll/danfoss-alerts/internal/pkg/secrets"
)

// TokenLifetime is how long a freshly issued token is assumed to be valid.
// The expires_in returned by the token endpoint is not used.
const TokenLifetime = 60 * time.Minute

var ErrRotation = errors.New("failed to rotate access token")

type Rotator struct {
	store                secrets.Store
	credentialsParamName string
	accessTokenParamName string
	httpClient           *http.Client
	timeout              time.Duration
	now                  func() time.Time
	logger               *zap.Logger
}

func New(store secrets.Store, credentialsParamName, accessTokenParamName string) *Rotator {
	return &Rotator{
		store:                store,
		credentialsParamName: credentialsParamName,
		accessTokenParamName: accessTokenParamName,
		httpClient:           http.DefaultClient,
		timeout:              contxt.RequestTimeout,
		now:                  time.Now,
		logger:               zap.L(),
	}
}

// Rotate exchanges the stored client credentials for a new access token and
// overwrites the access-token secret. Nothing is written on failure.
func (r *Rotator) Rotate(ctx context.Context) (model.AccessTokenSecret, error) {
	creds, err := r.credentials(ctx)
	if err != nil {
		return model.AccessTokenSecret{}, err
	}

	token, err := r.requestToken(ctx, creds)
	if err != nil {
		return model.AccessTokenSecret{}, err
	}

	expiresAt := r.now().Add(TokenLifetime).Unix()
	secret := model.AccessTokenSecret{AccessToken: token, TokenExpiresAt: &expiresAt}
	value, err := json.Marshal(secret)
	if err != nil {
		return model.AccessTokenSecret{}, err
	}
	if err := r.store.Put(ctx, r.accessTokenParamName, string(value)); err != nil {
		return model.AccessTokenSecret{}, fmt.Errorf("store access token: %w", err)
	}

	fields := []zap.Field{zap.Int64("expires_at", expiresAt)}
	if exp, ok := jwtExpiry(token); ok {
		fields = append(fields, zap.Int64("jwt_exp", exp))
	}
	r.logger.Info("successfully rotated access token", fields...)
	return secret, nil
}

func (r *Rotator) credentials(ctx context.Context) (model.Credentials, error) {
	value, err := secrets.GetRequired(ctx, r.store, r.credentialsParamName)
	if err != nil {
		return model.Credentials{}, fmt.Errorf("%w: %w", ErrRotation, err)
	}
	var creds model.Credentials
	if err := json.Unmarshal([]byte(value), &creds); err != nil {
		return model.Credentials{}, fmt.Errorf("%w: credentials are not valid JSON: %w", ErrRotation, err)
	}
	if creds.ClientID == "" || creds.ClientSecret == "" || creds.TokenURL == "" {
		return model.Credentials{}, fmt.Errorf("%w: credentials must contain client_id, client_secret and token_url", ErrRotation)
	}
	return creds, nil
}

func (r *Rotator) requestToken(ctx context.Context, creds model.Credentials) (string, error) {
	ctx, cancel := contxt.WithTimeout(ctx, r.timeout)
	defer cancel()

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, creds.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRotation, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(creds.ClientID, creds.ClientSecret)

	res, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRotation, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRotation, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("%w: failed to get access token: %d - %s", ErrRotation, res.StatusCode, string(body))
	}

	var tokenData model.TokenResponse
	if err := json.Unmarshal(body, &tokenData); err != nil {
		return "", fmt.Errorf("%w: malformed token response: %w", ErrRotation, err)
	}
	if tokenData.AccessToken == "" {
		return "", fmt.Errorf("%w: no access_token in response: %s", ErrRotation, string(body))
	}
	if tokenData.ExpiresIn != nil {
		r.logger.Debug("token endpoint expiry ignored", zap.Int64("expires_in", *tokenData.ExpiresIn))
	}
	return tokenData.AccessToken, nil
}

// jwtExpiry reads the exp claim without verifying the signature.
func jwtExpiry(token string) (int64, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return 0, false
	}
	if claims.ExpiresAt == nil {
		return 0, false
	}
	return claims.ExpiresAt.Unix(), true
}
