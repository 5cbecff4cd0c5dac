package model

type StatusCode string

func (sc StatusCode) String() string {
	return string(sc)
}

const (
	MeasuredValue StatusCode = "MeasuredValue" // floor sensor, tenths of °C
	TempCurrent   StatusCode = "temp_current"  // room thermostat, tenths of °C
)

// AccessTokenSecret is the JSON stored under the access-token parameter.
type AccessTokenSecret struct {
	AccessToken    string `json:"access_token"`
	TokenExpiresAt *int64 `json:"token_expires_at,omitempty"`
}

// Credentials is the JSON stored under the client-credentials parameter.
type Credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	TokenURL     string `json:"token_url"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   *int64 `json:"expires_in,omitempty"`
}
