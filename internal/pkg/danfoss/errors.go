package danfoss

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth means the stored access token is missing or malformed.
	ErrAuth = errors.New("danfoss access token unavailable")
	// ErrTokenExpired is returned on HTTP 401; the token needs rotating.
	ErrTokenExpired = errors.New("unauthorized - access token may be expired, check token rotation")
)

// RegistryError is a non-401 failure from the device registry.
type RegistryError struct {
	StatusCode int
	Body       string
}

func (e *RegistryError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("failed to get devices: %s", e.Body)
	}
	return fmt.Sprintf("failed to get devices: %d - %s", e.StatusCode, e.Body)
}
