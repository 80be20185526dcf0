package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups your app’s secrets in the OS keychain.
	KeyringService = "leadparser"

	placesAccount = "places-api-key"
	placesEnvVar  = "PLACES_API_KEY"
)

// GetPlacesAPIKey resolves the places API key: keychain first, then the
// environment. Returns an error when neither has one.
func GetPlacesAPIKey() (string, error) {
	// 1) Keyring first (recommended)
	key, err := keyring.Get(KeyringService, placesAccount)
	if err == nil && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key), nil
	}

	// 2) Env fallback
	if v := strings.TrimSpace(os.Getenv(placesEnvVar)); v != "" {
		return v, nil
	}

	return "", errors.New("places API key not found (set it in keychain or via " + placesEnvVar + ")")
}

func SetPlacesAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("API key is empty")
	}
	return keyring.Set(KeyringService, placesAccount, key)
}

func DeletePlacesAPIKey() error {
	return keyring.Delete(KeyringService, placesAccount)
}
