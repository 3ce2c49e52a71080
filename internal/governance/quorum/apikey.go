package quorum

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// APIKeyPrefix marks keys minted for approved clients.
const APIKeyPrefix = "gov_"

const apiKeyEntropyBytes = 32

// KeyGenerator mints API keys. Swapped in tests for deterministic keys.
type KeyGenerator func() (string, error)

// GenerateAPIKey returns "gov_" followed by 32 random bytes, URL-safe encoded.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, apiKeyEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return APIKeyPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}
