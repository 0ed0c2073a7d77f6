package project

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/gestionsaas/identity/pkg/errx"
)

// APIKeyPrefix marks broker-issued project API keys.
const APIKeyPrefix = "pk_"

const apiKeyRandomBytes = 32

// GenerateAPIKey returns a new random API key and its storage hash. The
// plaintext key is shown to the caller once and never persisted.
func GenerateAPIKey() (key string, hash string, err error) {
	buf := make([]byte, apiKeyRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", errx.Wrap(err, "failed to generate API key", errx.TypeInternal)
	}
	key = APIKeyPrefix + base64.RawURLEncoding.EncodeToString(buf)
	return key, HashAPIKey(key), nil
}

// HashAPIKey returns the SHA-256 hex digest used to store and look up API
// keys. Lookup by digest gives constant-time matching without a plaintext
// comparison.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ValidateAPIKeyFormat cheaply rejects strings that cannot be broker keys
// before any store access.
func ValidateAPIKeyFormat(key string) bool {
	if !strings.HasPrefix(key, APIKeyPrefix) {
		return false
	}
	return len(key) == len(APIKeyPrefix)+base64.RawURLEncoding.EncodedLen(apiKeyRandomBytes)
}

// GenerateClientID returns a new OAuth2 client identifier.
func GenerateClientID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", errx.Wrap(err, "failed to generate client id", errx.TypeInternal)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateClientSecret returns a new OAuth2 client secret.
func GenerateClientSecret() (string, error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return "", errx.Wrap(err, "failed to generate client secret", errx.TypeInternal)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateJWTSecret returns a new per-project HMAC signing secret.
func GenerateJWTSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errx.Wrap(err, "failed to generate jwt secret", errx.TypeInternal)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
