package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/interfaces"
)

const hmacScheme = "hmac-sha512"

// HMACPasswordHasher hashes passwords with HMAC-SHA-512 keyed by a random
// per-user salt. Encoded form: hmac-sha512$<salt_b64>$<hash_b64>.
type HMACPasswordHasher struct {
	saltLength int
}

var _ interfaces.PasswordHasher = (*HMACPasswordHasher)(nil)

// NewHMACPasswordHasher returns a hasher producing salts of saltLength bytes.
func NewHMACPasswordHasher(saltLength int) *HMACPasswordHasher {
	if saltLength <= 0 {
		saltLength = 16
	}
	return &HMACPasswordHasher{saltLength: saltLength}
}

// Hash derives the encoded hash for a plaintext password.
func (h *HMACPasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	digest := computeHMAC([]byte(password), salt)
	return fmt.Sprintf("%s$%s$%s",
		hmacScheme,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// Verify reports whether password matches encodedHash. The comparison is
// constant time over the digest.
func (h *HMACPasswordHasher) Verify(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 3 || parts[0] != hmacScheme {
		return false, fmt.Errorf("unsupported password hash format")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, fmt.Errorf("malformed salt: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false, fmt.Errorf("malformed hash: %w", err)
	}

	digest := computeHMAC([]byte(password), salt)
	return subtle.ConstantTimeCompare(digest, expected) == 1, nil
}

func computeHMAC(password, salt []byte) []byte {
	mac := hmac.New(sha512.New, salt)
	mac.Write(password)
	return mac.Sum(nil)
}
