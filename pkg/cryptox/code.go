package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for hashing short-lived verification codes.
const (
	saltLength  = 16
	iterations  = 2
	memory      = 19 * 1024
	parallelism = 1
	keyLength   = 32
)

// ErrCodeMismatch reports a failed code comparison.
var ErrCodeMismatch = errors.New("code does not match")

// GenerateNumericCode returns a uniformly random numeric code with the given
// number of digits. The first digit is never zero, so a 6-digit code is a
// uniform draw from [100000, 999999].
func GenerateNumericCode(digits int) (string, error) {
	if digits < 1 {
		return "", fmt.Errorf("code must have at least one digit, got %d", digits)
	}

	low := big.NewInt(1)
	for range digits - 1 {
		low.Mul(low, big.NewInt(10))
	}
	// Width of the range: 9 * 10^(digits-1) values.
	width := new(big.Int).Mul(low, big.NewInt(9))

	n, err := rand.Int(rand.Reader, width)
	if err != nil {
		return "", fmt.Errorf("failed to generate random code: %w", err)
	}

	return n.Add(n, low).String(), nil
}

// HashCode generates a PHC-format Argon2id hash string including salt and
// parameters.
func HashCode(code string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(code), salt, iterations, memory, parallelism, keyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory, iterations, parallelism, b64Salt, b64Hash,
	), nil
}

// VerifyCode compares a plaintext code against a PHC-style Argon2id hash.
// Returns ErrCodeMismatch when the code is wrong.
func VerifyCode(code, encodedHash string) error {
	// Parse PHC format: $argon2id$v=19$m=X,t=Y,p=Z$salt$hash
	parts := make([]string, 0, 6)
	start := 0
	for i := range len(encodedHash) {
		if encodedHash[i] == '$' {
			parts = append(parts, encodedHash[start:i])
			start = i + 1
		}
	}
	parts = append(parts, encodedHash[start:])

	// Validate structure: ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	if len(parts) != 6 {
		return errors.New("invalid hash format: expected 6 parts")
	}
	if parts[1] != "argon2id" {
		return errors.New("invalid hash format: not argon2id")
	}
	if parts[2] != "v=19" {
		return errors.New("invalid hash format: wrong version")
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("invalid hash format: failed to parse parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("invalid hash format: failed to decode salt: %w", err)
	}
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("invalid hash format: failed to decode hash: %w", err)
	}

	computed := argon2.IDKey([]byte(code), salt, iters, mem, par, uint32(len(expectedHash)))

	if subtle.ConstantTimeCompare(computed, expectedHash) == 1 {
		return nil
	}
	return ErrCodeMismatch
}
