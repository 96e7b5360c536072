package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"
)

// ErrPasswordMismatch is returned when a password does not match its hash.
var ErrPasswordMismatch = errors.New("password mismatch")

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

const scryptPrefix = "scrypt"

// PasswordHasher derives and verifies scrypt password hashes.
// Stored form: scrypt$N$r$p$salt$key with base64 (raw std) salt and key.
type PasswordHasher struct {
	N, R, P int
	KeyLen  int
	SaltLen int
}

// DefaultHasher uses interactive-login scrypt parameters.
var DefaultHasher = PasswordHasher{N: 1 << 14, R: 8, P: 1, KeyLen: 64, SaltLen: 16}

// ValidatePassword enforces the password policy.
func ValidatePassword(password string) error {
	if len(strings.TrimSpace(password)) < MinPasswordLength || !utf8.ValidString(password) {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// Hash returns the encoded scrypt hash of password with a fresh salt.
func (h PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key, err := scrypt.Key([]byte(password), salt, h.N, h.R, h.P, h.KeyLen)
	if err != nil {
		return "", fmt.Errorf("derive key: %w", err)
	}
	enc := base64.RawStdEncoding
	return strings.Join([]string{
		scryptPrefix,
		strconv.Itoa(h.N), strconv.Itoa(h.R), strconv.Itoa(h.P),
		enc.EncodeToString(salt), enc.EncodeToString(key),
	}, "$"), nil
}

// Verify checks password against an encoded hash. Legacy bcrypt hashes are accepted.
func (h PasswordHasher) Verify(encoded, password string) error {
	if encoded == "" {
		return ErrPasswordMismatch
	}
	if strings.HasPrefix(encoded, "$2a$") || strings.HasPrefix(encoded, "$2b$") || strings.HasPrefix(encoded, "$2y$") {
		if err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)); err != nil {
			return ErrPasswordMismatch
		}
		return nil
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != scryptPrefix {
		return fmt.Errorf("unrecognised password hash format")
	}
	n, errN := strconv.Atoi(parts[1])
	r, errR := strconv.Atoi(parts[2])
	p, errP := strconv.Atoi(parts[3])
	if errN != nil || errR != nil || errP != nil {
		return fmt.Errorf("malformed scrypt parameters")
	}
	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("malformed scrypt salt: %w", err)
	}
	want, err := enc.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("malformed scrypt key: %w", err)
	}
	got, err := scrypt.Key([]byte(password), salt, n, r, p, len(want))
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}
