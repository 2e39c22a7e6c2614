package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// HashPIN returns a bcrypt hash of the provided PIN.
func HashPIN(pin string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPIN compares a bcrypt hashed PIN with its possible plaintext equivalent.
func CheckPIN(hashedPIN, pin string) bool {
	if hashedPIN == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedPIN), []byte(pin)) == nil
}

// NewToken returns 32 random bytes encoded as hex.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// SHA256Hex is used to store bearer tokens and OTP codes at rest.
func SHA256Hex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
