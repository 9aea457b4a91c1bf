package internal

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

const (
	sessionIDSize = 32
	csrfTokenSize = 32
)

// NewSessionID returns a fresh opaque session identifier: 256 random bits,
// base64url without padding.
func NewSessionID() (string, error) {
	var raw [sessionIDSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// ValidSessionID reports whether id has the shape produced by NewSessionID.
// Client-supplied identifiers that fail this check are never looked up.
func ValidSessionID(id string) bool {
	if len(id) != base64.RawURLEncoding.EncodedLen(sessionIDSize) {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(id)
	return err == nil
}

// NewCSRFToken returns 32 random bytes hex-encoded to 64 characters.
func NewCSRFToken() (string, error) {
	var raw [csrfTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw[:])
	if len(token) != 2*csrfTokenSize {
		return "", errors.New("invalid csrf token length")
	}
	return token, nil
}
