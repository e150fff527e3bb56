// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultTeacherName is the sender identity the teacher's client uses
const DefaultTeacherName = "Teacher"

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewID returns a fresh record ID (UUIDv7, canonical form). IDs from one
// process sort in creation order, which breaks created_at ties.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// GenerateSessionID creates a random identifier for one live connection.
// It is what the client sees as its socket id.
func GenerateSessionID() (string, error) {
	b := make([]byte, 15) // 15 bytes encode to 20 chars without padding
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// IsTeacher reports whether sender is the fixed teacher identity.
// Comparison is exact, the client sends the name verbatim.
func IsTeacher(sender, teacherName string) bool {
	if teacherName == "" {
		teacherName = DefaultTeacherName
	}
	return sender == teacherName
}
