package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/armour-nexus/nexus-api/internal/constants"
)

// GenerateInviteToken returns a random hex token for invitation links.
func GenerateInviteToken() (string, error) {
	bytes := make([]byte, constants.InviteTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
