package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateID creates a prefixed short ID, e.g. GenerateID("pe") returns
// "pe-a3f01".
func GenerateID(prefix string) (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("models: generate ID: %w", err)
	}
	return prefix + "-" + hex.EncodeToString(b)[:5], nil
}
