package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateTrackingID generates a random affiliate tracking identifier.
// Format: tv_click_randomhex
func GenerateTrackingID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("tv_click_%s", hex.EncodeToString(b)), nil
}
