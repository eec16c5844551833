// Package identity manages voter identities. A voter identity is a
// locally generated pseudo-random token persisted per (room, state dir),
// so rejoining the same room reuses the same identity. It is the sole
// vote-deduplication key; there is no server-side verification.
package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ForRoom returns the persisted voter token for a room, generating and
// persisting a fresh one on first use. stateDir is created if missing.
func ForRoom(stateDir, code string) (string, error) {
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create identity dir: %w", err)
	}

	path := filepath.Join(stateDir, "voter-"+code)
	if data, err := os.ReadFile(path); err == nil {
		token := strings.TrimSpace(string(data))
		if token != "" {
			return token, nil
		}
	}

	token := uuid.New().String()
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("failed to persist voter identity: %w", err)
	}
	return token, nil
}
