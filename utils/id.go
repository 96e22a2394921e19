package utils

import "github.com/google/uuid"

// TokenID derives a deterministic, filesystem-safe identifier from an
// identity token via UUID v5. Tokens may contain spaces and slashes
// ("python3 launcher_v3.py"); the derived ID names PID files and lock files
// for that token, and is stable across sessions by construction.
func TokenID(token string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(token)).String()
}
