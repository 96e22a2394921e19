package utils

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestTokenID_Deterministic(t *testing.T) {
	a := TokenID("python3 launcher_v3.py")
	b := TokenID("python3 launcher_v3.py")
	if a != b {
		t.Errorf("same token produced different IDs: %s vs %s", a, b)
	}
}

func TestTokenID_DistinctTokens(t *testing.T) {
	if TokenID("launcher.py") == TokenID("launcher_v2.py") {
		t.Error("distinct tokens must produce distinct IDs")
	}
}

func TestTokenID_FilesystemSafe(t *testing.T) {
	id := TokenID("http.server 8001 --directory /srv/web")
	if strings.ContainsAny(id, " /") {
		t.Errorf("ID contains unsafe characters: %q", id)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("ID is not a valid UUID: %q", id)
	}
}
