package portal

import (
	"os"
	"path/filepath"
	"strings"

	"quiz-portal-client/internal/domain"
)

// SaveToken writes token to path, readable by the owner only.
func SaveToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}

// LoadToken reads a token stored by SaveToken. A missing file is
// domain.ErrUnauthenticated.
func LoadToken(path string) (string, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", domain.ErrUnauthenticated
	}
	if err != nil {
		return "", err
	}

	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", domain.ErrUnauthenticated
	}
	return token, nil
}
