package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const credentialsFileName = "credentials.json"

// Credentials stores the bearer token for the signed-in account.
type Credentials struct {
	Token    string `json:"token"`
	Username string `json:"username,omitempty"`
	SavedAt  int64  `json:"saved_at,omitempty"`
}

// CredentialsPath returns where credentials are stored.
func CredentialsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, credentialsFileName), nil
}

// LoadCredentials reads stored credentials. GRAM_TOKEN takes precedence over
// the file. Returns nil when neither is present.
func LoadCredentials() (*Credentials, error) {
	if token := strings.TrimSpace(os.Getenv("GRAM_TOKEN")); token != "" {
		return &Credentials{Token: token}, nil
	}
	path, err := CredentialsPath()
	if err != nil {
		return nil, err
	}
	var creds Credentials
	ok, err := readJSON(path, &creds)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(creds.Token) == "" {
		return nil, nil
	}
	return &creds, nil
}

// SaveCredentials writes credentials readable only by the current user.
func SaveCredentials(creds Credentials) error {
	path, err := CredentialsPath()
	if err != nil {
		return err
	}
	if creds.SavedAt == 0 {
		creds.SavedAt = time.Now().Unix()
	}
	return writeJSONAtomic(path, creds, 0o600)
}

// ClearCredentials removes stored credentials. Missing files are not an error.
func ClearCredentials() error {
	path, err := CredentialsPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
