package source

import (
	"encoding/json"
	"fmt"
	"os"
)

// Credentials are the mod portal service credentials read from the game's
// player data file.
type Credentials struct {
	Username string `json:"service-username"`
	Token    string `json:"service-token"`
}

// LoadCredentials reads portal credentials from path. A missing or
// incomplete file is an error carrying remediation guidance; callers must
// fail before any network activity starts.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("credentials file %s is not readable; log in through the game client once to generate it: %w", path, err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", path, err)
	}
	if creds.Username == "" || creds.Token == "" {
		return nil, fmt.Errorf("credentials file %s is missing service-username or service-token; log in through the game client to refresh it", path)
	}
	return &creds, nil
}
