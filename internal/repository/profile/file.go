package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	domprofile "github.com/kailas-cloud/collabmatch/internal/domain/profile"
)

// LoadFile reads a JSON array of profiles.
func LoadFile(path string) ([]domprofile.Profile, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read profiles %s: %w", path, err)
	}

	var profiles []domprofile.Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parse profiles %s: %w", path, err)
	}
	return profiles, nil
}
