package config

import (
	"fmt"
	"os"
	"strings"
)

// Secret describes how to load a secret value.
type Secret struct {
	// Name is used in error messages.
	Name string
	// Value is an inline secret value.
	Value string
	// File points to a file containing the secret. When set it takes precedence over Value.
	File string
}

// Resolve returns the trimmed secret. An error is returned when neither File
// nor Value contain a usable secret.
func (s Secret) Resolve() (string, error) {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(s.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		s.Value = string(data)
	}

	secret := strings.TrimSpace(s.Value)
	if secret == "" {
		if file != "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return "", fmt.Errorf("%s is not configured", name)
	}
	return secret, nil
}

// EmbeddingKey resolves the embedding provider API key.
func (c *Config) EmbeddingKey() (string, error) {
	return Secret{Name: "embedding.api_key", Value: c.Embedding.APIKey, File: c.Embedding.APIKeyFile}.Resolve()
}

// GenerationKey resolves the generation provider API key.
func (c *Config) GenerationKey() (string, error) {
	return Secret{Name: "generation.api_key", Value: c.Generation.APIKey, File: c.Generation.APIKeyFile}.Resolve()
}
