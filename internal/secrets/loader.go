// Package secrets resolves credentials from files, inline configuration or the environment.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes how to load a secret value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// File points to a file containing the secret value. When set it takes
	// precedence over Value and Env.
	File string
	// Value is an inline secret value provided via configuration or flags.
	Value string
	// Env names an environment variable consulted when File and Value are unset.
	Env string
}

// Load returns the trimmed secret from the first configured location: File,
// then Value, then Env. An empty file is an error; an unset Env is reported as
// "not configured".
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
	}

	return "", fmt.Errorf("%s is not configured", name)
}

// Configured reports whether src names any location at all.
func Configured(src Source) bool {
	return strings.TrimSpace(src.File) != "" ||
		strings.TrimSpace(src.Value) != "" ||
		(strings.TrimSpace(src.Env) != "" && strings.TrimSpace(os.Getenv(src.Env)) != "")
}
