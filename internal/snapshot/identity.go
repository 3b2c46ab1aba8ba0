package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// readDescriptorVersion reads the semantic version from the build-output
// package descriptor.
func readDescriptorVersion(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read package descriptor: %w", err)
	}

	var descriptor struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(raw, &descriptor); err != nil {
		return "", fmt.Errorf("failed to parse package descriptor %s: %w", path, err)
	}
	if descriptor.Version == "" {
		return "", fmt.Errorf("package descriptor %s has no version", path)
	}
	return descriptor.Version, nil
}

// readMetadataHash reads the short commit hash the build recorded in its
// metadata file, under a dotted key path like "build.commit". A missing
// metadata file yields an empty hash; the caller falls back to the hash the
// resolver produced.
func readMetadataHash(path, keyPath string) (string, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read build metadata: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("failed to parse build metadata %s: %w", path, err)
	}

	value, ok := lookupNested(doc, keyPath)
	if !ok {
		return "", fmt.Errorf("build metadata %s has no %q key", path, keyPath)
	}
	short, ok := value.(string)
	if !ok || short == "" {
		return "", fmt.Errorf("build metadata key %q is not a commit hash", keyPath)
	}
	return short, nil
}

// lookupNested walks a dotted key path through nested JSON objects.
func lookupNested(doc map[string]any, keyPath string) (any, bool) {
	keys := strings.Split(keyPath, ".")
	var value any = doc
	for _, key := range keys {
		object, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		value, ok = object[key]
		if !ok {
			return nil, false
		}
	}
	return value, true
}
