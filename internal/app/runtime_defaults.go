package app

import (
	"fmt"
	"strings"

	"github.com/charlesng35/dabifac/internal/settings"
)

// ApplyRuntimeDefaults fills values an empty or partial configuration file leaves unusable.
// It returns the keys that were defaulted so callers can log them.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)

	if len(trimAll(cfg.Offline.Manifest)) == 0 {
		cfg.Offline.Manifest = append([]string(nil), DefaultManifest...)
		generated["offline.manifest"] = true
	}

	mount := normaliseMountPath(cfg.Offline.MountPath)
	if mount != cfg.Offline.MountPath {
		cfg.Offline.MountPath = mount
		generated["offline.mount_path"] = true
	}

	if strings.TrimSpace(cfg.Offline.IndexDocument) == "" {
		cfg.Offline.IndexDocument = "index.html"
		generated["offline.index_document"] = true
	}

	if len(trimAll(cfg.Combinations.Fields)) == 0 {
		cfg.Combinations.Fields = append([]string(nil), settings.DefaultFields...)
		generated["combinations.fields"] = true
	}

	return generated, nil
}

// normaliseMountPath returns path with a single leading and trailing slash.
func normaliseMountPath(path string) string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return "/"
	}
	return "/" + path + "/"
}

func trimAll(values []string) []string {
	var out []string
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}
