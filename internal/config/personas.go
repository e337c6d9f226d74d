package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadPersonaDir scans dir for YAML persona definition files and returns
// them keyed by persona id (the filename without extension). Files that fail
// to parse are skipped with a warning so one bad file cannot take down the
// whole roster. A missing directory yields an empty map.
func LoadPersonaDir(dir string) (map[string]PersonaConfig, error) {
	result := make(map[string]PersonaConfig)
	if strings.TrimSpace(dir) == "" {
		return result, nil
	}

	entries, err := os.ReadDir(ExpandHome(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, fmt.Errorf("read personas dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(ExpandHome(dir), entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping persona %s: %v\n", path, err)
			continue
		}
		var pc PersonaConfig
		if err := yaml.Unmarshal(data, &pc); err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping persona %s: %v\n", path, err)
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ext)
		result[id] = pc
	}
	return result, nil
}
