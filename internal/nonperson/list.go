package nonperson

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// List carries operator-maintained additions to the built-in rules.
type List struct {
	Blacklist []string `yaml:"blacklist"`
	Whitelist []string `yaml:"whitelist"`
}

// LoadList reads a YAML list file. An empty path or a missing file yields an
// empty List.
func LoadList(path string) (List, error) {
	var list List
	if strings.TrimSpace(path) == "" {
		return list, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return list, nil
		}
		return list, fmt.Errorf("read filter list: %w", err)
	}
	if err := yaml.Unmarshal(data, &list); err != nil {
		return list, fmt.Errorf("parse filter list %s: %w", path, err)
	}
	return list, nil
}
