package hostfile

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var templateVar = regexp.MustCompile(`\{\{\s*(NVRSYNC_VAR_[A-Za-z0-9_]+)\s*\}\}`)

// Loader reads the hosts registration file.
type Loader struct {
	filePath string
	getenv   func(string) string
}

// NewLoader creates a loader for filePath.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
		getenv:   os.Getenv,
	}
}

// Load reads and parses the file.
func (l *Loader) Load() (*File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read hosts file: %w", err)
	}

	data = expandTemplateVariables(data, l.getenv)

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse hosts yaml: %w", err)
	}
	return &file, nil
}

// expandTemplateVariables replaces {{NVRSYNC_VAR_X}} with the value of the
// environment variable of the same name. Unset variables become empty.
func expandTemplateVariables(data []byte, getenv func(string) string) []byte {
	return templateVar.ReplaceAllFunc(data, func(match []byte) []byte {
		name := templateVar.FindSubmatch(match)[1]
		return []byte(getenv(string(name)))
	})
}
