package toolutils

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// ReadYaml strictly decodes a channel configuration file into dest. Unknown
// keys are an error so that endpoint typos surface instead of silently
// falling back to defaults.
func ReadYaml(dest any, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open configuration %s: %w", file, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f, yaml.Strict())
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("parse configuration %s: %w", file, err)
	}
	return nil
}
