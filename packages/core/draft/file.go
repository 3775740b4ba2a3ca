package draft

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ReadFile loads a draft from a YAML file.
func ReadFile(path string) (Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to read draft file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML draft document.
func Parse(data []byte) (Draft, error) {
	var d Draft
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Draft{}, fmt.Errorf("invalid draft file: %w", err)
	}
	if d.Method == "" {
		d.Method = MethodGet
	}
	return d, nil
}

// WriteFile stores d as YAML at path.
func WriteFile(path string, d Draft) error {
	data, err := Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Marshal encodes d as a YAML draft document.
func Marshal(d Draft) ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode draft: %w", err)
	}
	return data, nil
}
