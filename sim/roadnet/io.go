package roadnet

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadMap reads and parses a YAML map file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadMap(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map: %w", err)
	}
	return ParseMap(data)
}

// ParseMap decodes a YAML map document and builds its indices.
func ParseMap(data []byte) (*Map, error) {
	var m Map
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing map: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("validating map %q: %w", m.Name, err)
	}
	m.buildIndex()
	return &m, nil
}

// SaveMap writes the map as YAML.
func SaveMap(m *Map, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding map: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing map: %w", err)
	}
	return nil
}
