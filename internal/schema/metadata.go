// Package schema embeds the ledger schema metadata handed to the assistant's
// SQL generation prompt.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed metadata.yaml
var metadataYAML []byte

// Column describes one ledger column for the model.
type Column struct {
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type" json:"type"`
	Description string `yaml:"description" json:"description"`
}

// Metadata describes the ledger table for the model.
type Metadata struct {
	Table       string   `yaml:"table" json:"table"`
	Description string   `yaml:"description" json:"description"`
	Columns     []Column `yaml:"columns" json:"columns"`
}

// Load parses the embedded metadata.
func Load() (*Metadata, error) {
	var m Metadata
	if err := yaml.Unmarshal(metadataYAML, &m); err != nil {
		return nil, fmt.Errorf("parse schema metadata: %w", err)
	}
	return &m, nil
}

// PromptJSON renders the metadata as indented JSON for prompt interpolation.
func (m *Metadata) PromptJSON() (string, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode schema metadata: %w", err)
	}
	return string(b), nil
}
