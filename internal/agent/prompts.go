package agent

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.yaml
var promptsFS embed.FS

type promptFile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
}

// prompts holds the loaded node prompt templates, keyed by name.
type prompts map[string]string

func loadPrompts() (prompts, error) {
	entries, err := promptsFS.ReadDir("prompts")
	if err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	out := make(prompts, len(entries))
	for _, entry := range entries {
		data, err := promptsFS.ReadFile("prompts/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", entry.Name(), err)
		}
		var p promptFile
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse prompt %s: %w", entry.Name(), err)
		}
		if p.Name == "" || p.Template == "" {
			return nil, fmt.Errorf("prompt %s missing name or template", entry.Name())
		}
		out[p.Name] = p.Template
	}
	return out, nil
}

// render substitutes {{key}} placeholders in the named template.
func (p prompts) render(name string, vars map[string]string) (string, error) {
	tpl, ok := p[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	for k, v := range vars {
		tpl = strings.ReplaceAll(tpl, "{{"+k+"}}", v)
	}
	return tpl, nil
}
