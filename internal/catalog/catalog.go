// Package catalog holds the built-in daily question set used to seed an empty database.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var questionsYAML []byte

type Entry struct {
	Text    string   `yaml:"text"`
	Options []string `yaml:"options,omitempty"`
}

type file struct {
	FreeText []string `yaml:"free_text"`
	Options  []Entry  `yaml:"options"`
}

// Load returns the built-in questions, free-text first, in seed order.
func Load() ([]Entry, error) {
	return Parse(questionsYAML)
}

func Parse(data []byte) ([]Entry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse question catalog: %w", err)
	}

	entries := make([]Entry, 0, len(f.FreeText)+len(f.Options))
	for _, text := range f.FreeText {
		entries = append(entries, Entry{Text: text})
	}
	for _, e := range f.Options {
		if len(e.Options) == 0 {
			return nil, fmt.Errorf("question %q has no options", e.Text)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func LoadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
