package taxonomy

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// file is the on-disk override format:
//
//	relevance: [job, career, ...]
//	stages:
//	  application: [thank you for applying, ...]
//	  interview: [...]
//
// A stage missing from the file keeps no phrases; it does not inherit the
// built-in list.
type file struct {
	Relevance []string            `yaml:"relevance"`
	Stages    map[string][]string `yaml:"stages"`
}

// Load reads a taxonomy override from path. An empty path returns Default().
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes a YAML taxonomy document.
func Parse(b []byte) (*Taxonomy, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	if len(f.Relevance) == 0 {
		return nil, fmt.Errorf("decode taxonomy: relevance list is empty")
	}
	stages := make(map[Stage][]string, len(f.Stages))
	for k, v := range f.Stages {
		stages[Stage(k)] = v
	}
	t, err := New(f.Relevance, stages)
	if err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	return t, nil
}
