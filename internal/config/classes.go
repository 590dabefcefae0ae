package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// classesFile mirrors the "names" section of a YOLO data.yaml. Both the list
// form and the index-keyed map form are accepted.
type classesFile struct {
	Names yaml.Node `yaml:"names"`
}

// LoadClassNames reads detector class names from a YAML file.
func LoadClassNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classes file: %w", err)
	}
	return ParseClassNames(data)
}

// ParseClassNames decodes class names from YAML bytes.
func ParseClassNames(data []byte) ([]string, error) {
	var f classesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse classes file: %w", err)
	}

	switch f.Names.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := f.Names.Decode(&names); err != nil {
			return nil, fmt.Errorf("invalid names list: %w", err)
		}
		return names, nil
	case yaml.MappingNode:
		var byIndex map[int]string
		if err := f.Names.Decode(&byIndex); err != nil {
			return nil, fmt.Errorf("invalid names map: %w", err)
		}
		names := make([]string, len(byIndex))
		for i, name := range byIndex {
			if i < 0 || i >= len(names) {
				return nil, fmt.Errorf("class index %d out of range", i)
			}
			names[i] = name
		}
		return names, nil
	default:
		return nil, fmt.Errorf("classes file has no names section")
	}
}

// Classes returns the configured class names, preferring the inline list.
func (c *Config) Classes() ([]string, error) {
	if len(c.ClassNames) > 0 {
		return c.ClassNames, nil
	}
	if c.ClassesFile == "" {
		return nil, nil
	}
	return LoadClassNames(c.ClassesFile)
}
