package rules

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultRules []byte

// File is the layout of a rules YAML file.
type File struct {
	Rules []Rule `yaml:"rules"`
	// Fallback answers sentences no rule matches. Without one they fail
	// with domain.ErrNoMatch.
	Fallback string `yaml:"fallback"`
}

// Rule maps a sentence pattern to a reply template.
// That and Topic, when set, must also match for the rule to apply.
type Rule struct {
	Pattern  string            `yaml:"pattern"`
	That     string            `yaml:"that,omitempty"`
	Topic    string            `yaml:"topic,omitempty"`
	Template string            `yaml:"template"`
	Set      map[string]string `yaml:"set,omitempty"`
	Triple   *TripleAction     `yaml:"triple,omitempty"`
	Learn    *LearnAction      `yaml:"learn,omitempty"`
}

// TripleAction records a fact when the rule fires. Fields are templates.
type TripleAction struct {
	Subject   string `yaml:"subject"`
	Predicate string `yaml:"predicate"`
	Object    string `yaml:"object"`
}

// LearnAction adds a new rule when the rule fires. Fields are templates
// whose output becomes the learned pattern and template.
type LearnAction struct {
	Pattern  string `yaml:"pattern"`
	That     string `yaml:"that,omitempty"`
	Template string `yaml:"template"`
}

// ParseFile decodes a rules document.
func ParseFile(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse rules: %w", err)
	}
	return f, nil
}

// LoadFile reads a rules document from path.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read rules: %w", err)
	}
	f, err := ParseFile(data)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// DefaultFile returns the built-in small-talk rules.
func DefaultFile() File {
	f, err := ParseFile(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("rules: embedded defaults are invalid: %v", err))
	}
	return f
}
