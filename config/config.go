package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SystemConfig is the root structure for a system definition (e.g. from YAML).
type SystemConfig struct {
	Name      string        `yaml:"name"`
	OnFailure string        `yaml:"on_failure"` // optional: name of a handler registered with RegisterHandler
	Observers []string      `yaml:"observers" validate:"dive,required"`
	Stages    []StageConfig `yaml:"stages" validate:"required,min=1,dive"`
}

// StageConfig is a single stage: a pipe of registered modules, or a nested
// system. In YAML, a stage can be written as:
//
//	stages:
//	  - trim
//	  - name: shout
//	    modules: [upper, exclaim]
//	    pre_filter: non-empty
//	    post_filter:
//	      not: too-long
//	  - name: checks
//	    system: validate
//
// The plain form is a pipe named after its single module.
type StageConfig struct {
	Name string `yaml:"name" validate:"required"`

	// Modules run in order inside the pipe. Mutually exclusive with System.
	Modules []string `yaml:"modules" validate:"dive,required"`

	// System nests another configured system as this stage.
	System string `yaml:"system"`

	PreFilter  *FilterRef `yaml:"pre_filter"`
	PostFilter *FilterRef `yaml:"post_filter"`
}

// UnmarshalYAML allows a stage to be a string (module name only) or a struct.
func (s *StageConfig) UnmarshalYAML(value *yaml.Node) error {
	var nameOnly string
	if err := value.Decode(&nameOnly); err == nil {
		s.Name = nameOnly
		s.Modules = []string{nameOnly}
		return nil
	}
	type raw StageConfig
	return value.Decode((*raw)(s))
}

// FilterRef names a registered filter or combines others. Exactly one field
// is set. In YAML it is either a filter name or a mapping:
//
//	pre_filter:
//	  and: [non-nil, {not: empty}]
type FilterRef struct {
	Name string      `yaml:"name"`
	And  []FilterRef `yaml:"and" validate:"omitempty,min=2,dive"`
	Or   []FilterRef `yaml:"or" validate:"omitempty,min=2,dive"`
	Xor  []FilterRef `yaml:"xor" validate:"omitempty,len=2,dive"`
	Not  *FilterRef  `yaml:"not"`
}

// UnmarshalYAML allows a filter to be a string (filter name only) or a struct.
func (f *FilterRef) UnmarshalYAML(value *yaml.Node) error {
	var nameOnly string
	if err := value.Decode(&nameOnly); err == nil {
		f.Name = nameOnly
		return nil
	}
	type raw FilterRef
	return value.Decode((*raw)(f))
}

func (f *FilterRef) forms() int {
	n := 0
	if f.Name != "" {
		n++
	}
	if len(f.And) > 0 {
		n++
	}
	if len(f.Or) > 0 {
		n++
	}
	if len(f.Xor) > 0 {
		n++
	}
	if f.Not != nil {
		n++
	}
	return n
}

// ParseSystemConfig parses YAML bytes into a single SystemConfig.
func ParseSystemConfig(data []byte) (*SystemConfig, error) {
	var cfg SystemConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse system config")
	}
	return &cfg, nil
}

// MultiSystemConfig is the root structure for a file that defines multiple systems.
// Top-level key is "systems"; each value is a system (name + stages). A stage
// with "system" refers to another key of the same map.
type MultiSystemConfig struct {
	Systems map[string]SystemConfig `yaml:"systems" validate:"required,min=1,dive"`
}

// ParseMultiSystemConfig parses YAML bytes that contain a "systems" map from name to system config.
// Example YAML:
//
//	systems:
//	  words:
//	    stages: [trim, lower]
//	  greet:
//	    name: greet
//	    on_failure: log
//	    stages:
//	      - name: clean
//	        system: words
//	      - exclaim
func ParseMultiSystemConfig(data []byte) (*MultiSystemConfig, error) {
	var cfg MultiSystemConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse systems config")
	}
	return &cfg, nil
}

// LoadFile reads and parses a multi-system YAML file.
func LoadFile(path string) (*MultiSystemConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return ParseMultiSystemConfig(data)
}
