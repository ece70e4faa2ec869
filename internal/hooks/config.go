package hooks

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// OnFailure values for Hook.OnFailure.
const (
	OnFailureWarn   = "warn"
	OnFailureIgnore = "ignore"
)

// Hook is one configured command.
type Hook struct {
	Name      string `yaml:"name" json:"name"`
	Topic     string `yaml:"topic" json:"topic"`     // event topic pattern, e.g. "forms.record.*"
	Command   string `yaml:"command" json:"command"` // run with sh -c
	Dir       string `yaml:"dir,omitempty" json:"dir,omitempty"`
	Timeout   int    `yaml:"timeout,omitempty" json:"timeout,omitempty"` // seconds
	OnFailure string `yaml:"on_failure,omitempty" json:"on_failure,omitempty"`
}

// File is the on-disk hooks configuration.
type File struct {
	Hooks []Hook `yaml:"hooks"`
}

// LoadFile reads and validates a hooks file.
func LoadFile(path string) ([]Hook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hooks file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates hooks YAML. Unknown keys are rejected.
func Parse(data []byte) ([]Hook, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse hooks file: %w", err)
	}

	var errs []error
	for i := range f.Hooks {
		h := &f.Hooks[i]
		if h.Name == "" {
			h.Name = fmt.Sprintf("hook-%d", i+1)
		}
		if h.Topic == "" {
			errs = append(errs, fmt.Errorf("%s: topic is required", h.Name))
		}
		if h.Command == "" {
			errs = append(errs, fmt.Errorf("%s: command is required", h.Name))
		}
		switch h.OnFailure {
		case "":
			h.OnFailure = OnFailureWarn
		case OnFailureWarn, OnFailureIgnore:
		default:
			errs = append(errs, fmt.Errorf("%s: on_failure must be %q or %q", h.Name, OnFailureWarn, OnFailureIgnore))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return f.Hooks, nil
}
