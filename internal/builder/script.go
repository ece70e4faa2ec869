package builder

import (
	"fmt"
	"io"

	"github.com/alfredjeanlab/formbuilder/internal/model"
	"gopkg.in/yaml.v3"
)

// Script is a recorded builder session: a form name and the fields to drop
// onto the field area, in order.
//
//	name: Contact
//	fields:
//	  - kind: text
//	    label: Full name
//	  - kind: number
//	    label: Age
//	    required: false
type Script struct {
	Name   string        `yaml:"name"`
	Fields []ScriptField `yaml:"fields"`
}

// ScriptField is one dropped field. A nil Required keeps DefaultRequired.
type ScriptField struct {
	Kind     string `yaml:"kind"`
	Label    string `yaml:"label"`
	Required *bool  `yaml:"required,omitempty"`
}

// LoadScript decodes a YAML builder script.
func LoadScript(r io.Reader) (*Script, error) {
	var sc Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode builder script: %w", err)
	}
	return &sc, nil
}

// Build replays the script through the drag-and-drop engine.
func (sc *Script) Build(opts ...Option) (*State, error) {
	s := New(sc.Name, opts...)
	for i, sf := range sc.Fields {
		k, err := model.ParseFieldKind(sf.Kind)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		if !s.HandleDragEnd(DragEnd{Active: NewSourceID(k), Over: ContainerID}) {
			return nil, fmt.Errorf("field %d: drop of %s was rejected", i, k)
		}
		placed := s.fields[len(s.fields)-1]
		if sf.Label != "" {
			s.SetLabel(placed.ID, sf.Label)
		}
		if sf.Required != nil {
			s.SetRequired(placed.ID, *sf.Required)
		}
	}
	return s, nil
}
