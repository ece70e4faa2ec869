package builder

import (
	"fmt"

	"github.com/alfredjeanlab/formbuilder/internal/idgen"
	"github.com/alfredjeanlab/formbuilder/internal/model"
)

// DefaultRequired is the required flag given to newly dropped fields.
const DefaultRequired = true

// State is the in-progress, unsaved form a user is composing: a display
// name and an ordered list of placed fields. Positions always equal list
// indexes. State is not safe for concurrent use.
type State struct {
	Name   string
	fields []model.PlacedField
	newID  func() (string, error)
}

// Option configures a State.
type Option func(*State)

// WithIDFunc overrides the field id generator.
func WithIDFunc(fn func() (string, error)) Option {
	return func(s *State) { s.newID = fn }
}

// New returns an empty builder state.
func New(name string, opts ...Option) *State {
	s := &State{Name: name, newID: idgen.Field}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore rebuilds a state from previously saved fields. Fields keep their
// order; positions are recomputed from it.
func Restore(name string, fields []model.PlacedField, opts ...Option) *State {
	s := New(name, opts...)
	s.fields = make([]model.PlacedField, len(fields))
	copy(s.fields, fields)
	s.renumber()
	return s
}

// Len returns the number of placed fields.
func (s *State) Len() int {
	return len(s.fields)
}

// Fields returns a copy of the placed fields in order.
func (s *State) Fields() []model.PlacedField {
	out := make([]model.PlacedField, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the placed field with the given id.
func (s *State) Field(id string) (model.PlacedField, bool) {
	if i := s.IndexOf(id); i >= 0 {
		return s.fields[i], true
	}
	return model.PlacedField{}, false
}

// IndexOf returns the list index of id, or -1.
func (s *State) IndexOf(id string) int {
	for i := range s.fields {
		if s.fields[i].ID == id {
			return i
		}
	}
	return -1
}

// Append adds a new field of kind k at the end of the list.
func (s *State) Append(k model.FieldKind) (model.PlacedField, error) {
	return s.Insert(k, len(s.fields))
}

// Insert adds a new field of kind k at index, shifting later fields down.
// index is clamped to [0, Len()].
func (s *State) Insert(k model.FieldKind, index int) (model.PlacedField, error) {
	if !k.IsValid() {
		return model.PlacedField{}, fmt.Errorf("unknown field kind %q", k)
	}
	id, err := s.newID()
	if err != nil {
		return model.PlacedField{}, fmt.Errorf("generate field id: %w", err)
	}
	if s.IndexOf(id) >= 0 {
		return model.PlacedField{}, fmt.Errorf("generated field id %q already placed", id)
	}
	index = max(0, min(index, len(s.fields)))

	f := model.PlacedField{
		ID:       id,
		Kind:     k,
		Label:    fmt.Sprintf("New %s field", k),
		Required: DefaultRequired,
	}
	s.fields = append(s.fields, model.PlacedField{})
	copy(s.fields[index+1:], s.fields[index:])
	s.fields[index] = f
	s.renumber()
	return s.fields[index], nil
}

// Move relocates the field at from to index to; every other field keeps its
// relative order. It reports whether the list changed.
func (s *State) Move(from, to int) bool {
	n := len(s.fields)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return false
	}
	f := s.fields[from]
	if from < to {
		copy(s.fields[from:to], s.fields[from+1:to+1])
	} else {
		copy(s.fields[to+1:from+1], s.fields[to:from])
	}
	s.fields[to] = f
	s.renumber()
	return true
}

// SetLabel changes a field's label.
func (s *State) SetLabel(id, label string) bool {
	i := s.IndexOf(id)
	if i < 0 {
		return false
	}
	s.fields[i].Label = label
	return true
}

// SetRequired changes a field's required flag.
func (s *State) SetRequired(id string, required bool) bool {
	i := s.IndexOf(id)
	if i < 0 {
		return false
	}
	s.fields[i].Required = required
	return true
}

// Delete removes a field.
func (s *State) Delete(id string) bool {
	i := s.IndexOf(id)
	if i < 0 {
		return false
	}
	s.fields = append(s.fields[:i], s.fields[i+1:]...)
	s.renumber()
	return true
}

func (s *State) renumber() {
	for i := range s.fields {
		s.fields[i].Position = i
	}
}
