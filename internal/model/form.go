package model

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FieldSpec is one entry of the external service's field mapping.
type FieldSpec struct {
	Type     string `json:"type"`
	Question string `json:"question"`
	Required bool   `json:"required"`
}

// FieldMap maps field IDs to their specs. It keeps JSON key order, so a
// definition renders in the order the service sent it.
type FieldMap = orderedmap.OrderedMap[string, FieldSpec]

// NewFieldMap returns an empty FieldMap.
func NewFieldMap() *FieldMap {
	return orderedmap.New[string, FieldSpec]()
}

// FormDefinition is a form as stored by the external form service.
type FormDefinition struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Fields *FieldMap `json:"fields"`
}

// FormFields returns the definition's fields in mapping order.
func (d *FormDefinition) FormFields() []FormField {
	if d == nil || d.Fields == nil {
		return nil
	}
	out := make([]FormField, 0, d.Fields.Len())
	for pair := d.Fields.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, FormField{
			ID:       pair.Key,
			Kind:     FieldKind(strings.ToUpper(pair.Value.Type)),
			Label:    pair.Value.Question,
			Required: pair.Value.Required,
		})
	}
	return out
}

// CreateFormRequest is the body of a form creation call.
type CreateFormRequest struct {
	Name   string    `json:"name"`
	Fields *FieldMap `json:"fields"`
}

// Envelope is the response wrapper used by the external form service.
type Envelope[T any] struct {
	StatusCode int    `json:"statusCode,omitempty"`
	Data       T      `json:"data"`
	Message    string `json:"message,omitempty"`
}
