// Package builder holds the form builder's ordered field list and the
// drag-and-drop engine that edits it.
package builder

import (
	"strings"

	"github.com/alfredjeanlab/formbuilder/internal/model"
)

// ContainerID is the drop target id of the builder's field area.
const ContainerID = "form-area"

// newSourcePrefix marks palette source ids ("new-text").
const newSourcePrefix = "new-"

// PaletteItem is a draggable palette entry for one field kind.
type PaletteItem struct {
	ID   string          `json:"id"`
	Kind model.FieldKind `json:"kind"`
	Name string          `json:"name"`
}

// Palette returns one item per field kind, in registry order.
func Palette() []PaletteItem {
	items := make([]PaletteItem, 0, len(model.Kinds))
	for _, k := range model.Kinds {
		items = append(items, PaletteItem{
			ID:   NewSourceID(k),
			Kind: k,
			Name: k.DisplayName(),
		})
	}
	return items
}

// NewSourceID returns the palette source id for kind k.
func NewSourceID(k model.FieldKind) string {
	return newSourcePrefix + k.Lower()
}

// Source identifies what is being dragged: either a palette item for a new
// field of Kind, or an already placed field with FieldID.
type Source struct {
	Kind    model.FieldKind
	FieldID string
}

// IsNew reports whether the source is a palette item.
func (s Source) IsNew() bool {
	return s.Kind != ""
}

// ID returns the drag id the source was parsed from.
func (s Source) ID() string {
	if s.IsNew() {
		return NewSourceID(s.Kind)
	}
	return s.FieldID
}

// ParseSource classifies a drag id. Ids with the palette prefix must name a
// known kind; anything else is treated as a placed field id.
func ParseSource(id string) (Source, bool) {
	if id == "" {
		return Source{}, false
	}
	if rest, ok := strings.CutPrefix(id, newSourcePrefix); ok {
		k, err := model.ParseFieldKind(rest)
		if err != nil {
			return Source{}, false
		}
		return Source{Kind: k}, true
	}
	return Source{FieldID: id}, true
}
