package model

// PlacedField is a field that has been dropped into a builder's field list.
// Position is derived from list order and is rewritten on every mutation.
type PlacedField struct {
	ID       string    `json:"id"`
	Kind     FieldKind `json:"kind"`
	Label    string    `json:"label"`
	Required bool      `json:"required"`
	Position int       `json:"position"`
}

// FormField is a field of a persisted form definition, in render order.
type FormField struct {
	ID       string    `json:"id"`
	Kind     FieldKind `json:"kind"`
	Label    string    `json:"label"`
	Required bool      `json:"required"`
}
