package model

import "time"

// BuilderSession is a saved builder: its display name and placed fields.
type BuilderSession struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Fields    []PlacedField `json:"fields"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
