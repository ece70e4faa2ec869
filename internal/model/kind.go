package model

import (
	"fmt"
	"strings"
)

// FieldKind is the closed set of input kinds a form field can have.
type FieldKind string

const (
	KindText     FieldKind = "TEXT"
	KindPassword FieldKind = "PASSWORD"
	KindNumber   FieldKind = "NUMBER"
	KindDateTime FieldKind = "DATETIME"
)

// Kinds lists every field kind in palette order.
var Kinds = []FieldKind{KindText, KindPassword, KindNumber, KindDateTime}

// String returns the string representation of the field kind.
func (k FieldKind) String() string {
	return string(k)
}

// Lower returns the spelling used by the external form service ("text", ...).
func (k FieldKind) Lower() string {
	return strings.ToLower(string(k))
}

// IsValid checks whether the kind is a known value.
func (k FieldKind) IsValid() bool {
	switch k {
	case KindText, KindPassword, KindNumber, KindDateTime:
		return true
	}
	return false
}

// ParseFieldKind resolves s case-insensitively.
func ParseFieldKind(s string) (FieldKind, error) {
	k := FieldKind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("unknown field kind %q", s)
	}
	return k, nil
}

// KindTraits describes how a field kind is rendered and what input it accepts.
type KindTraits struct {
	InputType   string // HTML input type
	Placeholder string
	Masked      bool // input is hidden while typed
	NumericOnly bool // only numeric characters are accepted
	Composite   bool // captured as a date plus a time of day
}

// Traits returns the rendering contract for k. Unknown kinds fall back to
// the text contract so a definition with a newer kind still renders.
func (k FieldKind) Traits() KindTraits {
	kind := k
	if !kind.IsValid() {
		kind = KindText
	}
	t := KindTraits{
		InputType:   kind.Lower(),
		Placeholder: "Enter " + kind.Lower(),
	}
	switch kind {
	case KindPassword:
		t.Masked = true
	case KindNumber:
		t.NumericOnly = true
	case KindDateTime:
		t.InputType = "datetime-local"
		t.Composite = true
	}
	return t
}

// DisplayName returns the palette label for k ("Text", "Datetime").
func (k FieldKind) DisplayName() string {
	l := k.Lower()
	if l == "" {
		return ""
	}
	return strings.ToUpper(l[:1]) + l[1:]
}
