package ui

import (
	"fmt"

	"github.com/alfredjeanlab/formbuilder/internal/model"
)

// ANSI256 color codes.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorError  = 167 // red
	colorOK     = 114 // green
)

// kindColors gives each field kind its own color in listings.
var kindColors = map[model.FieldKind]int{
	model.KindText:     180, // sand
	model.KindPassword: 176, // pink
	model.KindNumber:   110, // sky
	model.KindDateTime: 150, // lime
}

var noColor bool

func paint(color int, s string) string {
	if noColor || s == "" {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderMuted returns s in the muted (gray) color. Used for ids.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderError returns s in red.
func RenderError(s string) string { return paint(colorError, s) }

// RenderOK returns s in green.
func RenderOK(s string) string { return paint(colorOK, s) }

// RenderKind returns the kind name in its own color.
func RenderKind(k model.FieldKind) string {
	c, ok := kindColors[k]
	if !ok {
		c = colorMuted
	}
	return paint(c, k.String())
}

// RenderRequired returns a red "*" for required fields and "" otherwise.
func RenderRequired(required bool) string {
	if !required {
		return ""
	}
	return RenderError("*")
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
