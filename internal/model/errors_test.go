package model

import (
	"errors"
	"fmt"
	"testing"
)

type apiErr struct{ msg string }

func (e *apiErr) Error() string      { return "status 409" }
func (e *apiErr) APIMessage() string { return e.msg }

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server message", &apiErr{msg: "duplicate name"}, "duplicate name"},
		{"wrapped server message", fmt.Errorf("create: %w", &apiErr{msg: "too long"}), "too long"},
		{"empty server message", &apiErr{}, "fallback"},
		{"plain error", errors.New("dial tcp: refused"), "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err, "fallback"); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
