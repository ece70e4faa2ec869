package model

import "errors"

// messager is implemented by API errors that carry a server-provided message.
type messager interface {
	APIMessage() string
}

// UserMessage returns the server-provided message carried by err, or
// fallback when there is none.
func UserMessage(err error, fallback string) string {
	var m messager
	if errors.As(err, &m) && m.APIMessage() != "" {
		return m.APIMessage()
	}
	return fallback
}
