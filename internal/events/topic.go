package events

import "strings"

// MatchTopic matches dot-separated topics NATS style: "*" matches one
// segment and a trailing ">" matches one or more.
func MatchTopic(pattern, topic string) bool {
	pat := strings.Split(pattern, ".")
	top := strings.Split(topic, ".")
	for i, p := range pat {
		if p == ">" {
			return i < len(top)
		}
		if i >= len(top) || (p != "*" && p != top[i]) {
			return false
		}
	}
	return len(pat) == len(top)
}
