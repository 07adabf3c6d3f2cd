package models

import (
	"strings"

	"avd/pkg/domain"
)

// KeyPrefix namespaces limiter keys in shared stores.
const KeyPrefix = "avd:ratelimit:"

// SanitizeKeySegment escapes delimiter characters in key segments so a
// crafted identity like "user:1" cannot collide with another bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// Identity picks the throttling identity for a caller: the actor when
// authenticated, the client address otherwise.
func Identity(actor *domain.Actor, clientIP string) string {
	if actor.IsAuthenticated() {
		return "user:" + actor.ID.String()
	}
	if clientIP == "" {
		return "ip:unknown"
	}
	return "ip:" + SanitizeKeySegment(clientIP)
}

// Scoped narrows an identity to one operation, so an operation with its own
// policy keeps a window separate from the caller's shared one.
func Scoped(identity, scope string) string {
	return identity + ":" + SanitizeKeySegment(scope)
}

// NewKey builds the store key for an identity.
func NewKey(identity string) string {
	return KeyPrefix + identity
}
