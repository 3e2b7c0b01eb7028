package utils

import (
	"strconv"
	"strings"
)

// ParseID parses a positive database id; ok is false for anything else.
func ParseID(s string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// OptionalID parses an optional id form field; empty or invalid input yields nil.
func OptionalID(s string) *uint {
	if id, ok := ParseID(s); ok {
		return &id
	}
	return nil
}
