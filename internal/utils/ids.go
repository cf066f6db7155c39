package utils

import "github.com/google/uuid"

// ValidID reports whether s is a well-formed row id.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
