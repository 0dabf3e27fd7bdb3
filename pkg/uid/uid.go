package uid

import "github.com/google/uuid"

// New generates a new unique identifier for request correlation.
func New() string {
	return uuid.New().String()
}

// IsValid reports whether a string parses as a UUID.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
