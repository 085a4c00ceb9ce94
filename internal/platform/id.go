package platform

import "github.com/google/uuid"

// NewID returns a random (v4) UUID string used as a deployment identifier.
func NewID() string {
	return uuid.New().String()
}

// ParseID reports whether s is a well-formed identifier produced by NewID.
func ParseID(s string) (string, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
