// Package idgen produces opaque, globally unique ids for new entities.
package idgen

import "github.com/google/uuid"

// Generator returns a fresh id on every call.
type Generator func() string

// New returns a random (version 4) UUID string.
func New() string {
	return uuid.NewString()
}
