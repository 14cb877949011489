package digest

import (
	"fmt"

	"github.com/google/uuid"
)

// IDGenerator produces unique row identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// IDGeneratorFunc adapts a function to the IDGenerator interface
type IDGeneratorFunc func() (string, error)

// NewID calls f
func (f IDGeneratorFunc) NewID() (string, error) {
	return f()
}

// NewUUIDGenerator returns a generator of canonical 36-character UUIDs.
// Version 4 is random; version 7 is time-ordered with a random tail. Zero selects version 4.
func NewUUIDGenerator(version int) (IDGenerator, error) {
	switch version {
	case 0, 4:
		return IDGeneratorFunc(func() (string, error) {
			id, err := uuid.NewRandom()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		}), nil
	case 7:
		return IDGeneratorFunc(func() (string, error) {
			id, err := uuid.NewV7()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		}), nil
	default:
		return nil, fmt.Errorf("unsupported UUID version %d", version)
	}
}
