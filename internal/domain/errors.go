package domain

import "errors"

// Structural errors propagate to the caller. Missing or unrecognized data is
// absorbed where it occurs: the value is defaulted and a warning is logged.
var (
	// ErrDuplicateIdentifier is returned when an entity id is already taken.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// ErrNotFound is returned on a lookup miss. Callers usually skip the item.
	ErrNotFound = errors.New("not found")

	// ErrWrongRelationshipKind is returned when a relationship table is
	// requested as a kind other than the one it was created with.
	ErrWrongRelationshipKind = errors.New("wrong relationship kind")

	// ErrUnrecognizedPattern is returned for a connectivity pattern or
	// quantity type outside the known vocabulary.
	ErrUnrecognizedPattern = errors.New("unrecognized pattern")

	// ErrMissingExpectedProperty marks a property a representation expected
	// but the entity or edge did not carry.
	ErrMissingExpectedProperty = errors.New("missing expected property")

	// ErrNonFiniteValue marks a NaN or infinite number where a magnitude
	// is expected.
	ErrNonFiniteValue = errors.New("non-finite value")

	// ErrUnknownKind is returned for an entity kind outside the closed set.
	ErrUnknownKind = errors.New("unknown entity kind")
)
