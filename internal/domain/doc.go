// Package domain defines the core types of the netscheme graph model.
//
// This package holds plain data and has no dependencies on storage,
// rendering or logging.
//
// # Core Types
//
// Entity is a typed, labeled node identified by a GID. Its kind is drawn from
// a closed set (population, super population, input, output, generic) and
// its data lives in a Properties bag of typed Values.
//
// Edge is one relationship instance between two entities. Connection edges
// carry a property bag describing the connectivity pattern and the weight
// and delay, each either fixed or Gaussian.
//
// Connection is the typed form of that bag, used by ingestion to build
// well-formed edges.
//
// # Errors
//
// The sentinel errors in this package form the error taxonomy shared by the
// store, the representation layer and ingestion. Structural violations
// (ErrDuplicateIdentifier, ErrWrongRelationshipKind) are fatal to the call
// that raised them. Missing or unrecognized data (ErrMissingExpectedProperty,
// ErrUnrecognizedPattern) is absorbed with a default and a warning.
package domain
