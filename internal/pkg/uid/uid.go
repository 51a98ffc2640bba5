// Package uid generates unique identifiers.
package uid

// NumberID generates unique, roughly time-ordered numeric IDs.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string IDs.
type StringID interface {
	Generate() string
}
