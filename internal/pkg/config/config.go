package config

import (
	"io"
	"time"
)

// TimeConfig reads integer values and scales them to a duration unit.
// Missing or non-numeric keys yield zero.
type TimeConfig interface {
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
}

// NumberConfig reads numeric values. Missing or unparsable keys yield zero.
type NumberConfig interface {
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetFloat64(key string) float64
}

// Config defines a set of methods for retrieving configuration values of various types.
// Implementations handle type conversion and fall back to the zero value when a key
// is absent, so callers decide their own defaults.
type Config interface {
	io.Closer
	TimeConfig
	NumberConfig

	// GetBool retrieves the value associated with key as a bool.
	GetBool(key string) bool

	// GetString retrieves the value associated with key as a string.
	GetString(key string) string

	// GetBinary retrieves the value associated with key as bytes.
	// The stored value is base64 encoded.
	GetBinary(key string) []byte

	// GetArray retrieves the value associated with key as a slice of strings.
	// The stored value has the format <element1>,<element2>,... and empty
	// elements are dropped.
	GetArray(key string) []string

	// GetMap retrieves the value associated with key as a string map.
	// The stored value has the format <key1>:<value1>,<key2>:<value2>,...
	GetMap(key string) map[string]string
}
