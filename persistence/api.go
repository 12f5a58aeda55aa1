package persistence

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// The outcome of a single round-trip, as cached
type Result struct {
	// serialization format of Output, e.g. "n3"
	Format string
	Output string
	// number of triples in the parsed graph
	Triples int
	Created time.Time
}

type Store interface {
	StoreResult(key string, r Result) error
	// Answers the cached result; the error satisfies errors.Is(err, ErrNoResults) when nothing is cached under key
	Retrieve(key string) (Result, error)
	Close() error
}

// Answers the cache key of an input rendered in the supplied format
func Key(format, input string) string {
	h := sha256.New()
	h.Write([]byte(format))
	h.Write([]byte{0})
	h.Write([]byte(input))
	return hex.EncodeToString(h.Sum(nil))
}
