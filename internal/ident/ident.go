// Package ident generates unique keys for Xcode project descriptor entries.
//
// Every object in a project.pbxproj is keyed by a 24-character uppercase
// hexadecimal token. The tokens carry no meaning beyond distinguishing
// entries; tools conventionally derive them from random UUIDs.
package ident

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Length is the exact length of a descriptor key.
const Length = 24

// Generator produces descriptor keys.
// Implemented by UUIDGenerator (production) and Fixed (tests).
type Generator interface {
	Generate() string
}

// UUIDGenerator derives descriptor keys from random UUIDs.
//
// Each key is a random 128-bit UUID rendered as uppercase hexadecimal with
// the separators removed, truncated to Length characters. Keys generated
// within one run are distinct with overwhelming probability; uniqueness
// against keys already present in a descriptor is not checked.
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// Generate returns a new 24-character uppercase hex key.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDGenerator) Generate() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(hex)[:Length]
}

// Fixed returns predetermined keys for testing.
//
// This enables deterministic patch output and golden file comparison.
// Tests provide a known sequence of keys and verify exact descriptor text.
//
// Thread-safety: Fixed is safe for concurrent use via internal mutex.
type Fixed struct {
	mu   sync.Mutex
	keys []string
	idx  int
}

// NewFixed creates a generator that returns keys in order.
//
// Example:
//
//	gen := ident.NewFixed("AAAA...", "BBBB...")
//	gen.Generate() // "AAAA..."
//	gen.Generate() // "BBBB..."
//	gen.Generate() // panic: all keys exhausted
func NewFixed(keys ...string) *Fixed {
	return &Fixed{keys: keys}
}

// Generate returns the next predetermined key.
//
// Panics if all keys have been consumed. This is a fail-fast approach to
// catch test misconfiguration (test registered more files than expected).
func (g *Fixed) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.keys) {
		panic("ident.Fixed: all keys exhausted")
	}
	key := g.keys[g.idx]
	g.idx++
	return key
}
