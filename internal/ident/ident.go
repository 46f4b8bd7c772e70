// Package ident produces human-readable pack and item identifiers.
package ident

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
)

const (
	letters   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	minNumber = 10000
	maxNumber = 99999

	// SeqWidth is the zero-padded width of an item's sequence number.
	SeqWidth = 5
)

var packIDPattern = regexp.MustCompile(`^[A-Z]{3}[1-9][0-9]{4}$`)

// Generator draws random pack identifiers. Uniqueness is not checked here;
// the store rejects a collision and the caller draws again.
type Generator struct {
	intN func(n int) int
}

// NewGenerator returns a generator backed by the global random source.
func NewGenerator() *Generator {
	return &Generator{intN: rand.IntN}
}

// NewSeededGenerator returns a deterministic generator, for tests.
func NewSeededGenerator(seed uint64) *Generator {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return &Generator{intN: r.IntN}
}

// PackID returns 3 uppercase letters followed by a number in 10000..99999.
func (g *Generator) PackID() string {
	b := make([]byte, 0, 8)
	for range 3 {
		b = append(b, letters[g.intN(len(letters))])
	}
	b = strconv.AppendInt(b, int64(minNumber+g.intN(maxNumber-minNumber+1)), 10)
	return string(b)
}

// ItemID derives an item identifier from its pack and 1-based sequence number.
func ItemID(packID string, seq int) string {
	return fmt.Sprintf("%s%0*d", packID, SeqWidth, seq)
}

// ValidPackID reports whether id has the shape of a generated pack identifier.
func ValidPackID(id string) bool {
	return packIDPattern.MatchString(id)
}
