// Package random serves the quote and random-data endpoints.
package random

import (
	"math/rand/v2"
	"sync"
)

var Quotes = []string{
	"The only way to do great work is to love what you do. - Steve Jobs",
	"Innovation distinguishes between a leader and a follower. - Steve Jobs",
	"Life is what happens to you while you're busy making other plans. - John Lennon",
	"The future belongs to those who believe in the beauty of their dreams. - Eleanor Roosevelt",
}

var Colors = []string{"Red", "Blue", "Green", "Yellow", "Purple", "Orange", "Pink", "Cyan"}

type Data struct {
	Number  int    `json:"randomNumber"`
	Boolean bool   `json:"randomBoolean"`
	Color   string `json:"randomColor"`
}

// Generator draws uniformly from its source. The zero value is not usable.
type Generator struct {
	mu   sync.Mutex
	rng  *rand.Rand
	intN func(n int) int
}

// NewGenerator uses the runtime's concurrency-safe global source.
func NewGenerator() *Generator {
	return &Generator{intN: rand.IntN}
}

// NewSeededGenerator is deterministic for a given seed pair.
func NewSeededGenerator(seed1, seed2 uint64) *Generator {
	g := &Generator{rng: rand.New(rand.NewPCG(seed1, seed2))}
	g.intN = func(n int) int {
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.rng.IntN(n)
	}
	return g
}

func (g *Generator) Quote() string {
	return Quotes[g.intN(len(Quotes))]
}

// Number returns a value in [1, 100].
func (g *Generator) Number() int {
	return g.intN(100) + 1
}

func (g *Generator) Boolean() bool {
	return g.intN(2) == 1
}

func (g *Generator) Color() string {
	return Colors[g.intN(len(Colors))]
}

func (g *Generator) Data() Data {
	return Data{
		Number:  g.Number(),
		Boolean: g.Boolean(),
		Color:   g.Color(),
	}
}
