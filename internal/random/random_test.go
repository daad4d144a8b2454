package random

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratorRanges(t *testing.T) {
	g := NewGenerator()
	seenNumbers := map[int]bool{}
	seenBooleans := map[bool]bool{}
	seenColors := map[string]bool{}
	seenQuotes := map[string]bool{}

	for i := 0; i < 5000; i++ {
		data := g.Data()
		assert.GreaterOrEqual(t, data.Number, 1)
		assert.LessOrEqual(t, data.Number, 100)
		assert.True(t, slices.Contains(Colors, data.Color))
		seenNumbers[data.Number] = true
		seenBooleans[data.Boolean] = true
		seenColors[data.Color] = true

		quote := g.Quote()
		assert.True(t, slices.Contains(Quotes, quote))
		seenQuotes[quote] = true
	}

	assert.True(t, seenNumbers[1] && seenNumbers[100], "bounds should be reachable")
	assert.Len(t, seenBooleans, 2)
	assert.Len(t, seenColors, len(Colors))
	assert.Len(t, seenQuotes, len(Quotes))
}

func TestSeededGeneratorIsDeterministic(t *testing.T) {
	a := NewSeededGenerator(7, 11)
	b := NewSeededGenerator(7, 11)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Data(), b.Data())
		assert.Equal(t, a.Quote(), b.Quote())
	}
}

func TestPalettes(t *testing.T) {
	assert.Len(t, Colors, 8)
	assert.Len(t, Quotes, 4)
}
