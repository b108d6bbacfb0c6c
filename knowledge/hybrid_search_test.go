package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuseRanks(t *testing.T) {
	t.Run("hits in both engines win", func(t *testing.T) {
		text := map[string]int{"a": 1, "b": 2, "c": 3}
		vec := map[string]int{"c": 1, "d": 2}

		// c: 1/63 + 1/61, a: 1/61, d: 1/62, b: 1/62
		assert.Equal(t, []string{"c", "a", "b", "d"}, fuseRanks(text, vec, 10))
	})

	t.Run("keeps top n", func(t *testing.T) {
		text := map[string]int{"a": 1, "b": 2, "c": 3, "d": 4}

		assert.Equal(t, []string{"a", "b"}, fuseRanks(text, nil, 2))
	})

	t.Run("ties order by id", func(t *testing.T) {
		text := map[string]int{"y": 1}
		vec := map[string]int{"x": 1}

		assert.Equal(t, []string{"x", "y"}, fuseRanks(text, vec, 5))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, fuseRanks(nil, nil, 3))
	})
}

func TestChunkPassage(t *testing.T) {
	assert.Equal(t, "Wheat > Irrigation\nIrrigate at CRI stage.",
		ChunkModel{SectionPath: "Wheat > Irrigation", Body: "Irrigate at CRI stage."}.Passage())
	assert.Equal(t, "plain", ChunkModel{Body: "plain"}.Passage())
	assert.Equal(t, "Guide\nWheat\nbody", ChunkModel{Title: "Guide", SectionPath: "Wheat", Body: "body"}.EmbeddingText())
}

func TestPassagesKeepFusedOrder(t *testing.T) {
	chunks := []*ChunkModel{
		{ChunkID: "c", SectionPath: "Wheat > Rust", Body: "Spray propiconazole."},
		{ChunkID: "a", Body: "Sow by 20 November."},
		{ChunkID: "b", SectionPath: "Mustard", Body: "Irrigate at flowering."},
	}

	out, err := passages(context.Background(), chunks)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Wheat > Rust\nSpray propiconazole.",
		"Sow by 20 November.",
		"Mustard\nIrrigate at flowering.",
	}, out)

	out, err = passages(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
