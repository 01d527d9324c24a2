package textsplit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	text := "a short knowledge base entry"
	chunks := Split(text, 1000, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitEmptyText(t *testing.T) {
	assert.Nil(t, Split("", 1000, 100))
}

func TestSplitChunkSizesWithinWindow(t *testing.T) {
	text := strings.Repeat("long term rental includes maintenance and insurance cover ", 100)
	chunks := Split(text, 500, 50)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 500, "chunk %d exceeds window", i)
		assert.NotEmpty(t, c)
	}
}

func TestSplitPrefersWordBoundaries(t *testing.T) {
	text := strings.Repeat("financing conditions apply to every purchase dossier ", 60)
	chunks := Split(text, 400, 40)
	for i, c := range chunks[:len(chunks)-1] {
		assert.True(t, strings.HasSuffix(c, " "), "chunk %d should end at whitespace", i)
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	para := strings.Repeat("word ", 70) // 350 runes
	text := para + "\n\n" + para + "\n\n" + para
	chunks := Split(text, 400, 40)
	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0], "\n\n"))
}

func TestSplitRoundTrip(t *testing.T) {
	text := strings.Repeat("the vehicle remains the property of the lessor until purchase ", 90)
	overlap := 50
	chunks := Split(text, 600, overlap)
	require.Greater(t, len(chunks), 1)

	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		runes := []rune(c)
		require.Greater(t, len(runes), overlap)
		rebuilt.WriteString(string(runes[overlap:]))
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestSplitOverlapIsSuffixOfPreviousChunk(t *testing.T) {
	text := strings.Repeat("rental options can be added to an open dossier at any time ", 80)
	overlap := 60
	chunks := Split(text, 700, overlap)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		assert.Equal(t, string(prev[len(prev)-overlap:]), string(cur[:overlap]))
	}
}

func TestSplitHardCutWithoutWhitespace(t *testing.T) {
	text := strings.Repeat("x", 2500)
	chunks := Split(text, 1000, 100)
	require.Len(t, chunks, 3)
	assert.Equal(t, 1000, len(chunks[0]))
	assert.Equal(t, 1000, len(chunks[1]))
	assert.Equal(t, 700, len(chunks[2]))
}

func TestSplitDegenerateOverlapClamped(t *testing.T) {
	text := strings.Repeat("terms ", 300)
	chunks := Split(text, 100, 90) // overlap too close to window
	require.NotEmpty(t, chunks)
	// must terminate and still cover the text
	total := 0
	for _, c := range chunks {
		total += len([]rune(c))
	}
	assert.GreaterOrEqual(t, total, len([]rune(text)))
}
