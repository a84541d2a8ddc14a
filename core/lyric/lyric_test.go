package lyric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestampedLines(t *testing.T) {
	raw := "[00:12.34] hello\n[01:05.50]world"

	lines := Parse(raw)

	require.Len(t, lines, 2)
	assert.InDelta(t, 12.34, lines[0].Time, 0.0001)
	assert.Equal(t, "hello", lines[0].Text)
	assert.InDelta(t, 65.50, lines[1].Time, 0.0001)
	assert.Equal(t, "world", lines[1].Text)
}

func TestParseDropsBlankLines(t *testing.T) {
	raw := "[00:01.00]first\n\n   \n[00:02.00]second\n"

	lines := Parse(raw)

	require.Len(t, lines, 2)
	assert.Equal(t, "first", lines[0].Text)
	assert.Equal(t, "second", lines[1].Text)
}

func TestParseKeepsUnrecognizedLinesAtZero(t *testing.T) {
	raw := "作词 : 某某\n[00:10.00]chorus\n[not a timestamp] still text"

	lines := Parse(raw)

	require.Len(t, lines, 3)
	// non-matching lines are kept verbatim at time 0 and sort first
	assert.Equal(t, 0.0, lines[0].Time)
	assert.Equal(t, "作词 : 某某", lines[0].Text)
	assert.Equal(t, 0.0, lines[1].Time)
	assert.Equal(t, "[not a timestamp] still text", lines[1].Text)
	assert.Equal(t, "chorus", lines[2].Text)
}

func TestParseSortsByTimestampStable(t *testing.T) {
	raw := "[01:00.00]later\n[00:30.00]earlier\n[00:30.00]same time second"

	lines := Parse(raw)

	require.Len(t, lines, 3)
	assert.Equal(t, "earlier", lines[0].Text)
	assert.Equal(t, "same time second", lines[1].Text)
	assert.Equal(t, "later", lines[2].Text)
}

func TestParseCRLFInput(t *testing.T) {
	raw := "[00:01.50]one\r\n[00:02.25]two\r\n"

	lines := Parse(raw)

	require.Len(t, lines, 2)
	assert.Equal(t, "one", lines[0].Text)
	assert.InDelta(t, 2.25, lines[1].Time, 0.0001)
}

func TestParseEmptyInput(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("\n\n\n"))
}
