package w4on2

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpPrintsHeaderPatternsAndTracks(t *testing.T) {
	data := buildScore(t,
		[][]byte{{OpNoteOnStart + 60, OpShortDeltaStart + 2, OpNotesOff}},
		[][]byte{{0}},
	)
	s, err := ParseScore(data)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.Dump(&buf))

	out := buf.String()
	assert.Contains(t, out, "1 pattern(s), 1 track(s)")
	assert.Contains(t, out, "pattern 0:")
	assert.Contains(t, out, "NoteOn")
	assert.Contains(t, out, "ShortDelta")
	assert.Contains(t, out, "NotesOff")
	assert.Contains(t, out, "track 0:")
}

func TestDumpReportsReservedOpcode(t *testing.T) {
	data := buildScore(t, [][]byte{{OpReserved}}, [][]byte{{0}})
	s, err := ParseScore(data)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = s.Dump(&buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedScore)
}

func TestDumpListsTrackPatternIDs(t *testing.T) {
	data := buildScore(t,
		[][]byte{{OpNotesOff}, {OpNotesOff}},
		[][]byte{{0, 1}},
	)
	s, err := ParseScore(data)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.Dump(&buf))
	line := ""
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(l, "track 0:") {
			line = l
		}
	}
	require.NotEmpty(t, line)
	assert.Contains(t, line, "patterns [0 1]")
}
