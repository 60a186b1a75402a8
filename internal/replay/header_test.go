package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMapName(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected string
		found    bool
	}{
		{"numeric prefix before maps dir", "xxM=385maps/map wor rhun;S=", "map wor rhun", true},
		{"plain maps dir", "M=maps/fords of isen;rest", "fords of isen", true},
		{"no maps substring returned unchanged", "M=custom location;S=", "custom location", true},
		{"missing marker", "no marker here", "", false},
		{"empty value", "M=;S=", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, ok := findMapName([]byte(tt.data))
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, name)
		})
	}
}

func TestParseSlotEntry(t *testing.T) {
	hp, ok := parseSlotEntry("HGusto,1A53EFD5,8094,TT,2,-1,1,1,0,1,0", 0)
	require.True(t, ok)
	assert.Equal(t, "Gusto", hp.name)
	assert.Equal(t, "1A53EFD5", hp.uid)
	assert.Equal(t, int8(2), hp.colorID)
	assert.Equal(t, int8(1), hp.factionID)
	assert.Equal(t, int8(1), hp.teamRaw)
}

func TestParseSlotEntry_EmptyTokens(t *testing.T) {
	for _, token := range []string{"", "X", "O", ";", "  X  "} {
		_, ok := parseSlotEntry(token, 0)
		assert.False(t, ok, "token %q should not parse to an entry", token)
	}
}

func TestParseSlotEntry_ShortEntryDropped(t *testing.T) {
	_, ok := parseSlotEntry("HName,12345678,8094", 0)
	assert.False(t, ok)
}

func TestParseSlotEntry_Defaults(t *testing.T) {
	// Malformed numeric fields default to -1, not an error.
	hp, ok := parseSlotEntry("HName,12345678,8094,TT,bad,x,bad,bad", 2)
	require.True(t, ok)
	assert.Equal(t, int8(-1), hp.colorID)
	assert.Equal(t, int8(-1), hp.factionID)
	assert.Equal(t, int8(-1), hp.teamRaw)
	assert.Equal(t, uint8(2), hp.slot)
}

func TestParseSlotEntry_UIDOnlyWhenEightChars(t *testing.T) {
	hp, ok := parseSlotEntry("HName,123,8094,TT,0,-1,0,0,0,1,0", 0)
	require.True(t, ok)
	assert.Empty(t, hp.uid)
}

func TestParseSlotEntry_HPrefix(t *testing.T) {
	hp, ok := parseSlotEntry("HH,12345678,8094,TT,0,-1,0,0,0,1,0", 0)
	require.True(t, ok)
	assert.Equal(t, "H", hp.name, "exactly one leading H is stripped")

	// A single-character name keeps its H.
	hp, ok = parseSlotEntry("H,12345678,8094,TT,0,-1,0,0,0,1,0", 0)
	require.True(t, ok)
	assert.Equal(t, "H", hp.name)
}

func TestFindRoster(t *testing.T) {
	data := []byte("junk;S=HAlice,12345678,8094,TT,0,-1,0,0,0,1,0:X:HObs,87654321,8094,TT,-1,-1,-1,-1,0,1,0;R=next\x00tail")

	players, spectators, occupied := findRoster(data)
	require.Len(t, players, 1)
	assert.Equal(t, "Alice", players[0].name)
	assert.Equal(t, uint8(0), players[0].slot)

	require.Len(t, spectators, 1)
	assert.Equal(t, "Obs", spectators[0])

	// Slot 1 is empty; players and spectators both occupy slots.
	assert.Equal(t, []uint8{0, 2}, occupied)
}

func TestFindRoster_TerminatesOnNextFieldMarker(t *testing.T) {
	// The ;R= lookahead ends the span even without a NUL.
	data := []byte(";S=HBob,12345678,8094,TT,1,-1,1,1,0,1,0;R=rest")
	players, _, _ := findRoster(data)
	require.Len(t, players, 1)
	assert.Equal(t, "Bob", players[0].name)
}

func TestFindChunksStart(t *testing.T) {
	data := []byte(";S=entry\x00chunkdata")
	assert.Equal(t, 9, findChunksStart(data))

	assert.Equal(t, -1, findChunksStart([]byte(";S=no terminator")))
	assert.Equal(t, -1, findChunksStart([]byte("no marker\x00")))
}

func TestDecodeText_TurkishFallback(t *testing.T) {
	decoded := decodeText([]byte("Test\xDD\xFD"))
	assert.Equal(t, "Testİı", decoded)

	// Valid UTF-8 passes through untouched.
	assert.Equal(t, "Bäcker", decodeText([]byte("Bäcker")))

	// Non-curated high bytes decode as Latin-1, never as replacement
	// characters.
	assert.Equal(t, "Aéÿ", decodeText([]byte{'A', 0xE9, 0xFF}))
	assert.NotContains(t, decodeText([]byte{'A', 0xB5}), "�")
}
