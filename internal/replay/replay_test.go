package replay

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temasictfic/bfme2replaybot/internal/model"
)

func testDecoder() *Decoder {
	return NewDecoder(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// replayBuilder assembles a synthetic replay buffer: magic, the two
// fixed timestamps, the text header, and an optional chunk stream.
type replayBuilder struct {
	mapPath string
	roster  string
	chunks  []byte
	noNul   bool
}

func newReplay(roster string) *replayBuilder {
	return &replayBuilder{mapPath: "maps/map wor rhun", roster: roster}
}

func (b *replayBuilder) withMap(path string) *replayBuilder {
	b.mapPath = path
	return b
}

func (b *replayBuilder) withChunks(chunks ...[]byte) *replayBuilder {
	for _, c := range chunks {
		b.chunks = append(b.chunks, c...)
	}
	return b
}

func (b *replayBuilder) withoutStream() *replayBuilder {
	b.noNul = true
	return b
}

func (b *replayBuilder) bytes() []byte {
	data := append([]byte{}, Magic...)
	data = binary.LittleEndian.AppendUint32(data, 1700000000)
	data = binary.LittleEndian.AppendUint32(data, 1700001000)
	data = append(data, "M="+b.mapPath+";S="+b.roster...)
	if b.noNul {
		return data
	}
	data = append(data, 0)
	return append(data, b.chunks...)
}

func playerEntry(name, uid string, colorID, factionID, team int) string {
	return "H" + name + "," + uid + ",8094,TT," +
		itoa(colorID) + ",-1," + itoa(factionID) + "," + itoa(team) + ",0,1,0"
}

func itoa(v int) string {
	if v < 0 {
		return "-1"
	}
	return string(rune('0' + v))
}

func TestDecode_FullMatch(t *testing.T) {
	roster := playerEntry("Alice", "11111111", 0, -1, 0) + ":" +
		playerEntry("Bob", "22222222", 1, 2, 1)

	// Alice (pn 3) builds on the left and records the end-game event;
	// Bob (pn 4) builds on the right.
	data := newReplay(roster).withChunks(
		buildChunk(100, 3, 1000, 500, 2650),
		buildChunk(200, 4, 4000, 500, 2600),
		endgameChunk(6000, 3),
	).bytes()

	info, err := testDecoder().Decode(data)
	require.NoError(t, err)

	assert.Equal(t, "map wor rhun", info.MapName)
	assert.Equal(t, uint32(1700000000), info.StartTime)
	assert.Equal(t, model.WinnerLeftTeam, info.Winner)
	assert.False(t, info.GameCrashed)
	assert.Equal(t, uint32(6000/ticksPerSecond), info.EstimatedDurationSecs)

	require.Len(t, info.Players, 2)
	alice, bob := info.Players[0], info.Players[1]

	assert.Equal(t, "Alice", alice.Name)
	assert.Equal(t, "11111111", alice.UID)
	assert.Equal(t, int8(1), alice.Team, "left side remaps to team 1")
	assert.Equal(t, int8(2), bob.Team)

	require.NotNil(t, alice.MapPosition)
	assert.InDelta(t, 1000.0, alice.MapPosition.X, 0.001)

	// Lobby Random resolves to the built faction; an explicit lobby pick
	// is never overridden.
	assert.Equal(t, model.FactionMen, alice.DisplayFaction())
	require.NotNil(t, bob.ActualFaction)
	assert.Equal(t, model.FactionElves, *bob.ActualFaction)
	assert.Equal(t, model.FactionDwarves, bob.DisplayFaction())

	// Header timestamps are consistent, so duration is exact.
	secs, estimated, ok := info.Duration()
	require.True(t, ok)
	assert.False(t, estimated)
	assert.Equal(t, uint32(1000), secs)
}

func TestDecode_InvalidHeader(t *testing.T) {
	_, err := testDecoder().Decode([]byte("too short"))
	assert.ErrorIs(t, err, ErrInvalidHeader)

	bad := newReplay(playerEntry("A", "11111111", 0, 0, 0)).bytes()
	copy(bad, "XXXXXXXX")
	_, err = testDecoder().Decode(bad)
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestDecode_UnsupportedMap(t *testing.T) {
	data := newReplay(playerEntry("A", "11111111", 0, 0, 0)).
		withMap("maps/fords of isen").bytes()

	_, err := testDecoder().Decode(data)
	var mapErr *UnsupportedMapError
	require.ErrorAs(t, err, &mapErr)
	assert.Equal(t, "fords of isen", mapErr.MapName)
}

func TestDecode_NoPlayers(t *testing.T) {
	_, err := testDecoder().Decode(newReplay("X:X:X:X").bytes())
	assert.ErrorIs(t, err, ErrNoPlayers)

	// Spectators alone do not make a match.
	spectator := playerEntry("Obs", "33333333", -1, -1, -1)
	_, err = testDecoder().Decode(newReplay(spectator).bytes())
	assert.ErrorIs(t, err, ErrNoPlayers)
}

func TestDecode_CrashedGame(t *testing.T) {
	roster := playerEntry("Alice", "11111111", 0, 0, 0) + ":" +
		playerEntry("Bob", "22222222", 1, 1, 1)

	// Activity but neither an end-game event nor any defeat.
	data := newReplay(roster).withChunks(
		buildChunk(100, 3, 1000, 500, 2650),
		buildChunk(200, 4, 4000, 500, 2600),
	).bytes()

	info, err := testDecoder().Decode(data)
	require.NoError(t, err)
	assert.True(t, info.GameCrashed)
	assert.Equal(t, model.WinnerNotConcluded, info.Winner)
	assert.Equal(t, uint32(200/ticksPerSecond), info.EstimatedDurationSecs)
}

func TestDecode_MissingStream(t *testing.T) {
	roster := playerEntry("Alice", "11111111", 0, 0, 0) + ":" +
		playerEntry("Bob", "22222222", 1, 1, 1)
	data := newReplay(roster).withoutStream().bytes()

	info, err := testDecoder().Decode(data)
	require.NoError(t, err)
	assert.Equal(t, model.WinnerUnknown, info.Winner)
	assert.False(t, info.GameCrashed, "no stream is not a crash verdict")
	assert.Zero(t, info.EstimatedDurationSecs)
	assert.Nil(t, info.Players[0].MapPosition)
}

func TestDecode_PlayerNumbersSkipEmptySlots(t *testing.T) {
	// Alice sits in slot 1, Bob in slot 3; empty slots do not consume
	// player numbers, so Alice is pn 3 and Bob pn 4.
	roster := "X:" + playerEntry("Alice", "11111111", 0, 0, 0) + ":X:" +
		playerEntry("Bob", "22222222", 1, 1, 1)

	data := newReplay(roster).withChunks(
		buildChunk(100, 3, 1000, 500, 2650),
		buildChunk(200, 4, 4000, 500, 2600),
		endgameChunk(900, 4),
	).bytes()

	info, err := testDecoder().Decode(data)
	require.NoError(t, err)
	require.Len(t, info.Players, 2)
	assert.Equal(t, uint8(1), info.Players[0].Slot)
	assert.Equal(t, uint8(3), info.Players[1].Slot)
	require.NotNil(t, info.Players[0].MapPosition)
	assert.InDelta(t, 1000.0, info.Players[0].MapPosition.X, 0.001)
	assert.Equal(t, model.WinnerRightTeam, info.Winner)
}

func TestDecode_SpectatorsCountTowardPlayerNumbers(t *testing.T) {
	// A spectator in slot 0 shifts the first player's number to 4, and
	// the spectator's own events carry no match weight.
	roster := playerEntry("Obs", "33333333", -1, -1, -1) + ":" +
		playerEntry("Alice", "11111111", 0, 0, 0) + ":" +
		playerEntry("Bob", "22222222", 1, 1, 1)

	data := newReplay(roster).withChunks(
		buildChunk(100, 4, 1000, 500, 2650),
		buildChunk(200, 5, 4000, 500, 2600),
		endgameChunk(900, 4),
	).bytes()

	info, err := testDecoder().Decode(data)
	require.NoError(t, err)
	require.Len(t, info.Spectators, 1)
	assert.Equal(t, "Obs", info.Spectators[0].Name)
	require.Len(t, info.Players, 2)
	require.NotNil(t, info.Players[0].MapPosition)
	assert.Equal(t, model.WinnerLeftTeam, info.Winner)
}

func TestDecode_FullDefeatWinner(t *testing.T) {
	roster := playerEntry("Alice", "11111111", 0, 0, 0) + ":" +
		playerEntry("Bob", "22222222", 1, 1, 1)

	data := newReplay(roster).withChunks(
		buildChunk(100, 3, 1000, 500, 2650),
		buildChunk(200, 4, 4000, 500, 2600),
		defeatedChunk(5000, 4),
	).bytes()

	info, err := testDecoder().Decode(data)
	require.NoError(t, err)
	assert.Equal(t, model.WinnerLeftTeam, info.Winner)
	assert.False(t, info.GameCrashed)
}

func TestDecode_Idempotent(t *testing.T) {
	roster := playerEntry("Alice", "11111111", -1, -1, 0) + ":" +
		playerEntry("Bob", "22222222", -1, -1, 1)

	data := newReplay(roster).withChunks(
		buildChunk(100, 3, 1000, 500, 2650),
		buildChunk(150, 3, 1100, 600, 2630),
		buildChunk(200, 4, 4000, 500, 2600),
		endgameChunk(6000, 3),
	).bytes()

	d := testDecoder()
	first, err := d.Decode(data)
	require.NoError(t, err)
	second, err := d.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecode_ErrorTaxonomyIsDisjoint(t *testing.T) {
	data := newReplay("X").bytes()
	_, err := testDecoder().Decode(data)
	assert.ErrorIs(t, err, ErrNoPlayers)
	assert.False(t, errors.Is(err, ErrInvalidHeader))
	var mapErr *UnsupportedMapError
	assert.False(t, errors.As(err, &mapErr))
}
