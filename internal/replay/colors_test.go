package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestGap(t *testing.T) {
	tests := []struct {
		name   string
		used   []int8
		start  int8
		end    int8
		length int8
	}{
		{"low ids taken", []int8{0, 1}, 2, 8, 7},
		{"nothing taken", nil, 0, 8, 9},
		{"split runs, longer wins", []int8{3}, 4, 8, 5},
		{"equal runs prefer larger end", []int8{4}, 5, 8, 4},
		{"all taken", []int8{0, 1, 2, 3, 4, 5, 6, 7, 8}, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			used := make(map[int8]bool)
			for _, c := range tt.used {
				used[c] = true
			}
			gap := bestGap(used)
			assert.Equal(t, tt.start, gap.start)
			assert.Equal(t, tt.end, gap.end)
			assert.Equal(t, tt.length, gap.length)
		})
	}
}

func TestAssignColors_NoCollisions(t *testing.T) {
	players := []headerPlayer{
		{name: "a", colorID: 2, slot: 0},
		{name: "b", colorID: -1, slot: 1},
		{name: "c", colorID: -1, slot: 2},
		{name: "d", colorID: 2, slot: 3}, // duplicate explicit pick stays
	}
	assignColors(players)

	seen := make(map[int8]int)
	for _, p := range players {
		require.GreaterOrEqual(t, p.colorID, int8(0))
		require.Less(t, p.colorID, int8(10))
		seen[p.colorID]++
	}
	// Only the duplicated explicit pick may collide.
	assert.Equal(t, 2, seen[2])
	assert.Len(t, seen, 3)
}

func TestAssignColors_RoomyGapWalksFromStart(t *testing.T) {
	// Used: 0,1 leaves the 2-8 run (length 7 >= 3), so assignment
	// starts at the run start.
	players := []headerPlayer{
		{name: "a", colorID: 0, slot: 0},
		{name: "b", colorID: 1, slot: 1},
		{name: "c", colorID: -1, slot: 2},
		{name: "d", colorID: -1, slot: 3},
	}
	assignColors(players)
	assert.Equal(t, int8(2), players[2].colorID)
	assert.Equal(t, int8(3), players[3].colorID)
}

func TestAssignColors_CrampedGapWalksFromEnd(t *testing.T) {
	// Used: 0,1,2,3,5,6,8 leaves runs {4} and {7}; tie broken to the
	// larger end (7), and a short run starts its walk at the run end.
	players := []headerPlayer{
		{name: "a", colorID: 0, slot: 0},
		{name: "b", colorID: 1, slot: 1},
		{name: "c", colorID: 2, slot: 2},
		{name: "d", colorID: 3, slot: 3},
		{name: "e", colorID: 5, slot: 4},
		{name: "f", colorID: 6, slot: 5},
		{name: "g", colorID: 8, slot: 6},
		{name: "h", colorID: -1, slot: 7},
	}
	assignColors(players)
	assert.Equal(t, int8(7), players[7].colorID)
}

func TestAssignColors_Deterministic(t *testing.T) {
	build := func() []headerPlayer {
		return []headerPlayer{
			{name: "a", colorID: -1, slot: 0},
			{name: "b", colorID: 4, slot: 1},
			{name: "c", colorID: -1, slot: 2},
		}
	}
	first := build()
	second := build()
	assignColors(first)
	assignColors(second)
	for i := range first {
		assert.Equal(t, first[i].colorID, second[i].colorID)
	}
}

func TestAssignColors_WhiteOnlyWhenExhausted(t *testing.T) {
	players := make([]headerPlayer, 10)
	for i := range players {
		players[i] = headerPlayer{name: "p", colorID: -1, slot: uint8(i)}
	}
	assignColors(players)

	seen := make(map[int8]bool)
	for _, p := range players {
		assert.False(t, seen[p.colorID], "color %d assigned twice", p.colorID)
		seen[p.colorID] = true
	}
	assert.True(t, seen[9], "tenth player takes the reserved white id")
}
