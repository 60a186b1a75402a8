// Package model defines the match facts extracted from a BFME2 replay:
// factions, players, spectators, the graded winner, and the assembled
// ReplayInfo result record.
package model

import (
	"fmt"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
)

// Faction is a lobby faction id. Negative one means the player picked
// "random" in the lobby; any id outside the known set is carried through
// as-is and displayed as Unknown(n).
type Faction int8

const (
	FactionRandom   Faction = -1
	FactionMen      Faction = 0
	FactionElves    Faction = 1
	FactionDwarves  Faction = 2
	FactionIsengard Faction = 3
	FactionMordor   Faction = 4
	FactionGoblins  Faction = 5
	FactionAngmar   Faction = 6
)

func (f Faction) String() string {
	switch f {
	case FactionRandom:
		return "Random"
	case FactionMen:
		return "Men"
	case FactionElves:
		return "Elves"
	case FactionDwarves:
		return "Dwarves"
	case FactionIsengard:
		return "Isengard"
	case FactionMordor:
		return "Mordor"
	case FactionGoblins:
		return "Goblins"
	case FactionAngmar:
		return "Angmar"
	default:
		return fmt.Sprintf("Unknown(%d)", int8(f))
	}
}

// Winner is the graded match outcome. The Likely variants are heuristic
// results from the majority-defeated strategy, not certain ones.
type Winner uint8

const (
	WinnerUnknown Winner = iota
	WinnerLeftTeam
	WinnerRightTeam
	WinnerLikelyLeftTeam
	WinnerLikelyRightTeam
	WinnerNotConcluded
)

func (w Winner) String() string {
	switch w {
	case WinnerLeftTeam:
		return "Left Team"
	case WinnerRightTeam:
		return "Right Team"
	case WinnerLikelyLeftTeam:
		return "Left Team (likely)"
	case WinnerLikelyRightTeam:
		return "Right Team (likely)"
	case WinnerNotConcluded:
		return "Not Concluded"
	default:
		return "Unknown"
	}
}

// Likely reports whether the outcome came from a heuristic strategy.
func (w Winner) Likely() bool {
	return w == WinnerLikelyLeftTeam || w == WinnerLikelyRightTeam
}

// PlayerColors is the fixed 10-entry lobby palette. Index 9 (white) is
// reserved: gap-based random assignment never seeds from it, it is only
// reached when a player picked it explicitly or every other id is taken.
var PlayerColors = [10][3]uint8{
	{0, 74, 245},    // 0 blue
	{245, 15, 15},   // 1 red
	{245, 225, 15},  // 2 yellow
	{28, 119, 30},   // 3 green
	{243, 130, 20},  // 4 orange
	{24, 225, 235},  // 5 cyan
	{128, 22, 220},  // 6 purple
	{235, 91, 180},  // 7 pink
	{105, 105, 105}, // 8 gray
	{255, 255, 255}, // 9 white
}

// GrayRGB is the fallback color for an out-of-palette color id.
var GrayRGB = [3]uint8{128, 128, 128}

// Player is one roster entry. Slot is the 0-based lobby position and the
// stable identity key throughout decoding; TeamRaw is the original lobby
// team id used as the join key before side resolution.
type Player struct {
	Name    string
	UID     string // 8-hex-digit unique id, empty if absent
	Team    int8   // display value after side remap: 1 = Left, 2 = Right
	TeamRaw int8
	Slot    uint8
	Faction Faction
	ColorID int8
	Color   [3]uint8

	// MapPosition is the first observed in-game world coordinate for
	// this slot, nil when no positioned command was decoded.
	MapPosition *geom.XY

	// ActualFaction is inferred from observed building type ids, nil
	// when no known building was seen.
	ActualFaction *Faction
}

// DisplayFaction returns the faction to show: the building-inferred one
// overrides the lobby pick only when the lobby pick was Random.
func (p *Player) DisplayFaction() Faction {
	if p.Faction == FactionRandom && p.ActualFaction != nil {
		return *p.ActualFaction
	}
	return p.Faction
}

// Spectator carries a name only; spectators never have team, position,
// or faction data.
type Spectator struct {
	Name string
}

// ReplayInfo is the sole output of the decode pipeline. Players are in
// ascending slot order and the struct is not mutated after assembly.
type ReplayInfo struct {
	MapName    string
	Players    []Player
	Spectators []Spectator

	// StartTime/EndTime are unix seconds from the fixed header offsets,
	// zero when absent.
	StartTime uint32
	EndTime   uint32

	Winner      Winner
	GameCrashed bool

	// EstimatedDurationSecs is derived from the maximum observed chunk
	// timecode at the fixed simulation tick rate; zero when no chunk
	// was decoded.
	EstimatedDurationSecs uint32
}

// Duration returns the match duration in seconds. The header timestamps
// win when both are present and consistent; otherwise the timecode
// estimate is used and flagged as such.
func (r *ReplayInfo) Duration() (secs uint32, estimated, ok bool) {
	if r.StartTime > 0 && r.EndTime > r.StartTime {
		return r.EndTime - r.StartTime, false, true
	}
	if r.EstimatedDurationSecs > 0 {
		return r.EstimatedDurationSecs, true, true
	}
	return 0, false, false
}

// StartDate formats the header start timestamp, or "Unknown" without one.
func (r *ReplayInfo) StartDate() string {
	if r.StartTime == 0 {
		return "Unknown"
	}
	return time.Unix(int64(r.StartTime), 0).UTC().Format("2006-01-02 15:04")
}

// DurationText formats Duration as m:ss, with a tilde prefix for
// estimates and "Unknown" when nothing is known.
func (r *ReplayInfo) DurationText() string {
	secs, estimated, ok := r.Duration()
	if !ok {
		return "Unknown"
	}
	text := fmt.Sprintf("%d:%02d", secs/60, secs%60)
	if estimated {
		return "~" + text
	}
	return text
}
