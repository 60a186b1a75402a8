// Package replay decodes the proprietary BFME2 replay format and infers
// structured match facts from it. The format has no authoritative
// specification, no top-level record framing, and known engine bugs that
// desynchronize the command stream, so decoding is defensive throughout:
// marker search over the whole buffer, bounded allocations, byte-level
// resynchronization, and a graded winner rather than hard failure.
package replay

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"slices"
	"strings"

	"github.com/temasictfic/bfme2replaybot/internal/model"
)

// Magic is the fixed signature at the start of every replay file.
var Magic = []byte("BFME2RPL")

// Header timestamps follow the magic at fixed offsets; everything after
// them is located by marker search.
const headerFixedSize = 16

// SupportedMapSubstring gates decoding to the one supported map.
const SupportedMapSubstring = "wor rhun"

// SAGE engine simulation rate, used to estimate duration from timecodes.
const ticksPerSecond = 5

// Engine player numbers start at 3; ids 0-2 are reserved pseudo-players.
const firstPlayerNum = 3

// Decoder decodes replay buffers. It holds no per-decode state, so one
// Decoder may be shared by any number of goroutines working on
// independent buffers.
type Decoder struct {
	logger *slog.Logger
}

// NewDecoder creates a decoder with only a logger dependency.
func NewDecoder(logger *slog.Logger) *Decoder {
	return &Decoder{logger: logger}
}

// Decode parses one replay buffer into its match facts.
//
// Errors: ErrInvalidHeader for a short buffer or bad signature,
// *ParseError when a required header marker is missing,
// *UnsupportedMapError for any map other than the supported one (checked
// before roster or stream work), ErrNoPlayers for an all-spectator or
// empty roster. Winner, faction, and duration uncertainty is expressed
// in the result, never as an error.
func (d *Decoder) Decode(data []byte) (*model.ReplayInfo, error) {
	if len(data) < len(Magic)+headerFixedSize || !bytes.Equal(data[:len(Magic)], Magic) {
		return nil, ErrInvalidHeader
	}

	header, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	// Early policy filter: reject other maps before any stream work.
	if !strings.Contains(strings.ToLower(header.mapName), SupportedMapSubstring) {
		return nil, &UnsupportedMapError{MapName: header.mapName}
	}

	startTime := binary.LittleEndian.Uint32(data[8:])
	endTime := binary.LittleEndian.Uint32(data[12:])

	if len(header.players) == 0 {
		return nil, ErrNoPlayers
	}

	// The engine numbers occupied slots (players and spectators alike)
	// sequentially from 3 in slot order; events reference that number,
	// not the lobby slot.
	pnToSlot := make(map[uint32]uint8, len(header.occupiedSlots))
	for i, slot := range header.occupiedSlots {
		pnToSlot[firstPlayerNum+uint32(i)] = slot
	}

	playerSlots := make(map[uint8]bool, len(header.players))
	for _, hp := range header.players {
		playerSlots[hp.slot] = true
	}

	assignColors(header.players)
	players := buildPlayers(header.players)

	winner := model.WinnerUnknown
	gameCrashed := false
	var estimatedDuration uint32

	if header.chunksStart >= 0 {
		res := decodeStream(data, header.chunksStart, pnToSlot, playerSlots)

		for i := range players {
			p := &players[i]
			if pos, ok := res.positions[p.Slot]; ok {
				posCopy := pos
				p.MapPosition = &posCopy
			}
			if f, ok := res.inferredFaction(p.Slot); ok {
				fCopy := f
				p.ActualFaction = &fCopy
			}
		}

		sides := teamSides(players)
		winner = determineWinner(res, header.players, sides, pnToSlot)

		// No end-game event and no defeats at all means the match never
		// concluded: the game crashed or the recording was cut off.
		if winner == model.WinnerUnknown && !res.hasEndgame && len(res.defeated) == 0 {
			gameCrashed = true
			winner = model.WinnerNotConcluded
		}

		if res.maxTimecode > 0 {
			estimatedDuration = res.maxTimecode / ticksPerSecond
		}

		remapTeamsBySide(players, sides)

		d.logger.Debug("Decoded replay stream",
			"map", header.mapName,
			"players", len(players),
			"winner", winner.String(),
			"maxTimecode", res.maxTimecode,
			"defeated", len(res.defeated),
			"hasEndgame", res.hasEndgame)
	}

	spectators := make([]model.Spectator, 0, len(header.spectators))
	for _, name := range header.spectators {
		spectators = append(spectators, model.Spectator{Name: name})
	}

	return &model.ReplayInfo{
		MapName:               header.mapName,
		Players:               players,
		Spectators:            spectators,
		StartTime:             startTime,
		EndTime:               endTime,
		Winner:                winner,
		GameCrashed:           gameCrashed,
		EstimatedDurationSecs: estimatedDuration,
	}, nil
}

// buildPlayers converts header entries into roster players. Display team
// numbers are provisionally the 1-based rank of the lobby team id; the
// side remap overwrites them once positions are known.
func buildPlayers(headerPlayers []headerPlayer) []model.Player {
	seen := make(map[int8]bool)
	var teamRaws []int8
	for _, hp := range headerPlayers {
		if hp.teamRaw >= 0 && !seen[hp.teamRaw] {
			seen[hp.teamRaw] = true
			teamRaws = append(teamRaws, hp.teamRaw)
		}
	}
	slices.Sort(teamRaws)

	players := make([]model.Player, 0, len(headerPlayers))
	for _, hp := range headerPlayers {
		team := hp.teamRaw + 1
		if idx := slices.Index(teamRaws, hp.teamRaw); idx >= 0 {
			team = int8(idx) + 1
		}

		color := model.GrayRGB
		if hp.colorID >= 0 && int(hp.colorID) < len(model.PlayerColors) {
			color = model.PlayerColors[hp.colorID]
		}

		players = append(players, model.Player{
			Name:    hp.name,
			UID:     hp.uid,
			Team:    team,
			TeamRaw: hp.teamRaw,
			Slot:    hp.slot,
			Faction: model.Faction(hp.factionID),
			ColorID: hp.colorID,
			Color:   color,
		})
	}
	return players
}
