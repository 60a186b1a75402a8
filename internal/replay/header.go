package replay

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	mapMarker    = []byte("M=")
	rosterMarker = []byte(";S=")
)

// headerPlayer is a roster entry as parsed from the header, before color
// and team resolution.
type headerPlayer struct {
	name      string
	uid       string
	colorID   int8
	factionID int8
	teamRaw   int8
	slot      uint8
}

// headerResult is the output of the single header pass.
type headerResult struct {
	mapName    string
	players    []headerPlayer
	spectators []string

	// occupiedSlots lists the slot index of every non-empty entry,
	// players and spectators alike, in slot order. The engine's
	// player-number scheme is derived from it.
	occupiedSlots []uint8

	// chunksStart is the offset of the command stream, -1 when no NUL
	// terminator follows the roster section (nothing to decode).
	chunksStart int
}

// parseHeader extracts the map name, the roster, and the chunk stream
// offset. The binary preamble may contain NUL bytes before the text
// section, so markers are searched over the whole buffer.
func parseHeader(data []byte) (headerResult, error) {
	mapName, ok := findMapName(data)
	if !ok {
		return headerResult{}, &ParseError{Msg: "could not find map name"}
	}

	players, spectators, occupied := findRoster(data)

	return headerResult{
		mapName:       mapName,
		players:       players,
		spectators:    spectators,
		occupiedSlots: occupied,
		chunksStart:   findChunksStart(data),
	}, nil
}

// findMapName scans for the M= marker and takes bytes up to the next
// semicolon. Later occurrences are tried when an earlier span is empty
// or not decodable as text.
func findMapName(data []byte) (string, bool) {
	for i := 0; ; {
		i = nextMarker(data, mapMarker, i)
		if i < 0 {
			return "", false
		}
		start := i + len(mapMarker)
		end := start
		for end < len(data) && data[end] != ';' {
			end++
		}
		if end > start {
			if name, ok := mapNameFromPath(data[start:end]); ok {
				return name, true
			}
		}
		i = start
	}
}

// mapNameFromPath strips everything up to and including the first
// "maps/" substring; a path without it is returned unchanged.
func mapNameFromPath(raw []byte) (string, bool) {
	if !utf8.Valid(raw) {
		return "", false
	}
	path := string(raw)
	if idx := strings.Index(path, "maps/"); idx >= 0 {
		name := path[idx+len("maps/"):]
		if name != "" {
			return name, true
		}
	}
	if path != "" {
		return path, true
	}
	return "", false
}

// findRoster scans for the ;S= marker and parses every lobby slot. The
// span ends at a NUL, a line break, or a ";<UPPERCASE>=" lookahead (the
// next header field): values may legitimately contain semicolons, so
// only a recognizable field marker terminates the span.
func findRoster(data []byte) (players []headerPlayer, spectators []string, occupied []uint8) {
	i := nextMarker(data, rosterMarker, 0)
	if i < 0 {
		return nil, nil, nil
	}

	start := i + len(rosterMarker)
	end := start
	for end < len(data) {
		b := data[end]
		if b == 0 || b == '\n' || b == '\r' {
			break
		}
		if end+2 < len(data) && b == ';' && data[end+1] >= 'A' && data[end+1] <= 'Z' && data[end+2] == '=' {
			break
		}
		end++
	}
	if end <= start {
		return nil, nil, nil
	}

	rosterText := decodeText(data[start:end])
	for slotIdx, entry := range strings.Split(rosterText, ":") {
		hp, ok := parseSlotEntry(entry, uint8(slotIdx))
		if !ok {
			continue
		}
		occupied = append(occupied, uint8(slotIdx))
		if hp.teamRaw >= 0 {
			players = append(players, hp)
		} else {
			spectators = append(spectators, hp.name)
		}
	}
	return players, spectators, occupied
}

// parseSlotEntry parses one comma-separated slot string:
// HName,UID,Port,TT,ColorID,field5,FactionID,Team,... with at least
// eight fields. Empty-slot tokens and malformed entries yield no entry.
func parseSlotEntry(s string, slot uint8) (headerPlayer, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "X" || s == "O" || s == ";" {
		return headerPlayer{}, false
	}

	parts := strings.Split(s, ",")
	if len(parts) < 8 {
		return headerPlayer{}, false
	}

	name := parts[0]
	if strings.HasPrefix(name, "H") && len(name) > 1 {
		name = name[1:]
	}
	if name == "" {
		return headerPlayer{}, false
	}

	uid := ""
	if len(parts[1]) == 8 {
		uid = parts[1]
	}

	return headerPlayer{
		name:      name,
		uid:       uid,
		colorID:   parseFieldInt8(parts, 4),
		factionID: parseFieldInt8(parts, 6),
		teamRaw:   parseFieldInt8(parts, 7),
		slot:      slot,
	}, true
}

// parseFieldInt8 parses parts[idx] as a signed id, defaulting to -1 for
// absent or malformed fields.
func parseFieldInt8(parts []string, idx int) int8 {
	if idx >= len(parts) {
		return -1
	}
	v, err := strconv.ParseInt(parts[idx], 10, 8)
	if err != nil {
		return -1
	}
	return int8(v)
}

// findChunksStart locates the first NUL byte after the roster marker.
func findChunksStart(data []byte) int {
	i := nextMarker(data, rosterMarker, 0)
	if i < 0 {
		return -1
	}
	for j := i; j < len(data); j++ {
		if data[j] == 0 {
			return j + 1
		}
	}
	return -1
}
