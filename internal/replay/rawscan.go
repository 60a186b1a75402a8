package replay

import "encoding/binary"

// The structured chunk walk can lose sync and skip past genuine events
// while hunting for the next valid chunk boundary. This scanner is an
// independent single pass over the same span: it checks every byte
// position for the little-endian order codes of the two critical event
// types and validates the surrounding chunk fields before accepting a
// recovery. The multi-field validation window is what keeps coincidental
// byte patterns in argument payloads from becoming false positives.

var (
	defeatedPattern = [4]byte{0x48, 0x04, 0x00, 0x00} // 1096 LE
	endgamePattern  = [4]byte{0x1d, 0x00, 0x00, 0x00} // 29 LE
)

// Acceptance window for recovered events, tighter than the structured
// scanner's ceilings.
const (
	rawScanMaxPlayerNum = 20
	rawScanMinPlayerNum = 3
	rawScanMaxArgTypes  = 10
)

// rawScanCriticalEvents scans data[chunksStart:] for "player defeated"
// and "end game" order patterns and merges validated recoveries into
// res. Accepted end-game events follow the same latest-timecode-wins
// rule as the structured scanner.
func rawScanCriticalEvents(data []byte, chunksStart int, validPlayerNums map[uint32]struct{}, res *streamResult) {
	if len(data) < chunksStart+8 {
		return
	}

	end := len(data) - 3
	for i := chunksStart; i < end; i++ {
		var cmd uint32
		switch {
		case data[i] == defeatedPattern[0] && matchRest(data, i, defeatedPattern):
			cmd = cmdPlayerDefeated
		case data[i] == endgamePattern[0] && matchRest(data, i, endgamePattern):
			cmd = cmdEndGame
		default:
			continue
		}

		// The order field sits at chunk offset +4, so the candidate
		// chunk starts four bytes earlier.
		if i < chunksStart+4 {
			continue
		}
		off := i - 4
		if off+chunkHeaderSize > len(data) {
			continue
		}

		tc := binary.LittleEndian.Uint32(data[off:])
		playerNum := binary.LittleEndian.Uint32(data[off+8:])
		nArgs := uint32(data[off+12])

		if tc == 0 || tc >= maxSaneTimecode {
			continue
		}
		if playerNum < rawScanMinPlayerNum || playerNum > rawScanMaxPlayerNum {
			continue
		}
		if nArgs > rawScanMaxArgTypes {
			continue
		}
		if _, ok := validPlayerNums[playerNum]; !ok {
			continue
		}

		if cmd == cmdPlayerDefeated {
			res.defeated[playerNum] = struct{}{}
		} else {
			res.recordEndgame(playerNum, tc)
		}
	}
}

func matchRest(data []byte, i int, pattern [4]byte) bool {
	return data[i+1] == pattern[1] && data[i+2] == pattern[2] && data[i+3] == pattern[3]
}
