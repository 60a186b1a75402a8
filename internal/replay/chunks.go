package replay

import (
	"encoding/binary"
	"math"
	"slices"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/temasictfic/bfme2replaybot/internal/model"
)

// Command order-type codes from the BFME2 stream.
const (
	cmdBuildObject    = 1049
	cmdBuildObject2   = 1050
	cmdUnitCommand    = 1071 // also carries position data
	cmdEndGame        = 29
	cmdPlayerDefeated = 1096
)

// Sanity ceilings for chunk parsing. The stream is attacker-influenced,
// so every count read from it is bounded before any allocation.
const (
	maxSaneTimecode  = 10_000_000
	maxSanePlayerNum = 100
	maxSaneArgTypes  = 100
	maxSaneArgCount  = 50
)

// Building type ids recognized for faction inference.
const (
	buildingIDMin = 2000
	buildingIDMax = 3000
)

// chunkHeaderSize is timecode + order type + player number + arg count.
const chunkHeaderSize = 13

// argSizes maps an argument type byte to its per-element width.
// Unknown types default to four bytes.
var argSizes = map[byte]int{
	0x00: 4,  // int32
	0x01: 4,  // float
	0x02: 1,  // bool
	0x03: 4,  // object id
	0x04: 4,  // unknown
	0x05: 8,  // screen position
	0x06: 12, // vec3
	0x07: 12, // another 12-byte type
	0x08: 16, // quaternion/camera
	0x09: 4,  // BFME2-specific
	0x0A: 4,
}

func argSize(t byte) int {
	if s, ok := argSizes[t]; ok {
		return s
	}
	return 4
}

// argKind tags a decoded argument value.
type argKind uint8

const (
	argOther argKind = iota
	argInt
	argFloat
	argVec3
)

// chunkArg is a closed tagged variant keyed by the wire type byte.
type chunkArg struct {
	kind argKind
	i    uint32
	f    float32
	vec  [3]float32
}

// chunk is one decoded command record.
type chunk struct {
	timecode  uint32
	orderType uint32
	playerNum uint32
	args      []chunkArg
}

// decodeChunk attempts to parse one chunk at offset. It returns the
// offset just past the chunk on success; failure means the bytes at
// offset do not form a structurally valid chunk.
func decodeChunk(data []byte, offset int) (chunk, int, bool) {
	if offset+chunkHeaderSize > len(data) {
		return chunk{}, 0, false
	}

	c := chunk{
		timecode:  binary.LittleEndian.Uint32(data[offset:]),
		orderType: binary.LittleEndian.Uint32(data[offset+4:]),
		playerNum: binary.LittleEndian.Uint32(data[offset+8:]),
	}
	nArgTypes := int(data[offset+12])

	if c.timecode > maxSaneTimecode || c.playerNum > maxSanePlayerNum || nArgTypes > maxSaneArgTypes {
		return chunk{}, 0, false
	}

	pos := offset + chunkHeaderSize

	// Argument signature: (type, count) descriptor pairs.
	type argDesc struct {
		typ   byte
		count int
	}
	sig := make([]argDesc, 0, nArgTypes)
	for i := 0; i < nArgTypes; i++ {
		if pos+2 > len(data) {
			return chunk{}, 0, false
		}
		d := argDesc{typ: data[pos], count: int(data[pos+1])}
		if d.count > maxSaneArgCount {
			return chunk{}, 0, false
		}
		sig = append(sig, d)
		pos += 2
	}

	for _, d := range sig {
		size := argSize(d.typ)
		for i := 0; i < d.count; i++ {
			if pos+size > len(data) {
				return chunk{}, 0, false
			}
			raw := data[pos : pos+size]
			switch d.typ {
			case 0x00:
				c.args = append(c.args, chunkArg{kind: argInt, i: binary.LittleEndian.Uint32(raw)})
			case 0x01:
				c.args = append(c.args, chunkArg{kind: argFloat, f: leFloat32(raw)})
			case 0x06:
				c.args = append(c.args, chunkArg{kind: argVec3, vec: [3]float32{
					leFloat32(raw), leFloat32(raw[4:]), leFloat32(raw[8:]),
				}})
			default:
				c.args = append(c.args, chunkArg{kind: argOther})
			}
			pos += size
		}
	}

	return c, pos, true
}

func leFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// position returns the first vec3 argument as a 2D world coordinate.
func (c *chunk) position() (geom.XY, bool) {
	for _, a := range c.args {
		if a.kind == argVec3 {
			return geom.XY{X: float64(a.vec[0]), Y: float64(a.vec[1])}, true
		}
	}
	return geom.XY{}, false
}

// buildingID returns the first integer argument in the building id range.
func (c *chunk) buildingID() (uint32, bool) {
	for _, a := range c.args {
		if a.kind == argInt && a.i > buildingIDMin && a.i < buildingIDMax {
			return a.i, true
		}
	}
	return 0, false
}

// streamResult accumulates everything the two scanners extract from the
// command stream. It lives for one decode call only.
type streamResult struct {
	// positions is the merged first-observed coordinate per slot, build
	// positions taking precedence over unit-command positions.
	positions map[uint8]geom.XY

	// buildingIDs is the set of observed building type ids per slot.
	buildingIDs map[uint8]map[uint32]struct{}

	defeated        map[uint32]struct{}
	endgamePlayer   uint32
	endgameTimecode uint32
	hasEndgame      bool

	maxTimecode uint32
}

func newStreamResult() *streamResult {
	return &streamResult{
		positions:   make(map[uint8]geom.XY),
		buildingIDs: make(map[uint8]map[uint32]struct{}),
		defeated:    make(map[uint32]struct{}),
	}
}

// recordEndgame keeps the end-game event with the latest timecode.
func (r *streamResult) recordEndgame(playerNum, timecode uint32) {
	if !r.hasEndgame || timecode >= r.endgameTimecode {
		r.endgamePlayer = playerNum
		r.endgameTimecode = timecode
	}
	r.hasEndgame = true
}

// decodeStream runs the structured chunk scanner over data[start:]. A
// failed decode advances one byte and retries; that byte-level resync is
// the format's primary recovery mechanism for corrupt or misaligned
// chunks. After the structured pass the independent raw scanner runs
// over the same span to recover critical events the chunk walk missed.
func decodeStream(data []byte, start int, pnToSlot map[uint32]uint8, playerSlots map[uint8]bool) *streamResult {
	res := newStreamResult()

	// Build and unit positions are tracked separately and merged after
	// the pass: a build command pins the base location, a unit command
	// is only a fallback.
	buildPositions := make(map[uint8]geom.XY)
	unitPositions := make(map[uint8]geom.XY)

	for pos := start; pos+chunkHeaderSize <= len(data); {
		c, next, ok := decodeChunk(data, pos)
		if !ok {
			pos++
			continue
		}

		if c.timecode > res.maxTimecode {
			res.maxTimecode = c.timecode
		}

		slot, mapped := pnToSlot[c.playerNum]
		if !mapped {
			pos = next
			continue
		}
		isPlayer := playerSlots[slot]

		if isPlayer {
			switch c.orderType {
			case cmdBuildObject, cmdBuildObject2:
				if p, ok := c.position(); ok {
					if _, seen := buildPositions[slot]; !seen {
						buildPositions[slot] = p
					}
				}
				if bid, ok := c.buildingID(); ok {
					ids := res.buildingIDs[slot]
					if ids == nil {
						ids = make(map[uint32]struct{})
						res.buildingIDs[slot] = ids
					}
					ids[bid] = struct{}{}
				}
			case cmdUnitCommand:
				if p, ok := c.position(); ok {
					if _, seen := unitPositions[slot]; !seen {
						unitPositions[slot] = p
					}
				}
			case cmdEndGame:
				res.recordEndgame(c.playerNum, c.timecode)
			case cmdPlayerDefeated:
				res.defeated[c.playerNum] = struct{}{}
			}
		}

		pos = next
	}

	for slot, p := range buildPositions {
		res.positions[slot] = p
	}
	for slot, p := range unitPositions {
		if _, seen := res.positions[slot]; !seen {
			res.positions[slot] = p
		}
	}

	validPlayerNums := make(map[uint32]struct{})
	for pn, slot := range pnToSlot {
		if playerSlots[slot] {
			validPlayerNums[pn] = struct{}{}
		}
	}
	rawScanCriticalEvents(data, start, validPlayerNums, res)

	return res
}

// inferredFaction derives a faction from a slot's observed building ids.
// The ranges are disjoint; the lowest id inside any range decides, so
// repeated decodes of the same buffer agree.
func (r *streamResult) inferredFaction(slot uint8) (model.Faction, bool) {
	ids := make([]uint32, 0, len(r.buildingIDs[slot]))
	for bid := range r.buildingIDs[slot] {
		ids = append(ids, bid)
	}
	slices.Sort(ids)
	for _, bid := range ids {
		if f, ok := factionFromBuilding(bid); ok {
			return f, true
		}
	}
	return 0, false
}

// factionFromBuilding maps a building type id onto its faction range.
func factionFromBuilding(buildingType uint32) (model.Faction, bool) {
	switch {
	case buildingType >= 2622 && buildingType <= 2720:
		return model.FactionMen, true
	case buildingType >= 2577 && buildingType <= 2620:
		return model.FactionElves, true
	case buildingType >= 2541 && buildingType <= 2575:
		return model.FactionDwarves, true
	case buildingType >= 2151 && buildingType <= 2185:
		return model.FactionGoblins, true
	case buildingType >= 2060 && buildingType <= 2090:
		return model.FactionIsengard, true
	case buildingType >= 2130 && buildingType <= 2150:
		return model.FactionMordor, true
	default:
		return 0, false
	}
}
