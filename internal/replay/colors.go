package replay

// Color assignment resolves every "random" (-1) color id to a concrete
// palette index without colliding with explicit picks. The gap walk
// reproduces the engine lobby's "spread out the leftovers" behavior
// instead of always filling from id 0.

// colorGap is a contiguous run of unused color ids.
type colorGap struct {
	start, end, length int8
}

// assignColors gives every unresolved player a concrete color id,
// deterministically, in slot order.
func assignColors(players []headerPlayer) {
	used := make(map[int8]bool)
	for i := range players {
		if players[i].colorID >= 0 {
			used[players[i].colorID] = true
		}
	}

	gap := bestGap(used)

	// A roomy gap is walked from its start; a cramped one from its end.
	next := gap.end
	if gap.length >= 3 {
		next = gap.start
	}

	for i := range players {
		if players[i].colorID != -1 {
			continue
		}
		for offset := int8(0); offset < 10; offset++ {
			id := (next + offset) % 10
			if !used[id] {
				players[i].colorID = id
				used[id] = true
				next = (id + 1) % 10
				break
			}
		}
	}
}

// bestGap finds the longest contiguous run of unused ids within 0-8
// (id 9, white, is reserved and excluded from gap analysis). Ties are
// broken toward the run with the larger end index.
func bestGap(used map[int8]bool) colorGap {
	var available []int8
	for c := int8(0); c < 9; c++ {
		if !used[c] {
			available = append(available, c)
		}
	}
	if len(available) == 0 {
		return colorGap{}
	}

	best := colorGap{start: available[0], end: available[0], length: 1}
	cur := best
	flush := func() {
		if cur.length > best.length || (cur.length == best.length && cur.end > best.end) {
			best = cur
		}
	}
	for i := 1; i < len(available); i++ {
		if available[i] == available[i-1]+1 {
			cur.end = available[i]
			cur.length++
			continue
		}
		flush()
		cur = colorGap{start: available[i], end: available[i], length: 1}
	}
	flush()
	return best
}
