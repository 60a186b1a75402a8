package replay

import (
	"slices"

	"github.com/temasictfic/bfme2replaybot/internal/geo"
	"github.com/temasictfic/bfme2replaybot/internal/model"
)

// teamSides resolves which spatial half each lobby team starts on: the
// first player of a team with a valid recorded position decides. Teams
// with no positioned player stay unresolved and take no part in
// side-dependent outcomes.
func teamSides(players []model.Player) map[int8]geo.Side {
	sides := make(map[int8]geo.Side)
	for i := range players {
		p := &players[i]
		if p.MapPosition == nil || !geo.Valid(*p.MapPosition) {
			continue
		}
		if _, done := sides[p.TeamRaw]; done {
			continue
		}
		sides[p.TeamRaw] = geo.SideOf(*p.MapPosition)
	}
	return sides
}

// remapTeamsBySide rewrites display team numbers so Left is always
// team 1 and Right team 2, independent of lobby team ids.
func remapTeamsBySide(players []model.Player, sides map[int8]geo.Side) {
	for i := range players {
		switch sides[players[i].TeamRaw] {
		case geo.SideLeft:
			players[i].Team = 1
		case geo.SideRight:
			players[i].Team = 2
		}
	}
}

func sideWinner(s geo.Side) model.Winner {
	if s == geo.SideLeft {
		return model.WinnerLeftTeam
	}
	return model.WinnerRightTeam
}

func sideLikelyWinner(s geo.Side) model.Winner {
	if s == geo.SideLeft {
		return model.WinnerLikelyLeftTeam
	}
	return model.WinnerLikelyRightTeam
}

// determineWinner chains the outcome strategies, first applicable wins:
// an observed end-game event (certain), a fully defeated team (certain),
// then the two-team majority-defeated heuristic (likely).
func determineWinner(res *streamResult, players []headerPlayer, sides map[int8]geo.Side, pnToSlot map[uint32]uint8) model.Winner {
	slotToPn := make(map[uint8]uint32, len(pnToSlot))
	for pn, slot := range pnToSlot {
		slotToPn[slot] = pn
	}

	teamPlayers := make(map[int8][]uint32)
	for _, hp := range players {
		if pn, ok := slotToPn[hp.slot]; ok {
			teamPlayers[hp.teamRaw] = append(teamPlayers[hp.teamRaw], pn)
		}
	}

	if w, ok := winnerFromEndgame(res, players, sides, pnToSlot); ok {
		return w
	}
	if len(res.defeated) > 0 {
		if w, ok := winnerFromFullDefeat(res.defeated, teamPlayers, sides); ok {
			return w
		}
		if w, ok := winnerFromMajorityDefeated(res.defeated, teamPlayers, sides); ok {
			return w
		}
	}
	return model.WinnerUnknown
}

// winnerFromEndgame maps the recorded end-game event's player number to
// its team's side.
func winnerFromEndgame(res *streamResult, players []headerPlayer, sides map[int8]geo.Side, pnToSlot map[uint32]uint8) (model.Winner, bool) {
	if !res.hasEndgame {
		return 0, false
	}
	slot, ok := pnToSlot[res.endgamePlayer]
	if !ok {
		return 0, false
	}
	for _, hp := range players {
		if hp.slot == slot {
			if side, ok := sides[hp.teamRaw]; ok {
				return sideWinner(side), true
			}
			return 0, false
		}
	}
	return 0, false
}

// winnerFromFullDefeat finds a team whose every player number is in the
// defeated set; the other side wins. Teams are walked in ascending raw
// id order so a (noisy) simultaneous full defeat resolves the same way
// on every decode.
func winnerFromFullDefeat(defeated map[uint32]struct{}, teamPlayers map[int8][]uint32, sides map[int8]geo.Side) (model.Winner, bool) {
	for _, teamRaw := range sortedTeams(teamPlayers) {
		all := true
		for _, pn := range teamPlayers[teamRaw] {
			if _, ok := defeated[pn]; !ok {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		for _, other := range sortedTeams(teamPlayers) {
			if other == teamRaw {
				continue
			}
			if side, ok := sides[other]; ok {
				return sideWinner(side), true
			}
		}
	}
	return 0, false
}

// winnerFromMajorityDefeated applies only to exactly two teams: the side
// with strictly fewer defeats likely won. Equal counts say nothing.
func winnerFromMajorityDefeated(defeated map[uint32]struct{}, teamPlayers map[int8][]uint32, sides map[int8]geo.Side) (model.Winner, bool) {
	if len(teamPlayers) != 2 {
		return 0, false
	}
	teams := sortedTeams(teamPlayers)
	a, b := teams[0], teams[1]

	count := func(team int8) int {
		n := 0
		for _, pn := range teamPlayers[team] {
			if _, ok := defeated[pn]; ok {
				n++
			}
		}
		return n
	}

	defeatsA, defeatsB := count(a), count(b)
	switch {
	case defeatsA > defeatsB:
		if side, ok := sides[b]; ok {
			return sideLikelyWinner(side), true
		}
	case defeatsB > defeatsA:
		if side, ok := sides[a]; ok {
			return sideLikelyWinner(side), true
		}
	}
	return 0, false
}

func sortedTeams(teamPlayers map[int8][]uint32) []int8 {
	teams := make([]int8, 0, len(teamPlayers))
	for t := range teamPlayers {
		teams = append(teams, t)
	}
	slices.Sort(teams)
	return teams
}
