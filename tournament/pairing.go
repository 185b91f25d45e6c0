package tournament

import (
	"math"
	"math/rand"
	"sort"

	"github.com/justinjudd/leaguebracket/models"
)

// pairing is the layout of one round. When the player count is odd, the player left over
// plays an extra match against someone who is already paired
type pairing struct {
	pairs  [][2]string
	paired []models.Entrant
	odd    bool
	extra  [2]string // leftover player, player playing twice
}

// smartPairing pairs entrants so that players from the same previous-level group meet as
// rarely as possible. Previous-level winners are paired first, then runners up and so on;
// anyone who could not be crossed with another group carries into the next tier, and only
// what is left at the end is paired within a group
func smartPairing(entrants []models.Entrant, rng *rand.Rand) pairing {
	players := make([]models.Entrant, len(entrants))
	copy(players, entrants)
	rng.Shuffle(len(players), func(i, j int) {
		players[i], players[j] = players[j], players[i]
	})
	sort.SliceStable(players, func(i, j int) bool {
		return tier(players[i]) < tier(players[j])
	})

	var result pairing
	var carry []models.Entrant
	for start := 0; start < len(players); {
		end := start
		for end < len(players) && tier(players[end]) == tier(players[start]) {
			end++
		}
		pool := append(append([]models.Entrant{}, carry...), players[start:end]...)
		pairs, left := crossGroupPairs(pool)
		for _, p := range pairs {
			result.pairs = append(result.pairs, [2]string{p[0].PlayerID, p[1].PlayerID})
			result.paired = append(result.paired, p[0], p[1])
		}
		carry = left
		start = end
	}

	for len(carry) >= 2 {
		result.pairs = append(result.pairs, [2]string{carry[0].PlayerID, carry[1].PlayerID})
		result.paired = append(result.paired, carry[0], carry[1])
		carry = carry[2:]
	}

	if len(carry) == 1 && len(result.paired) > 0 {
		result.odd = true
		result.extra = [2]string{carry[0].PlayerID, doublePlayer(carry[0], result.paired, rng)}
	}
	return result
}

func tier(e models.Entrant) int {
	if e.PriorRank <= 0 {
		return math.MaxInt32
	}
	return e.PriorRank
}

func crossGroupPairs(pool []models.Entrant) ([][2]models.Entrant, []models.Entrant) {
	var pairs [][2]models.Entrant
	remaining := append([]models.Entrant(nil), pool...)
	for len(remaining) >= 2 {
		counts := map[string]int{}
		for _, e := range remaining {
			counts[e.PriorGroup]++
		}

		// A group holding more than half of the pool has to be drawn from first,
		// otherwise its members end up facing each other
		first := 0
		if g, ok := largestGroup(remaining, counts, nil); ok && counts[g]*2 > len(remaining) {
			first = indexOfGroup(remaining, g)
		}
		p := remaining[first]
		partnerGroup, ok := largestGroup(remaining, counts, &p.PriorGroup)
		if !ok {
			break
		}
		second := indexOfGroup(remaining, partnerGroup)
		pairs = append(pairs, [2]models.Entrant{p, remaining[second]})

		next := remaining[:0:0]
		for i, e := range remaining {
			if i != first && i != second {
				next = append(next, e)
			}
		}
		remaining = next
	}
	return pairs, remaining
}

// largestGroup finds the group with the most entrants, first seen winning ties
func largestGroup(entrants []models.Entrant, counts map[string]int, except *string) (string, bool) {
	best, found := "", false
	for _, e := range entrants {
		if except != nil && e.PriorGroup == *except {
			continue
		}
		if !found || counts[e.PriorGroup] > counts[best] {
			best, found = e.PriorGroup, true
		}
	}
	return best, found
}

func indexOfGroup(entrants []models.Entrant, group string) int {
	for i, e := range entrants {
		if e.PriorGroup == group {
			return i
		}
	}
	return -1
}

func doublePlayer(odd models.Entrant, paired []models.Entrant, rng *rand.Rand) string {
	var candidates []models.Entrant
	for _, e := range paired {
		if e.PriorGroup != odd.PriorGroup {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		candidates = paired
	}
	return candidates[rng.Intn(len(candidates))].PlayerID
}

// roundMatches turns a pairing into the matches of a standard round
func roundMatches(s *State, b models.Bracket, round int, p pairing) []models.Match {
	var matches []models.Match
	for i, pair := range p.pairs {
		matches = append(matches, s.match(b, models.Stage_ROUND, round, i, pair[0], pair[1]))
	}
	if p.odd {
		m := s.match(b, models.Stage_ROUND, round, len(p.pairs), p.extra[0], p.extra[1])
		m.Extra = true
		matches = append(matches, m)
	}
	return matches
}

// roundOutcome splits the players of a resolved round into those going through and those
// knocked out. An extra match only decides the fate of the leftover player in it
func roundOutcome(matches []models.Match) (winners, losers, extraLosers []string) {
	for _, m := range matches {
		if !m.Extra {
			winners = append(winners, m.Winner)
			losers = append(losers, models.Loser(m))
			continue
		}
		if m.Winner == m.Player1 {
			winners = append(winners, m.Player1)
		} else {
			extraLosers = append(extraLosers, m.Player1)
		}
	}
	return winners, losers, extraLosers
}
