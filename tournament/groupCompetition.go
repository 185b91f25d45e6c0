package tournament

import (
	"fmt"
	"sort"

	"github.com/justinjudd/leaguebracket/models"
)

// groupOf returns the group a player competes in at a level
func groupOf(level models.Level, p models.Player) (string, error) {
	var group string
	switch level {
	case models.Level_COMMUNITY:
		group = p.CommunityID
	case models.Level_COUNTY:
		group = p.CountyID
	case models.Level_REGIONAL:
		group = p.RegionID
	case models.Level_NATIONAL, models.Level_SPECIAL:
		return level.String(), nil
	default:
		return "", fmt.Errorf("%w: unknown level %s", models.ErrConfiguration, level)
	}
	if group == "" {
		return "", fmt.Errorf("%w: player %s has no %s", models.ErrConfiguration, p.ID, level)
	}
	return group, nil
}

func checkLevel(t models.Tournament, level models.Level) error {
	if t.Special {
		if level != models.Level_SPECIAL {
			return fmt.Errorf("%w: special tournament %s is only played at the special level", models.ErrConfiguration, t.ID)
		}
		return nil
	}
	if level == models.Level_SPECIAL || level > t.AreaScope {
		return fmt.Errorf("%w: tournament %s does not play at %s level", models.ErrConfiguration, t.ID, level)
	}
	return nil
}

// Partition splits the players of a tournament's first level into cohorts
func Partition(t models.Tournament, level models.Level, players []models.Player) ([]models.Cohort, error) {
	if err := checkLevel(t, level); err != nil {
		return nil, err
	}
	if level != t.StartLevel() {
		return nil, fmt.Errorf("%w: %s is not the first level of tournament %s", models.ErrConfiguration, level, t.ID)
	}
	entrants := make([]models.Entrant, 0, len(players))
	for _, p := range players {
		entrants = append(entrants, models.Entrant{PlayerID: p.ID})
	}
	return group(t, level, entrants, players)
}

// PartitionPromotions builds the cohorts of a level from the players who qualified at the
// level below. Where they finished is kept so pairing can keep former group mates apart
func PartitionPromotions(t models.Tournament, level models.Level, promotions []models.Promotion, players []models.Player) ([]models.Cohort, error) {
	if err := checkLevel(t, level); err != nil {
		return nil, err
	}
	previous, ok := level.Previous()
	if !ok || t.Special {
		return nil, fmt.Errorf("%w: %s has no level below it", models.ErrConfiguration, level)
	}
	if len(promotions) == 0 {
		return nil, fmt.Errorf("%w: no winners recorded at %s level of tournament %s", models.ErrConfiguration, previous, t.ID)
	}
	entrants := make([]models.Entrant, 0, len(promotions))
	for _, p := range promotions {
		if p.Level != previous || p.TournamentID != t.ID {
			return nil, fmt.Errorf("%w: promotion of %s is from %s level of tournament %s", models.ErrConfiguration, p.PlayerID, p.Level, p.TournamentID)
		}
		entrants = append(entrants, models.Entrant{PlayerID: p.PlayerID, PriorGroup: p.GroupID, PriorRank: p.Rank})
	}
	return group(t, level, entrants, players)
}

func group(t models.Tournament, level models.Level, entrants []models.Entrant, players []models.Player) ([]models.Cohort, error) {
	byID := make(map[string]models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	groups := map[string][]models.Entrant{}
	seen := map[string]bool{}
	for _, e := range entrants {
		if seen[e.PlayerID] {
			continue
		}
		seen[e.PlayerID] = true
		p, ok := byID[e.PlayerID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown player %s", models.ErrConfiguration, e.PlayerID)
		}
		g, err := groupOf(level, p)
		if err != nil {
			return nil, err
		}
		groups[g] = append(groups[g], e)
	}

	cohorts := make([]models.Cohort, 0, len(groups))
	for g, members := range groups {
		sort.Slice(members, func(i, j int) bool { return members[i].PlayerID < members[j].PlayerID })
		cohorts = append(cohorts, models.Cohort{
			Key:      models.CohortKey{TournamentID: t.ID, Level: level, GroupID: g},
			Entrants: members,
		})
	}
	sort.Slice(cohorts, func(i, j int) bool { return cohorts[i].Key.GroupID < cohorts[j].Key.GroupID })
	return cohorts, nil
}
