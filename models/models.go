package models

import (
	"fmt"
	"strings"
	"time"
)

// Level is a stage of the geographic hierarchy a tournament is played through
type Level int32

const (
	Level_COMMUNITY Level = 0
	Level_COUNTY    Level = 1
	Level_REGIONAL  Level = 2
	Level_NATIONAL  Level = 3
	Level_SPECIAL   Level = 4
)

var levelNames = map[Level]string{
	Level_COMMUNITY: "community",
	Level_COUNTY:    "county",
	Level_REGIONAL:  "regional",
	Level_NATIONAL:  "national",
	Level_SPECIAL:   "special",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int32(l))
}

// ParseLevel maps a level name back to its Level
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for l, name := range levelNames {
		if name == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown level %q", ErrConfiguration, s)
}

// Next returns the level above l in the hierarchy. Special and national have no next level
func (l Level) Next() (Level, bool) {
	switch l {
	case Level_COMMUNITY, Level_COUNTY, Level_REGIONAL:
		return l + 1, true
	}
	return l, false
}

// Previous returns the level below l in the hierarchy
func (l Level) Previous() (Level, bool) {
	switch l {
	case Level_COUNTY, Level_REGIONAL, Level_NATIONAL:
		return l - 1, true
	}
	return l, false
}

// Status is the status of a single match
type Status int32

const (
	Status_PENDING   Status = 0
	Status_COMPLETED Status = 1
	Status_FORFEIT   Status = 2
)

func (s Status) String() string {
	switch s {
	case Status_PENDING:
		return "pending"
	case Status_COMPLETED:
		return "completed"
	case Status_FORFEIT:
		return "forfeit"
	}
	return fmt.Sprintf("status(%d)", int32(s))
}

// Automation decides whether the next level starts on its own once a level is over
type Automation int32

const (
	Automation_MANUAL    Automation = 0
	Automation_AUTOMATIC Automation = 1
)

// Player is a league member, with the geographic attributes used to build cohorts
type Player struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CommunityID string `json:"community_id"`
	CountyID    string `json:"county_id"`
	RegionID    string `json:"region_id"`
}

// Tournament holds the configuration shared by every cohort of every level
type Tournament struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	WinnersNeeded int        `json:"winners_needed"`
	AreaScope     Level      `json:"area_scope"`
	Special       bool       `json:"special"`
	Automation    Automation `json:"automation"`
	FairChance    bool       `json:"fair_chance"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Validate checks the configuration can be played
func (t Tournament) Validate() error {
	if t.WinnersNeeded < 1 {
		return fmt.Errorf("%w: winners needed must be at least 1, got %d", ErrConfiguration, t.WinnersNeeded)
	}
	if t.Special {
		return nil
	}
	if t.AreaScope < Level_COMMUNITY || t.AreaScope > Level_NATIONAL {
		return fmt.Errorf("%w: area scope %s is not a geographic level", ErrConfiguration, t.AreaScope)
	}
	return nil
}

// StartLevel is the first level played by the tournament
func (t Tournament) StartLevel() Level {
	if t.Special {
		return Level_SPECIAL
	}
	return Level_COMMUNITY
}

// IsTargetLevel reports whether positions at this level are the tournament's final results
func (t Tournament) IsTargetLevel(l Level) bool {
	if t.Special {
		return l == Level_SPECIAL
	}
	return l == t.AreaScope
}

// CohortKey identifies a cohort. Cohorts never share players and are progressed independently
type CohortKey struct {
	TournamentID string `json:"tournament_id"`
	Level        Level  `json:"level"`
	GroupID      string `json:"group_id"`
}

func (k CohortKey) String() string {
	return k.TournamentID + "/" + k.Level.String() + "/" + k.GroupID
}

// Entrant is a player taking part in a cohort, along with where they finished at the previous level
type Entrant struct {
	PlayerID   string `json:"player_id"`
	PriorGroup string `json:"prior_group,omitempty"`
	PriorRank  int    `json:"prior_rank,omitempty"`
}

// Cohort is the set of players competing together within one group of one level
type Cohort struct {
	Key       CohortKey `json:"key"`
	Entrants  []Entrant `json:"entrants"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// PlayerIDs lists the entrants' player ids in entry order
func (c Cohort) PlayerIDs() []string {
	ids := make([]string, len(c.Entrants))
	for i, e := range c.Entrants {
		ids[i] = e.PlayerID
	}
	return ids
}

// Bracket is one sub-bracket of a cohort. The main bracket has an empty path
type Bracket struct {
	Cohort  CohortKey `json:"cohort"`
	Path    string    `json:"path"`
	Shape   Shape     `json:"shape"`
	Players []string  `json:"players"`
	Reserve []string  `json:"reserve,omitempty"`
	Need    int       `json:"need"`
	Offset  int       `json:"offset"`
}

// Child returns the path of a sub-bracket nested below this one
func (b Bracket) Child(name string) string {
	if b.Path == "" {
		return name
	}
	return b.Path + "/" + name
}

// Match is a single game between two players
type Match struct {
	ID             string      `json:"id"`
	Cohort         CohortKey   `json:"cohort"`
	Bracket        string      `json:"bracket"`
	Stage          Stage       `json:"stage"`
	Round          int         `json:"round,omitempty"`
	Slot           int         `json:"slot"`
	Extra          bool        `json:"extra,omitempty"`
	Player1        string      `json:"player1"`
	Player2        string      `json:"player2"`
	ByePlayer      string      `json:"bye_player,omitempty"`
	Player1Score   int         `json:"player1_score"`
	Player2Score   int         `json:"player2_score"`
	Status         Status      `json:"status"`
	Winner         string      `json:"winner,omitempty"`
	CandidateDates []time.Time `json:"candidate_dates,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	CompletedAt    time.Time   `json:"completed_at,omitempty"`
}

// RoundName is the label of the match's role within its cohort, unique per cohort
func (m Match) RoundName() string {
	return RoundName(m.Bracket, m.Stage, m.Round)
}

// Position is a final rank within a cohort. Once written it is never reassigned
type Position struct {
	Cohort    CohortKey `json:"cohort"`
	PlayerID  string    `json:"player_id"`
	Rank      int       `json:"rank"`
	Points    int       `json:"points"`
	Narrative string    `json:"narrative,omitempty"`
	Final     bool      `json:"final"` // recorded at the tournament's target level
	CreatedAt time.Time `json:"created_at"`
}

// Promotion records a player qualifying from a cohort into the next level
type Promotion struct {
	TournamentID string `json:"tournament_id"`
	Level        Level  `json:"level"`
	GroupID      string `json:"group_id"`
	PlayerID     string `json:"player_id"`
	Rank         int    `json:"rank"`
}

// Result is a score reported for a match. ForfeitBy names the player giving the match away
type Result struct {
	Player1Score int    `json:"player1_score"`
	Player2Score int    `json:"player2_score"`
	ForfeitBy    string `json:"forfeit_by,omitempty"`
}

// CohortRecord is everything stored for one cohort
type CohortRecord struct {
	Cohort    Cohort
	Brackets  []Bracket
	Matches   []Match
	Positions []Position
}
