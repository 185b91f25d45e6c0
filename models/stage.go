package models

import (
	"fmt"
	"strconv"
)

// Stage is the role a match plays inside its bracket
type Stage int32

const (
	Stage_ROUND             Stage = 0 // numbered standard round
	Stage_SF                Stage = 1
	Stage_FINAL             Stage = 2
	Stage_TIE_BREAKER       Stage = 3
	Stage_FAIR_CHANCE       Stage = 4
	Stage_WINNERS_SEMIFINAL Stage = 5
	Stage_WINNERS_FINAL     Stage = 6
	Stage_LOSERS_SEMIFINAL  Stage = 7
	Stage_ROUND_ROBIN       Stage = 8
)

var stageNames = []string{"Round", "SF", "Final", "TieBreaker", "FairChance", "WinnersSemifinal", "WinnersFinal", "LosersSemifinal", "RoundRobin"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int32(s))
	}
	return stageNames[s]
}

// RoundName builds the round-name for a stage of a bracket. Standard rounds carry their number
func RoundName(bracketPath string, stage Stage, round int) string {
	name := stage.String()
	if stage == Stage_ROUND {
		name += strconv.Itoa(round)
	}
	if bracketPath == "" {
		return name
	}
	return bracketPath + "/" + name
}

// Shape is the structure a bracket is played with, decided from its size when it opens
type Shape int32

const (
	Shape_SINGLE       Shape = 0
	Shape_TWO_PLAYER   Shape = 1
	Shape_THREE_PLAYER Shape = 2
	Shape_FOUR_PLAYER  Shape = 3
	Shape_SEMIFINAL    Shape = 4
	Shape_ROUND_ROBIN  Shape = 5
	Shape_BRACKET      Shape = 6
)

var shapeNames = []string{"single", "two-player", "three-player", "four-player", "semifinal", "round-robin", "bracket"}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return fmt.Sprintf("shape(%d)", int32(s))
	}
	return shapeNames[s]
}
