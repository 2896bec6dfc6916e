package models

import (
	"time"

	"github.com/notnil/chess"
)

// ScoreKind tags which variant of Score is populated.
type ScoreKind int

const (
	ScoreUnknown ScoreKind = iota
	ScoreCentipawns
	ScoreMate
)

// Score is an engine evaluation relative to the side to move.
// Exactly one of the variants is meaningful, selected by Kind.
type Score struct {
	Kind  ScoreKind
	Value int // centipawns for ScoreCentipawns, moves to mate for ScoreMate (+ means side to move mates)
}

func UnknownScore() Score { return Score{Kind: ScoreUnknown} }

func CentipawnScore(cp int) Score { return Score{Kind: ScoreCentipawns, Value: cp} }

func MateScore(moves int) Score { return Score{Kind: ScoreMate, Value: moves} }

func (s Score) IsMate() bool { return s.Kind == ScoreMate }

func (s Score) IsKnown() bool { return s.Kind != ScoreUnknown }

// Centipawns collapses the score onto a single numeric channel. A mate is
// replaced by +mateScore when the side to move mates and -mateScore when it
// is being mated; the distance to mate is dropped. ok is false for an
// unknown score.
func (s Score) Centipawns(mateScore int) (cp int, ok bool) {
	switch s.Kind {
	case ScoreCentipawns:
		return s.Value, true
	case ScoreMate:
		if s.Value > 0 {
			return mateScore, true
		}
		return -mateScore, true
	default:
		return 0, false
	}
}

// SearchLimits drives how we query the engine for a position.
type SearchLimits struct {
	MoveTime time.Duration `json:"move_time"`
	Depth    int           `json:"depth"`
	UseDepth bool          `json:"use_depth"` // if false, use movetime
}

// EngineResult is what one engine query produced.
type EngineResult struct {
	PV       []*chess.Move // principal variation; only PV[0] is used
	Score    Score
	Depth    int
	Nodes    int
	BestMove string // raw "bestmove" token, "(none)" in terminal positions
}
