package app

import (
	"strconv"
	"strings"

	"example/chessgpt-api/app/models"

	"github.com/notnil/chess"
	"github.com/sirupsen/logrus"
)

// searchInfo accumulates "info" lines of one search. Later lines override
// earlier ones field by field, so a trailing "info depth 12 currmove ..."
// does not wipe the score or pv reported before it.
type searchInfo struct {
	depth int
	nodes int
	score models.Score
	pv    []string
}

// parse reads lines such as:
//
//	info depth 18 seldepth 24 multipv 1 score cp 23 nodes 91321 nps 812000 pv e2e4 e7e5
//	info depth 20 score mate -3 pv h7h8q
//	info string NNUE evaluation using nn-xxxx.nnue
func (s *searchInfo) parse(line string) {
	fields := strings.Fields(line)
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "string":
			return
		case "multipv":
			// Only the first line counts when an engine is configured with MultiPV.
			if i+1 < len(fields) && fields[i+1] != "1" {
				return
			}
			i++
		case "depth":
			if n, ok := intAt(fields, i+1); ok {
				s.depth = n
				i++
			}
		case "nodes":
			if n, ok := intAt(fields, i+1); ok {
				s.nodes = n
				i++
			}
		case "score":
			if i+2 >= len(fields) {
				return
			}
			n, ok := intAt(fields, i+2)
			if !ok {
				continue
			}
			switch fields[i+1] {
			case "cp":
				s.score = models.CentipawnScore(n)
			case "mate":
				s.score = models.MateScore(n)
			}
			i += 2
		case "pv":
			s.pv = append([]string(nil), fields[i+1:]...)
			return
		}
	}
}

// result decodes the pv against pos. If the engine never reported a pv but
// did name a best move, that move stands in as a one-move line. A best
// move of "(none)" means there is no legal continuation.
func (s *searchInfo) result(pos *chess.Position, best string) models.EngineResult {
	res := models.EngineResult{
		Score:    s.score,
		Depth:    s.depth,
		Nodes:    s.nodes,
		BestMove: best,
	}
	if best == "" || best == "(none)" {
		return res
	}

	line := s.pv
	if len(line) == 0 {
		line = []string{best}
	}
	res.PV = decodePV(pos, line)
	return res
}

// decodePV turns UCI move strings into moves, stopping at the first one that
// does not decode or is not legal in the position reached so far.
func decodePV(pos *chess.Position, line []string) []*chess.Move {
	var moves []*chess.Move
	for _, s := range line {
		decoded, err := chess.UCINotation{}.Decode(pos, s)
		var m *chess.Move
		if err == nil {
			m = legalMove(pos, decoded)
		}
		if m == nil {
			logrus.WithField("move", s).Warn("engine pv contains an unusable move; truncating")
			break
		}
		moves = append(moves, m)
		pos = pos.Update(m)
	}
	return moves
}

// legalMove returns the fully tagged legal move matching m, or nil.
func legalMove(pos *chess.Position, m *chess.Move) *chess.Move {
	for _, valid := range pos.ValidMoves() {
		if valid.S1() == m.S1() && valid.S2() == m.S2() && valid.Promo() == m.Promo() {
			return valid
		}
	}
	return nil
}

func intAt(fields []string, i int) (int, bool) {
	if i >= len(fields) {
		return 0, false
	}
	n, err := strconv.Atoi(fields[i])
	if err != nil {
		return 0, false
	}
	return n, true
}
