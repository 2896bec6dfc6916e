package app

import (
	"strings"
	"testing"

	"example/chessgpt-api/app/models"

	"github.com/notnil/chess"
)

func TestSearchInfoParse(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		depth int
		nodes int
		score models.Score
		pv    string
	}{
		{
			name:  "centipawns",
			lines: []string{"info depth 18 seldepth 24 multipv 1 score cp 23 nodes 91321 nps 812000 pv e2e4 e7e5"},
			depth: 18, nodes: 91321, score: models.CentipawnScore(23), pv: "e2e4 e7e5",
		},
		{
			name:  "mate",
			lines: []string{"info depth 20 score mate -3 pv h7h8q"},
			depth: 20, score: models.MateScore(-3), pv: "h7h8q",
		},
		{
			name:  "bound markers",
			lines: []string{"info depth 9 score cp 41 lowerbound nodes 10 pv d2d4"},
			depth: 9, nodes: 10, score: models.CentipawnScore(41), pv: "d2d4",
		},
		{
			name:  "string lines are ignored",
			lines: []string{"info string NNUE evaluation using nn-xxxx.nnue depth 99"},
			score: models.UnknownScore(),
		},
		{
			name: "currmove lines keep earlier score and pv",
			lines: []string{
				"info depth 5 score cp -12 pv g1f3",
				"info depth 6 currmove e2e4 currmovenumber 1",
			},
			depth: 6, score: models.CentipawnScore(-12), pv: "g1f3",
		},
		{
			name: "secondary multipv ignored",
			lines: []string{
				"info depth 8 multipv 1 score cp 30 pv e2e4",
				"info depth 8 multipv 2 score cp -80 pv a2a3",
			},
			depth: 8, score: models.CentipawnScore(30), pv: "e2e4",
		},
		{
			name:  "truncated score",
			lines: []string{"info depth 3 score cp"},
			depth: 3, score: models.UnknownScore(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var info searchInfo
			for _, line := range tt.lines {
				info.parse(line)
			}
			if info.depth != tt.depth || info.nodes != tt.nodes || info.score != tt.score {
				t.Fatalf("parse = %+v", info)
			}
			if got := strings.Join(info.pv, " "); got != tt.pv {
				t.Fatalf("pv = %q, want %q", got, tt.pv)
			}
		})
	}
}

func TestDecodePVStopsAtIllegalMove(t *testing.T) {
	pos := chess.NewGame().Position()
	moves := decodePV(pos, []string{"e2e4", "e7e5", "e4e5", "g1f3"})
	if len(moves) != 2 {
		t.Fatalf("expected pv truncated to 2 moves, got %v", moves)
	}
}

func TestDecodePVCastling(t *testing.T) {
	pos := positionFromFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	moves := decodePV(pos, []string{"e1g1", "e8c8"})
	if len(moves) != 2 {
		t.Fatalf("expected both castling moves, got %v", moves)
	}
	if !moves[0].HasTag(chess.KingSideCastle) || !moves[1].HasTag(chess.QueenSideCastle) {
		t.Fatalf("castling tags missing: %v", moves)
	}
}

func TestResultNoneHasNoPV(t *testing.T) {
	info := searchInfo{score: models.MateScore(0), pv: []string{"e2e4"}}
	if res := info.result(chess.NewGame().Position(), "(none)"); len(res.PV) != 0 {
		t.Fatalf("(none) should yield no pv, got %v", res.PV)
	}
	if res := info.result(chess.NewGame().Position(), ""); len(res.PV) != 0 {
		t.Fatalf("missing bestmove should yield no pv, got %v", res.PV)
	}
}
