package app

import (
	"fmt"

	"github.com/notnil/chess"
)

var colorNames = map[chess.Color]string{chess.White: "white", chess.Black: "black"}

var (
	knightJumps = [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookRays    = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopRays  = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// ParsePosition builds a Position from a FEN string and rejects placements
// no game can reach: a side without exactly one king, pawns on the first or
// last rank, an en passant square on the wrong rank, or the side not to move
// standing in check. Engines are free to crash on such input.
func ParsePosition(fen string) (*chess.Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, &InvalidPositionError{FEN: fen, Err: err}
	}
	pos := chess.NewGame(opt).Position()
	if err := checkPlacement(pos); err != nil {
		return nil, &InvalidPositionError{FEN: fen, Err: err}
	}
	return pos, nil
}

func checkPlacement(pos *chess.Position) error {
	board := pos.Board().SquareMap()

	kings := map[chess.Color]chess.Square{}
	kingCount := map[chess.Color]int{}
	for sq, p := range board {
		switch p.Type() {
		case chess.King:
			kingCount[p.Color()]++
			kings[p.Color()] = sq
		case chess.Pawn:
			if rank := int(sq) / 8; rank == 0 || rank == 7 {
				return fmt.Errorf("pawn on %s", sq)
			}
		}
	}
	for _, c := range []chess.Color{chess.White, chess.Black} {
		if kingCount[c] != 1 {
			return fmt.Errorf("%s must have exactly one king, found %d", colorNames[c], kingCount[c])
		}
	}

	if ep := pos.EnPassantSquare(); ep != chess.NoSquare {
		want := 5
		if pos.Turn() == chess.Black {
			want = 2
		}
		if int(ep)/8 != want {
			return fmt.Errorf("en passant square %s does not fit %s to move", ep, colorNames[pos.Turn()])
		}
	}

	idle := pos.Turn().Other()
	if attacked(board, kings[idle], pos.Turn()) {
		return fmt.Errorf("%s is in check but %s is to move", colorNames[idle], colorNames[pos.Turn()])
	}
	return nil
}

// attacked reports whether any piece of color by attacks sq.
func attacked(board map[chess.Square]chess.Piece, sq chess.Square, by chess.Color) bool {
	file, rank := int(sq)%8, int(sq)/8

	pieceAt := func(f, r int) (chess.Piece, bool) {
		if f < 0 || f > 7 || r < 0 || r > 7 {
			return chess.NoPiece, false
		}
		p, ok := board[chess.Square(r*8+f)]
		return p, ok && p != chess.NoPiece
	}
	is := func(p chess.Piece, types ...chess.PieceType) bool {
		if p.Color() != by {
			return false
		}
		for _, t := range types {
			if p.Type() == t {
				return true
			}
		}
		return false
	}
	onBoard := func(f, r int) bool { return f >= 0 && f <= 7 && r >= 0 && r <= 7 }

	// A pawn attacks forward diagonally, so it stands one rank behind its target.
	behind := -1
	if by == chess.Black {
		behind = 1
	}
	for _, df := range []int{-1, 1} {
		if p, ok := pieceAt(file+df, rank+behind); ok && is(p, chess.Pawn) {
			return true
		}
	}
	for _, d := range knightJumps {
		if p, ok := pieceAt(file+d[0], rank+d[1]); ok && is(p, chess.Knight) {
			return true
		}
	}
	for _, d := range kingSteps {
		if p, ok := pieceAt(file+d[0], rank+d[1]); ok && is(p, chess.King) {
			return true
		}
	}

	slides := func(rays [][2]int, types ...chess.PieceType) bool {
		for _, d := range rays {
			for f, r := file+d[0], rank+d[1]; onBoard(f, r); f, r = f+d[0], r+d[1] {
				p, ok := pieceAt(f, r)
				if !ok {
					continue
				}
				if is(p, types...) {
					return true
				}
				break
			}
		}
		return false
	}
	return slides(rookRays, chess.Rook, chess.Queen) || slides(bishopRays, chess.Bishop, chess.Queen)
}
