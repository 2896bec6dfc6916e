package models

// StartingFEN is the standard initial position, used when a request has no fen.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// What the frontend posts to /chessgpt. Unknown fields are ignored.
type AnalysisRequest struct {
	FEN    string `json:"fen"`
	Prompt string `json:"prompt"`
}

// WithDefaults fills in the starting position for an absent or empty fen.
func (r AnalysisRequest) WithDefaults() AnalysisRequest {
	if r.FEN == "" {
		r.FEN = StartingFEN
	}
	return r
}

// What we return to the frontend.
type AnalysisResponse struct {
	BestMove   string `json:"best_move"`  // e.g. "e2e4"
	Evaluation string `json:"evaluation"` // e.g. "+0.50", or "Unknown"
	From       int    `json:"from"`       // a1=0 ... h8=63
	To         int    `json:"to"`
	Message    string `json:"message,omitempty"`
}
