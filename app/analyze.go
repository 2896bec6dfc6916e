package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"example/chessgpt-api/app/config"
	"example/chessgpt-api/app/models"

	"github.com/notnil/chess"
	"github.com/sirupsen/logrus"
)

const (
	// MateScore stands in for any forced mate, so "mate in 3" and "mate in 12"
	// both render as +100.00.
	MateScore = 10000

	// DefaultMoveTime is how long the engine thinks per request.
	DefaultMoveTime = 100 * time.Millisecond

	UnknownEvaluation = "Unknown"
)

// ErrNoMoveFound means the engine returned no principal variation, e.g. in a
// checkmate or stalemate position.
var ErrNoMoveFound = errors.New("No move found")

// InvalidPositionError is returned when the FEN does not parse or describes
// an impossible position.
type InvalidPositionError struct {
	FEN string
	Err error
}

func (e *InvalidPositionError) Error() string { return "Invalid FEN: " + e.Err.Error() }

func (e *InvalidPositionError) Unwrap() error { return e.Err }

// Engine is the search collaborator: given a position and limits, return a
// principal variation and a score relative to the side to move.
type Engine interface {
	Analyze(ctx context.Context, pos *chess.Position, limits models.SearchLimits) (models.EngineResult, error)
}

// Analyzer turns a FEN and an optional prompt into a normalized response.
// It keeps no state between calls; concurrency is up to the Engine.
type Analyzer struct {
	engine Engine
	limits models.SearchLimits
	grace  time.Duration
}

type AnalyzerOption func(*Analyzer)

// WithSearchLimits replaces the default 0.1s movetime budget.
func WithSearchLimits(limits models.SearchLimits) AnalyzerOption {
	return func(a *Analyzer) { a.limits = limits }
}

// WithGrace sets how long past the budget we wait before giving up on the engine.
// Zero means wait for as long as the caller's context allows.
func WithGrace(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) { a.grace = d }
}

func NewAnalyzer(engine Engine, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		engine: engine,
		limits: models.SearchLimits{MoveTime: DefaultMoveTime},
		grace:  2 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewAnalyzerFromConfig applies the engine section of the config: movetime by
// default, fixed depth when depth_or_time is set.
func NewAnalyzerFromConfig(engine Engine, cfg config.EngineConfig) *Analyzer {
	limits := models.SearchLimits{MoveTime: time.Duration(cfg.MoveTime) * time.Millisecond}
	if cfg.DepthOrTime {
		limits = models.SearchLimits{Depth: cfg.Depth, UseDepth: true}
	}
	return NewAnalyzer(engine, WithSearchLimits(limits), WithGrace(cfg.Grace))
}

// Analyze validates fen (empty means the starting position), runs one
// engine query and formats the outcome. prompt only controls whether a
// message is attached; it never reaches the engine.
func (a *Analyzer) Analyze(ctx context.Context, fen, prompt string) (models.AnalysisResponse, error) {
	req := models.AnalysisRequest{FEN: fen, Prompt: prompt}.WithDefaults()

	pos, err := ParsePosition(req.FEN)
	if err != nil {
		AnalysesTotal.WithLabelValues("invalid_position").Inc()
		return models.AnalysisResponse{}, err
	}

	if a.grace > 0 && !a.limits.UseDepth {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.limits.MoveTime+a.grace)
		defer cancel()
	}

	start := time.Now()
	result, err := a.engine.Analyze(ctx, pos, a.limits)
	EngineQueryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		AnalysesTotal.WithLabelValues("error").Inc()
		return models.AnalysisResponse{}, fmt.Errorf("analyzing position: %w", err)
	}

	if len(result.PV) == 0 {
		AnalysesTotal.WithLabelValues("no_move").Inc()
		logrus.WithFields(logrus.Fields{
			"fen":      req.FEN,
			"status":   pos.Status(),
			"bestmove": result.BestMove,
		}).Warn("engine returned no move")
		return models.AnalysisResponse{}, ErrNoMoveFound
	}
	AnalysesTotal.WithLabelValues("ok").Inc()

	best := result.PV[0]
	uci := chess.UCINotation{}.Encode(pos, best)
	eval := FormatEvaluation(result.Score)

	resp := models.AnalysisResponse{
		BestMove:   uci,
		Evaluation: eval,
		From:       int(best.S1()),
		To:         int(best.S2()),
	}
	if req.Prompt != "" {
		resp.Message = ComposeMessage(req.FEN, uci, eval)
	}

	logrus.WithFields(logrus.Fields{
		"best_move":  resp.BestMove,
		"evaluation": resp.Evaluation,
		"depth":      result.Depth,
	}).Debug("position analyzed")

	return resp, nil
}

// FormatEvaluation renders a score in pawns with an explicit sign and two
// decimals, e.g. 50 -> "+0.50", -275 -> "-2.75". Mates use MateScore.
func FormatEvaluation(score models.Score) string {
	cp, ok := score.Centipawns(MateScore)
	if !ok {
		return UnknownEvaluation
	}
	return fmt.Sprintf("%+.2f", float64(cp)/100)
}

// ComposeMessage is the one-sentence summary returned when the caller sent a prompt.
func ComposeMessage(fen, bestMove, evaluation string) string {
	return fmt.Sprintf("For the position %s, the best move is %s with an evaluation of %s.", fen, bestMove, evaluation)
}
