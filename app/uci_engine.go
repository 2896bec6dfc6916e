//starts the engine process, speaks UCI over stdin/stdout, and exposes a simple Analyze method.

package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"example/chessgpt-api/app/config"
	"example/chessgpt-api/app/models"

	"github.com/notnil/chess"
	"github.com/sirupsen/logrus"
)

const (
	syncTimeout = 5 * time.Second
	stopTimeout = 500 * time.Millisecond
)

// settleTimeout bounds the wait for the "bestmove" of an abandoned search.
var settleTimeout = 5 * time.Second

var (
	// ErrEngineUnavailable means the engine process could not be started or has gone away.
	ErrEngineUnavailable = errors.New("engine unavailable")
	ErrReadTimeout       = errors.New("engine: read i/o timeout")
)

type UCIEngine struct {
	cmd   *exec.Cmd
	in    *bufio.Writer
	lines chan string
	err   error // why lines was closed; only read after lines is drained
	mu    sync.Mutex
	ready bool
	name  string

	// searching is set when a search was abandoned before its "bestmove"
	// arrived; that line is still owed and must not answer the next query.
	searching bool
}

// NewUCIEngine starts the engine at cfg.Path and completes the UCI handshake.
// Any failure here is wrapped in ErrEngineUnavailable.
func NewUCIEngine(cfg config.EngineConfig) (*UCIEngine, error) {
	cmd := exec.Command(cfg.Path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting %s: %v", ErrEngineUnavailable, cfg.Path, err)
	}

	e := newUCIEngine(stdin, stdout)
	e.cmd = cmd

	timeout := cfg.StartupTimeout
	if timeout <= 0 {
		timeout = syncTimeout
	}
	if err := e.handshake(cfg.Options, timeout); err != nil {
		_ = cmd.Process.Kill()
		go e.drain()
		_ = cmd.Wait()
		return nil, fmt.Errorf("%w: handshake with %s: %v", ErrEngineUnavailable, cfg.Path, err)
	}

	logrus.WithFields(logrus.Fields{"path": cfg.Path, "name": e.name}).Info("engine ready")
	return e, nil
}

// newUCIEngine wires the protocol layer to arbitrary pipes; the reader
// goroutine owns r for the lifetime of the engine.
func newUCIEngine(w io.Writer, r io.Reader) *UCIEngine {
	e := &UCIEngine{
		in:    bufio.NewWriter(w),
		lines: make(chan string),
	}
	go e.readLoop(r)
	return e
}

func (e *UCIEngine) readLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		logrus.Debugf("(engine)> %s", line)
		e.lines <- line
	}
	e.err = scanner.Err()
	if e.err == nil {
		e.err = io.EOF
	}
	close(e.lines)
}

// Handshake: "uci" -> wait for "uciok"; options; "ucinewgame"; "isready" -> "readyok"
func (e *UCIEngine) handshake(options map[string]string, timeout time.Duration) error {
	if err := e.send("uci"); err != nil {
		return err
	}
	_, err := e.await("uciok", timeout, func(line string) {
		if name, ok := strings.CutPrefix(line, "id name "); ok {
			e.name = name
		}
	})
	if err != nil {
		return err
	}

	for name, value := range options {
		if err := e.send(fmt.Sprintf("setoption name %s value %s", name, value)); err != nil {
			return err
		}
	}

	if err := e.send("ucinewgame"); err != nil {
		return err
	}
	if err := e.synchronize(timeout); err != nil {
		return err
	}
	e.ready = true
	return nil
}

// Name is the engine's self-reported "id name", if any.
func (e *UCIEngine) Name() string {
	return e.name
}

func (e *UCIEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = false
	_ = e.send("quit")
	go e.drain()
	if e.cmd == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(syncTimeout):
		_ = e.cmd.Process.Kill()
		return <-done
	}
}

// Analyze searches one position with either a fixed depth or movetime and
// returns the last reported score and principal variation. When ctx ends
// before "bestmove", the search is stopped and whatever the engine settles
// on within a short grace period is returned.
func (e *UCIEngine) Analyze(ctx context.Context, pos *chess.Position, limits models.SearchLimits) (models.EngineResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return models.EngineResult{}, errors.New("engine not ready")
	}

	if err := e.settle(); err != nil {
		return models.EngineResult{}, err
	}
	if err := e.synchronize(syncTimeout); err != nil {
		return models.EngineResult{}, err
	}

	if err := e.send("position fen " + pos.String()); err != nil {
		return models.EngineResult{}, err
	}

	if limits.UseDepth {
		depth := limits.Depth
		if depth <= 0 {
			depth = 12
		}
		if err := e.send(fmt.Sprintf("go depth %d", depth)); err != nil {
			return models.EngineResult{}, err
		}
	} else {
		if err := e.send(fmt.Sprintf("go movetime %d", limits.MoveTime.Milliseconds())); err != nil {
			return models.EngineResult{}, err
		}
	}

	var info searchInfo
	onLine := func(line string) {
		if strings.HasPrefix(line, "info ") {
			info.parse(line)
		}
	}

	var best string
	line, err := e.awaitContext(ctx, "bestmove", onLine)
	if err != nil && ctx.Err() != nil {
		_ = e.send("stop")
		line, err = e.await("bestmove", stopTimeout, onLine)
		if errors.Is(err, ErrReadTimeout) {
			e.searching = true
			err = ctx.Err()
		}
	}
	if err != nil {
		return models.EngineResult{}, err
	}
	if fields := strings.Fields(line); len(fields) >= 2 {
		best = fields[1]
	}

	return info.result(pos, best), nil
}

// settle waits out a search abandoned by an earlier Analyze. The engine
// answers "isready" while it is still thinking, so that alone cannot tell a
// stale "bestmove" from the next one. An engine that never finishes is
// marked unusable.
func (e *UCIEngine) settle() error {
	if !e.searching {
		return nil
	}
	if err := e.send("stop"); err != nil {
		return err
	}
	if _, err := e.await("bestmove", settleTimeout, nil); err != nil {
		e.ready = false
		if e.cmd != nil && e.cmd.Process != nil {
			_ = e.cmd.Process.Kill()
		}
		return fmt.Errorf("%w: engine did not finish an abandoned search: %v", ErrEngineUnavailable, err)
	}
	e.searching = false
	return nil
}

func (e *UCIEngine) synchronize(timeout time.Duration) error {
	if err := e.send("isready"); err != nil {
		return err
	}
	_, err := e.await("readyok", timeout, nil)
	return err
}

// await reads lines until one starts with the keyword, passing every line
// (including the match) to onLine.
func (e *UCIEngine) await(keyword string, timeout time.Duration, onLine func(string)) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	line, err := e.awaitContext(ctx, keyword, onLine)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return "", ErrReadTimeout
	}
	return line, err
}

func (e *UCIEngine) awaitContext(ctx context.Context, keyword string, onLine func(string)) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok := <-e.lines:
			if !ok {
				return "", fmt.Errorf("%w: %v", ErrEngineUnavailable, e.err)
			}
			if onLine != nil {
				onLine(line)
			}
			if line == keyword || strings.HasPrefix(line, keyword+" ") {
				return line, nil
			}
		}
	}
}

func (e *UCIEngine) drain() {
	for range e.lines {
	}
}

func (e *UCIEngine) send(cmd string) error {
	logrus.Debugf("(engine)< %s", cmd)
	if _, err := fmt.Fprintln(e.in, cmd); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	if err := e.in.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	return nil
}
