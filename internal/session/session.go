// Package session wires one game session together: the socket, the bus, and
// the read models. One Session per identity; connecting it under a new
// identity means building a new Session. This replaces the original client's
// hidden global connection with an explicit, injectable object.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/scribl/scribl-client-go/internal/drawing"
	"github.com/scribl/scribl-client-go/internal/eventbus"
	"github.com/scribl/scribl-client-go/internal/gamestate"
	"github.com/scribl/scribl-client-go/internal/guesslog"
	"github.com/scribl/scribl-client-go/internal/scriblfast"
	"github.com/scribl/scribl-client-go/pkg/scribdto"
)

// Bus is the event hub instantiation every component of a session shares.
type Bus = eventbus.Bus[scribdto.EventType, scribdto.Event]

// NewBus builds a hub keyed by event tag.
func NewBus(logger *zap.Logger) *Bus {
	return eventbus.New(func(ev scribdto.Event) scribdto.EventType { return ev.Type() }, logger)
}

// Rest is the one-shot request surface the session needs. Satisfied by
// scriblfast.Client.
type Rest interface {
	Game(ctx context.Context, gameID string) (*scribdto.Game, error)
	Players(ctx context.Context, gameID string) ([]scribdto.Player, error)
	MakeGuess(ctx context.Context, gameID, guess string) error
	StartGame(ctx context.Context, gameID string) error
	SelectWord(ctx context.Context, gameID, word string) error
}

// Socket is the persistent-stream surface. Satisfied by scriblfast.GameSocket.
type Socket interface {
	Connect(ctx context.Context, key scriblfast.SessionKey) error
	Send(ctx context.Context, ev scribdto.Event) error
	Close(ctx context.Context) error
}

type Session struct {
	key    scriblfast.SessionKey
	rest   Rest
	sock   Socket
	bus    *Bus
	logger *zap.Logger

	store   *gamestate.Store
	canvas  *drawing.Canvas
	guesses *guesslog.Log

	// OnCanvasReset observes the stroke list the moment the game leaves the
	// DRAWING state, before the canvas clears. Set before Start.
	OnCanvasReset func(strokes []scribdto.Stroke)

	mu      sync.Mutex
	unsubs  []func()
	started bool
}

func New(key scriblfast.SessionKey, rest Rest, sock Socket, bus *Bus, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		key:    key,
		rest:   rest,
		sock:   sock,
		bus:    bus,
		logger: logger,
	}
	s.store = gamestate.NewStore(logger)
	s.guesses = guesslog.NewLog(logger, s.store.PlayerName)
	s.canvas = drawing.NewCanvas(logger, s.emitDrawing)
	return s
}

func (s *Session) Key() scriblfast.SessionKey { return s.key }
func (s *Session) Store() *gamestate.Store    { return s.store }
func (s *Session) Canvas() *drawing.Canvas    { return s.canvas }
func (s *Session) Guesses() *guesslog.Log     { return s.guesses }

// Loaded reports whether both initial snapshot fetches have completed.
func (s *Session) Loaded() bool { return s.store.Loaded() }

// IsDrawer reports whether this session's player currently holds the turn.
// Enforcing the single-writer rule is the caller's job; this is the check.
func (s *Session) IsDrawer() bool { return s.store.Turn() == s.key.PlayerID }

// Start connects the socket, registers the event handlers, and seeds the
// read models from the two REST snapshots. The snapshots run concurrently
// and both must complete before Loaded reports true, a join rather than a
// race.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("session already started")
	}
	s.started = true
	s.mu.Unlock()

	if err := s.sock.Connect(ctx, s.key); err != nil {
		return fmt.Errorf("connect session %s: %w", s.key, err)
	}

	s.store.Clear()
	s.canvas.Clear()
	s.guesses.Reset()
	s.subscribe()

	var (
		wg      sync.WaitGroup
		game    *scribdto.Game
		players []scribdto.Player
		gameErr error
		plrsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		game, gameErr = s.rest.Game(ctx, s.key.GameID)
	}()
	go func() {
		defer wg.Done()
		players, plrsErr = s.rest.Players(ctx, s.key.GameID)
	}()
	wg.Wait()
	if gameErr != nil || plrsErr != nil {
		// Roll back so the caller can retry Start without a Stop in between.
		s.mu.Lock()
		unsubs := s.unsubs
		s.unsubs = nil
		s.started = false
		s.mu.Unlock()
		for _, unsub := range unsubs {
			unsub()
		}
		return fmt.Errorf("load snapshots: %w", errors.Join(gameErr, plrsErr))
	}

	s.store.SetGame(*game)
	s.store.SetPlayers(players)
	s.logger.Info("session_loaded",
		zap.String("session", s.key.String()),
		zap.Int("players", len(players)),
		zap.Stringer("state", game.State))
	return nil
}

// subscribe registers the read-model handlers and retains every unsubscribe
// func so Stop can release them deterministically. Repeated mount cycles
// therefore never pile up duplicate registrations.
func (s *Session) subscribe() {
	sub := func(t scribdto.EventType, fn func(scribdto.Event)) {
		s.unsubs = append(s.unsubs, s.bus.Subscribe(t, fn))
	}

	sub(scribdto.EventGameUpdate, func(ev scribdto.Event) {
		up := ev.(scribdto.GameUpdate)
		s.store.ApplyGameUpdate(up.Patch)
		if up.Patch.State != nil && *up.Patch.State != scribdto.StateDrawing {
			if s.OnCanvasReset != nil && s.canvas.Len() > 0 {
				s.OnCanvasReset(s.canvas.Snapshot())
			}
			s.canvas.Clear()
		}
	})

	sub(scribdto.EventPlayerAdded, func(ev scribdto.Event) {
		s.store.AddPlayer(ev.(scribdto.PlayerAdded).Player)
	})

	sub(scribdto.EventPlayerUpdate, func(ev scribdto.Event) {
		up := ev.(scribdto.PlayerUpdate)
		s.store.ApplyPlayerPatch(up.PlayerID, up.Updates.Patch())
	})

	sub(scribdto.EventScoreUpdate, func(ev scribdto.Event) {
		s.store.ApplyScoreUpdate(ev.(scribdto.ScoreUpdate))
	})

	sub(scribdto.EventGuessOccurred, func(ev scribdto.Event) {
		s.guesses.Record(ev.(scribdto.GuessOccurred))
	})

	sub(scribdto.EventDrawing, func(ev scribdto.Event) {
		// The drawer's own canvas is the source of truth for its stroke;
		// applying the echoed patch would race the local append path.
		if s.IsDrawer() {
			return
		}
		s.canvas.Apply(ev.(scribdto.Drawing))
	})
}

// Stop releases the bus subscriptions and closes the socket.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.started = false
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	return s.sock.Close(ctx)
}

// Guess submits a guess attempt over REST. The resulting GUESS_OCCURRED and
// score events come back over the stream like everyone else's.
func (s *Session) Guess(ctx context.Context, guess string) error {
	return s.rest.MakeGuess(ctx, s.key.GameID, guess)
}

func (s *Session) StartGame(ctx context.Context) error {
	return s.rest.StartGame(ctx, s.key.GameID)
}

func (s *Session) SelectWord(ctx context.Context, word string) error {
	return s.rest.SelectWord(ctx, s.key.GameID, word)
}

// BeginStroke starts a local stroke and returns its captured index.
func (s *Session) BeginStroke(size int, rgb [3]int) int {
	return s.canvas.StartStroke(size, rgb)
}

// Draw appends a point to the stroke captured by BeginStroke.
func (s *Session) Draw(index int, p scribdto.Point) error {
	return s.canvas.AppendPoint(index, p)
}

func (s *Session) emitDrawing(patch scribdto.Drawing) {
	if err := s.sock.Send(context.Background(), patch); err != nil {
		// Fire-and-forget: a lost patch is recovered by the next full-stroke
		// update at the same index.
		s.logger.Warn("drawing_send_failed", zap.Int("index", patch.Index), zap.Error(err))
	}
}
