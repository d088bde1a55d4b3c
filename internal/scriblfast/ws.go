package scriblfast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/scribl/scribl-client-go/pkg/scribdto"
)

// SessionKey identifies the single live connection: one game, one player.
// Connecting under a different key supersedes the previous connection.
type SessionKey struct {
	GameID   string
	PlayerID string
}

func (k SessionKey) String() string { return k.GameID + ":" + k.PlayerID }

// Publisher receives every validated inbound event. Satisfied by the event bus.
type Publisher interface {
	Publish(ev scribdto.Event)
}

type SocketState string

const (
	SocketDisconnected SocketState = "disconnected"
	SocketConnecting   SocketState = "connecting"
	SocketConnected    SocketState = "connected"
	SocketReconnecting SocketState = "reconnecting"
	SocketFailed       SocketState = "failed"
)

var ErrNotConnected = staticErr("socket not connected")

// GameSocket owns the persistent game connection. Inbound frames are decoded
// and validated on a single goroutine, then republished on the bus, so
// handler order equals wire receipt order. Outbound Send is fire-and-forget.
type GameSocket struct {
	wsBaseURL string
	bus       Publisher
	logger    *zap.Logger
	headers   HeaderProvider

	// Reconnection is a policy choice, not observed server behaviour;
	// attempts defaults to 0 which disables it entirely.
	maxReconnectAttempts int
	pingInterval         time.Duration
	dialTimeout          time.Duration
	sendTimeout          time.Duration

	stateM sync.RWMutex
	state  SocketState

	mu         sync.Mutex
	key        *SessionKey
	conn       *websocket.Conn
	connID     string
	stopCh     chan struct{}
	rootCtx    context.Context
	rootCancel context.CancelFunc
	wg         sync.WaitGroup
}

type SocketOption func(*GameSocket)

// WithReconnect enables automatic redial after an established connection
// drops. Handshake failures during Connect are still surfaced to the caller.
func WithReconnect(maxAttempts int) SocketOption {
	return func(s *GameSocket) { s.maxReconnectAttempts = maxAttempts }
}

func WithSocketHeaderProvider(h HeaderProvider) SocketOption {
	return func(s *GameSocket) { s.headers = h }
}

func WithPingInterval(d time.Duration) SocketOption {
	return func(s *GameSocket) { s.pingInterval = d }
}

func NewGameSocket(wsBaseURL string, bus Publisher, logger *zap.Logger, opts ...SocketOption) *GameSocket {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &GameSocket{
		wsBaseURL:    strings.TrimRight(wsBaseURL, "/"),
		bus:          bus,
		logger:       logger,
		state:        SocketDisconnected,
		pingInterval: 30 * time.Second,
		dialTimeout:  10 * time.Second,
		sendTimeout:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GameSocket) State() SocketState {
	s.stateM.RLock()
	defer s.stateM.RUnlock()
	return s.state
}

func (s *GameSocket) setState(st SocketState) {
	s.stateM.Lock()
	prev := s.state
	s.state = st
	s.stateM.Unlock()
	if prev != st {
		s.logger.Debug("ws_state", zap.String("from", string(prev)), zap.String("to", string(st)))
	}
}

// Connect establishes the connection for key. It is a no-op when the same
// key is already connected; a different key forcibly closes the previous
// connection first. It returns once the handshake completes, or the
// handshake error. No retry is performed here.
func (s *GameSocket) Connect(ctx context.Context, key SessionKey) error {
	if key.GameID == "" || key.PlayerID == "" {
		return fmt.Errorf("connect: incomplete session key %q", key)
	}

	s.mu.Lock()
	if s.conn != nil && s.key != nil && *s.key == key {
		s.mu.Unlock()
		return nil
	}
	teardown := s.detachLocked()
	s.mu.Unlock()
	if teardown != nil {
		s.logger.Info("ws_supersede", zap.String("session", key.String()))
		teardown(ctx)
	}

	s.setState(SocketConnecting)
	connID := uuid.NewString()

	dialCtx, cancel := context.WithTimeout(ctx, s.dialTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, s.endpoint(key), &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      s.buildHeaders(connID),
	})
	if err != nil {
		s.setState(SocketFailed)
		return fmt.Errorf("ws dial: %w", err)
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	stop := make(chan struct{})

	s.mu.Lock()
	k := key
	s.key = &k
	s.conn = conn
	s.connID = connID
	s.stopCh = stop
	s.rootCtx = rootCtx
	s.rootCancel = rootCancel
	s.wg.Add(2)
	s.mu.Unlock()

	s.setState(SocketConnected)
	s.logger.Info("ws_connected", zap.String("session", key.String()), zap.String("conn_id", connID))

	go s.listen(rootCtx, conn, stop)
	go s.pingLoop(rootCtx, conn, stop)
	return nil
}

// Send serialises the event into the wire envelope and transmits it. No
// acknowledgement, no retry; the error only reports local write failure.
func (s *GameSocket) Send(ctx context.Context, ev scribdto.Event) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	env, err := EncodeEvent(ev)
	if err != nil {
		return err
	}

	dctx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, s.sendTimeout)
		defer cancel()
	}
	return wsjson.Write(dctx, conn, env)
}

// Close tears the connection down and waits for the read/ping goroutines,
// bounded by ctx.
func (s *GameSocket) Close(ctx context.Context) error {
	s.mu.Lock()
	teardown := s.detachLocked()
	s.key = nil
	s.mu.Unlock()

	s.setState(SocketDisconnected)
	if teardown == nil {
		return nil
	}
	return teardown(ctx)
}

// detachLocked strips the current connection era out of the socket and
// returns a closure that finishes shutting it down. The closure must run
// without holding mu, since the goroutines it waits on may grab the lock.
// The era can outlive its connection (a reconnect attempt in flight holds
// stopCh with conn nil), so the era channels decide whether there is
// anything to tear down.
func (s *GameSocket) detachLocked() func(context.Context) error {
	conn, stop, cancel := s.conn, s.stopCh, s.rootCancel
	if stop == nil {
		return nil
	}
	s.conn = nil
	s.stopCh = nil
	s.rootCtx = nil
	s.rootCancel = nil

	return func(ctx context.Context) error {
		close(stop)
		cancel()
		if conn != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "close")
		}

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			return nil
		}
	}
}

func (s *GameSocket) listen(ctx context.Context, conn *websocket.Conn, stop chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-stop:
			return
		default:
		}

		var frame wireFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			select {
			case <-stop:
				return
			default:
			}
			if !s.claimFailure(conn) {
				return
			}
			s.logger.Warn("ws_read_error", zap.String("conn_id", s.connID), zap.Error(err))
			s.setState(SocketDisconnected)
			_ = conn.Close(websocket.StatusGoingAway, "read error")
			s.scheduleReconnect(stop)
			return
		}
		s.dispatch(frame)
	}
}

// claimFailure atomically tests whether conn is still the live connection
// and, if so, strips it. Exactly one goroutine wins the claim per failed
// connection; a loser is stale (the socket already moved on, usually to a
// reconnected connection) and must exit without touching shared state.
func (s *GameSocket) claimFailure(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != conn {
		return false
	}
	s.conn = nil
	return true
}

// wireFrame tolerates the server's non-envelope greeting frame alongside
// regular envelopes. EventType is a pointer so an absent tag is detectable.
type wireFrame struct {
	Kind         string              `json:"kind"`
	EventType    *scribdto.EventType `json:"EventType"`
	EventPayload json.RawMessage     `json:"EventPayload"`
}

func (s *GameSocket) dispatch(frame wireFrame) {
	if frame.Kind != "" {
		s.logger.Debug("ws_greeting", zap.String("kind", frame.Kind))
		return
	}
	if frame.EventType == nil {
		s.logger.Warn("drop_invalid_frame", zap.String("reason", "missing EventType"))
		return
	}

	ev, err := DecodeEvent(scribdto.Envelope{EventType: *frame.EventType, EventPayload: frame.EventPayload})
	if err != nil {
		if errors.Is(err, ErrReservedEventType) {
			s.logger.Debug("drop_reserved_event", zap.Stringer("event_type", *frame.EventType))
			return
		}
		s.logger.Warn("drop_invalid_payload", zap.Stringer("event_type", *frame.EventType), zap.Error(err))
		return
	}
	s.bus.Publish(ev)
}

func (s *GameSocket) pingLoop(ctx context.Context, conn *websocket.Conn, stop chan struct{}) {
	defer s.wg.Done()
	t := time.NewTicker(s.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := conn.Ping(pctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures < 2 {
				continue
			}
			select {
			case <-stop:
				return
			default:
			}
			if !s.claimFailure(conn) {
				return
			}
			s.logger.Warn("ws_ping_failure", zap.String("conn_id", s.connID), zap.Error(err))
			s.setState(SocketDisconnected)
			_ = conn.Close(websocket.StatusGoingAway, "ping failure")
			s.scheduleReconnect(stop)
			return
		}
	}
}

// scheduleReconnect redials the current session key with capped exponential
// backoff. Disabled unless WithReconnect was given; the default behaviour on
// a dropped connection is to stay down (snapshots re-seed state on the next
// explicit Connect).
func (s *GameSocket) scheduleReconnect(stop chan struct{}) {
	if s.maxReconnectAttempts <= 0 {
		return
	}

	s.mu.Lock()
	var key SessionKey
	if s.key != nil {
		key = *s.key
	}
	rootCtx := s.rootCtx
	s.mu.Unlock()
	if key.PlayerID == "" || rootCtx == nil {
		return
	}

	s.setState(SocketReconnecting)
	go func() {
		for attempt := 1; attempt <= s.maxReconnectAttempts; attempt++ {
			select {
			case <-stop:
				return
			case <-time.After(backoffDuration(attempt)):
			}

			connID := uuid.NewString()
			dialCtx, cancel := context.WithTimeout(rootCtx, s.dialTimeout)
			conn, _, err := websocket.Dial(dialCtx, s.endpoint(key), &websocket.DialOptions{
				CompressionMode: websocket.CompressionNoContextTakeover,
				HTTPHeader:      s.buildHeaders(connID),
			})
			cancel()
			if err != nil {
				s.logger.Warn("ws_reconnect_failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}

			s.mu.Lock()
			if s.stopCh != stop {
				// Closed or superseded while dialing; this era is over.
				s.mu.Unlock()
				_ = conn.Close(websocket.StatusNormalClosure, "superseded")
				return
			}
			s.conn = conn
			s.connID = connID
			s.wg.Add(2)
			s.mu.Unlock()

			s.setState(SocketConnected)
			s.logger.Info("ws_reconnected", zap.String("session", key.String()), zap.String("conn_id", connID))
			go s.listen(rootCtx, conn, stop)
			go s.pingLoop(rootCtx, conn, stop)
			return
		}
		s.setState(SocketFailed)
	}()
}

func (s *GameSocket) endpoint(key SessionKey) string {
	return s.wsBaseURL + "/game_connection/" + url.PathEscape(key.PlayerID)
}

func (s *GameSocket) buildHeaders(connID string) http.Header {
	hdr := http.Header{}
	hdr.Set("X-Client-Id", connID)
	if s.headers == nil {
		return hdr
	}
	for k, v := range s.headers() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
