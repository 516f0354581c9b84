/*
Package ws keeps a subscription to the check-in stream alive.

Connection Lifecycle:
  - Disconnected: dial the endpoint. On failure wait a fixed delay and dial again, forever.
  - Connected: the subscribe handshake is written first; its failure counts as a
    connection error. Frames are then classified and handed to the Presenter.
  - Keepalive: a connection silent for longer than the idle timeout gets a ping.
  - Any read/write error or close frame drops back to Disconnected.

A single goroutine owns the lifecycle end to end. Each session adds one reader
goroutine that only performs blocking reads and forwards frames to the owner.
*/
package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/webitel/checkin-notifier/internal/domain/model"
	wsmarshaller "github.com/webitel/checkin-notifier/internal/handler/marshaller/ws"
	"github.com/webitel/checkin-notifier/internal/metrics"
	"github.com/webitel/checkin-notifier/internal/service"
)

// ErrClosedByPeer marks a session that ended with a close frame from the server.
var ErrClosedByPeer = errors.New("stream closed by peer")

// Manager implements the reconnect/keepalive state machine.
type Manager struct {
	logger    *slog.Logger
	dialer    Dialer
	presenter service.Presenter
	metrics   *metrics.Metrics
	endpoint  string
	config    managerConfig

	// [TEST_HOOKS]
	// Replaced in tests to drive time and reconnect pauses deterministically.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	// state is read and written by the Run goroutine only.
	state model.ConnectionState

	// [LIFECYCLE_CONTROL]
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type managerConfig struct {
	channel        string
	reconnectDelay time.Duration
	idleTimeout    time.Duration
	pollInterval   time.Duration
	writeTimeout   time.Duration
}

// NewManager wires a manager for endpoint. metrics may be nil.
func NewManager(endpoint string, dialer Dialer, presenter service.Presenter, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Manager {
	mgr := &Manager{
		logger:    logger.With(slog.String("component", "stream")),
		dialer:    dialer,
		presenter: presenter,
		metrics:   m,
		endpoint:  endpoint,
		config: managerConfig{
			channel:        wsmarshaller.DefaultChannel,
			reconnectDelay: DefaultReconnectDelay,
			idleTimeout:    DefaultIdleTimeout,
			pollInterval:   DefaultPollInterval,
			writeTimeout:   DefaultWriteTimeout,
		},
		now:   time.Now,
		sleep: sleepContext,
		state: model.StateDisconnected,
	}
	for _, opt := range opts {
		opt(mgr)
	}
	return mgr
}

// Start launches Run on its own goroutine and returns immediately.
// Calling Start on a running manager is a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		m.Run(ctx)
	}(m.done)
}

// Stop cancels the running manager and waits for it to exit or for ctx to expire.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run keeps the subscription alive until ctx is cancelled.
// It has no return value: failures are logged and followed by a reconnect.
func (m *Manager) Run(ctx context.Context) {
	m.logger.Info("[STREAM] manager started",
		slog.String("endpoint", m.endpoint),
		slog.String("channel", m.config.channel),
	)

	for {
		err := m.connectAndServe(ctx)
		m.setState(model.StateDisconnected)

		if ctx.Err() != nil {
			m.logger.Info("[STREAM] manager stopped")
			return
		}
		m.logDisconnect(err)

		// [FIXED_DELAY] No backoff growth and no attempt limit.
		if err := m.sleep(ctx, m.config.reconnectDelay); err != nil {
			m.logger.Info("[STREAM] manager stopped")
			return
		}
	}
}

func (m *Manager) logDisconnect(err error) {
	attrs := []any{slog.Duration("retry_in", m.config.reconnectDelay)}
	switch {
	case err == nil:
		m.logger.Info("[STREAM] disconnected", attrs...)
	case errors.Is(err, ErrClosedByPeer):
		m.logger.Info("[STREAM] disconnected", append(attrs, slog.String("reason", err.Error()))...)
	default:
		m.logger.Warn("[STREAM] disconnected", append(attrs, slog.Any("err", err))...)
	}
}

// connectAndServe runs one Disconnected -> Connected -> Disconnected cycle.
func (m *Manager) connectAndServe(ctx context.Context) error {
	m.setState(model.StateConnecting)
	m.metrics.ConnectAttempt()

	conn, err := m.dialer.Dial(ctx, m.endpoint)
	if err != nil {
		m.metrics.ConnectFailure()
		return fmt.Errorf("connect: %w", err)
	}

	s := m.newSession(conn)
	defer s.close()

	// [HANDSHAKE] Mandatory; a failed subscribe is a failed connection.
	if err := s.subscribe(); err != nil {
		m.metrics.ConnectFailure()
		return fmt.Errorf("subscribe: %w", err)
	}

	m.setState(model.StateConnected)
	s.logger.Info("[STREAM] connected and subscribed")

	return s.serve(ctx)
}

func (m *Manager) setState(s model.ConnectionState) {
	if m.state == s {
		return
	}
	m.logger.Debug("[STREAM] state change",
		slog.String("from", m.state.String()),
		slog.String("to", s.String()),
	)
	m.state = s
	m.metrics.SetState(s)
}

// frame is one unit forwarded from the reader goroutine to the owner.
type frame struct {
	kind int
	data []byte
	err  error
}

// session is the per-connection state of the read-loop.
type session struct {
	m      *Manager
	conn   Conn
	logger *slog.Logger

	// lastMessageTime drives the idle check; owned by the serve goroutine.
	lastMessageTime time.Time

	frames    chan frame
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func (m *Manager) newSession(conn Conn) *session {
	return &session{
		m:    m,
		conn: conn,
		logger: m.logger.With(
			slog.String("session_id", uuid.NewString()),
		),
		lastMessageTime: m.now(),
		frames:          make(chan frame),
		done:            make(chan struct{}),
	}
}

func (s *session) subscribe() error {
	payload, err := wsmarshaller.MarshalSubscribe(s.m.config.channel)
	if err != nil {
		return err
	}
	if err := s.write(websocket.TextMessage, payload); err != nil {
		return err
	}
	s.lastMessageTime = s.m.now()
	return nil
}

func (s *session) write(kind int, payload []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.m.config.writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(kind, payload)
}

// serve is the Connected read-loop. The ticker paces the idle check
// so the loop never spins while the connection is quiet.
func (s *session) serve(ctx context.Context) error {
	s.startReader()

	ticker := time.NewTicker(s.m.config.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.sendClose()
			return ctx.Err()

		case f := <-s.frames:
			if err := s.handleFrame(ctx, f); err != nil {
				return err
			}

		case <-ticker.C:
			if err := s.keepalive(); err != nil {
				return err
			}
		}
	}
}

// startReader installs control-frame hooks and launches the reader goroutine.
// Ping and pong hooks only forward; replies are written by the owner.
func (s *session) startReader() {
	s.conn.SetPingHandler(func(appData string) error {
		s.forward(frame{kind: websocket.PingMessage, data: []byte(appData)})
		return nil
	})
	s.conn.SetPongHandler(func(appData string) error {
		s.forward(frame{kind: websocket.PongMessage, data: []byte(appData)})
		return nil
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			kind, data, err := s.conn.ReadMessage()
			if err != nil {
				s.forward(frame{err: err})
				return
			}
			if !s.forward(frame{kind: kind, data: data}) {
				return
			}
		}
	}()
}

func (s *session) forward(f frame) bool {
	select {
	case s.frames <- f:
		return true
	case <-s.done:
		return false
	}
}

func (s *session) handleFrame(ctx context.Context, f frame) error {
	if f.err != nil {
		var ce *websocket.CloseError
		if errors.As(f.err, &ce) {
			s.m.metrics.FrameReceived("close")
			return fmt.Errorf("%w: code %d %s", ErrClosedByPeer, ce.Code, ce.Text)
		}
		return fmt.Errorf("read: %w", f.err)
	}

	s.lastMessageTime = s.m.now()

	switch f.kind {
	case websocket.TextMessage:
		s.m.metrics.FrameReceived("text")
		s.handleText(ctx, f.data)

	case websocket.PingMessage:
		s.m.metrics.FrameReceived("ping")
		if err := s.conn.WriteControl(websocket.PongMessage, f.data, time.Now().Add(s.m.config.writeTimeout)); err != nil {
			return fmt.Errorf("pong: %w", err)
		}

	case websocket.PongMessage:
		s.m.metrics.FrameReceived("pong")
		s.logger.Debug("[STREAM] pong received")

	default:
		s.m.metrics.FrameReceived("binary")
		s.logger.Debug("[STREAM] ignoring non-text frame", slog.Int("type", f.kind))
	}
	return nil
}

// handleText runs Decoder -> Classifier -> Presenter for one text frame.
// Frames that carry no event are dropped without touching the connection.
func (s *session) handleText(ctx context.Context, data []byte) {
	raw, ok := wsmarshaller.Decode(data)
	if !ok {
		s.m.metrics.FrameDropped()
		s.logger.Debug("[STREAM] dropping frame without event", slog.Int("size", len(data)))
		return
	}

	n := service.Classify(raw)
	s.m.metrics.NotificationClassified(n.Type)

	s.logger.Info("[STREAM] check-in classified",
		slog.String("member", n.Title),
		slog.String("severity", string(n.Type)),
		slog.Bool("requires_interaction", n.RequiresInteraction),
	)

	if err := s.m.presenter.Display(ctx, n); err != nil {
		s.m.metrics.PresenterError("display")
		s.logger.Warn("[STREAM] display hand-off failed", slog.Any("err", err))
	}
	if err := s.m.presenter.ForwardRaw(ctx, raw); err != nil {
		s.m.metrics.PresenterError("forward_raw")
		s.logger.Warn("[STREAM] forward hand-off failed", slog.Any("err", err))
	}
}

// keepalive pings a connection that has been silent longer than the idle timeout.
// The window restarts after every ping, so at most one ping goes out per window.
func (s *session) keepalive() error {
	now := s.m.now()
	idle := now.Sub(s.lastMessageTime)
	if idle <= s.m.config.idleTimeout {
		return nil
	}

	s.logger.Debug("[STREAM] connection idle, sending ping", slog.Duration("idle", idle))
	if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.m.config.writeTimeout)); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	s.m.metrics.PingSent()
	s.lastMessageTime = now
	return nil
}

func (s *session) sendClose() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client shutdown")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.m.config.writeTimeout))
}

// close stops the reader and releases the connection. Safe to call more than once.
func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
		s.wg.Wait()
	})
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
