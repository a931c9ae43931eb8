package beapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrSocketClosed is returned when sending on a closed socket.
	ErrSocketClosed = errors.New("beapi: socket closed")
	// ErrSocketBusy is returned when the outgoing queue is full.
	ErrSocketBusy = errors.New("beapi: socket queue full")
)

// socketQueueSize bounds the messages waiting for the writer.
const socketQueueSize = 64

// JSONRequest is a JSON object exchanged with the socket endpoint.
type JSONRequest map[string]any

// Socket is a websocket connection to an external tool. Messages are queued
// and written by a background writer, which dials lazily and re-dials after a
// failure, so SendMessage never waits on the network.
type Socket struct {
	url    string
	dialer *websocket.Dialer
	logger *slog.Logger
	events Emitter

	log    atomic.Bool
	closed atomic.Bool

	mu   sync.Mutex
	conn *websocket.Conn

	out        chan JSONRequest
	writerOnce sync.Once
	done       chan struct{}
}

// SocketOption configures a Socket.
type SocketOption func(*Socket)

// WithSocketLogger sets the logger used for traffic and connection errors.
func WithSocketLogger(log *slog.Logger) SocketOption {
	return func(s *Socket) {
		s.logger = log
	}
}

// WithSocketEvents emits EventSocketMessage for every message read.
func WithSocketEvents(e Emitter) SocketOption {
	return func(s *Socket) {
		s.events = e
	}
}

// WithSocketLog sets the initial value of the log flag.
func WithSocketLog(enabled bool) SocketOption {
	return func(s *Socket) {
		s.log.Store(enabled)
	}
}

// NewSocket creates a socket for the websocket endpoint at url.
func NewSocket(url string, opts ...SocketOption) *Socket {
	s := &Socket{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 5 * time.Second,
		},
		logger: slog.Default(),
		out:    make(chan JSONRequest, socketQueueSize),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Log reports whether traffic is logged.
func (s *Socket) Log() bool {
	return s.log.Load()
}

// SetLog toggles traffic logging.
func (s *Socket) SetLog(enabled bool) {
	s.log.Store(enabled)
}

// Connect dials the endpoint if not connected yet.
func (s *Socket) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.connect(ctx)
	return err
}

// connect dials the endpoint. Caller must hold mu.
func (s *Socket) connect(ctx context.Context) (*websocket.Conn, error) {
	if s.closed.Load() {
		return nil, ErrSocketClosed
	}
	if s.conn != nil {
		return s.conn, nil
	}

	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial socket %s: %w", s.url, err)
	}
	s.conn = conn
	go s.readLoop(conn)
	return conn, nil
}

// SendMessage queues req to be written as JSON. It returns once the message
// is queued; dial and write failures are logged by the writer.
func (s *Socket) SendMessage(req JSONRequest) error {
	if s.closed.Load() {
		return ErrSocketClosed
	}
	s.writerOnce.Do(func() { go s.writeLoop() })

	select {
	case s.out <- req:
		return nil
	default:
		return ErrSocketBusy
	}
}

// writeLoop writes queued messages until the socket is closed.
func (s *Socket) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case req := <-s.out:
			if err := s.write(req); err != nil {
				s.logger.Warn("beapi: socket send failed", "error", err)
			}
		}
	}
}

func (s *Socket) write(req JSONRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		s.conn = nil
		return fmt.Errorf("write socket: %w", err)
	}
	if s.log.Load() {
		s.logger.Info("beapi: socket send", "payload", req)
	}
	return nil
}

// readLoop reads messages until the connection fails.
func (s *Socket) readLoop(conn *websocket.Conn) {
	for {
		var req JSONRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !s.closed.Load() && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				s.logger.Warn("beapi: socket read failed", "error", err)
			}
			s.drop(conn)
			return
		}
		if s.log.Load() {
			s.logger.Info("beapi: socket receive", "payload", req)
		}
		if s.events != nil {
			s.events.Emit(EventSocketMessage, SocketMessageEvent{Request: req})
		}
	}
}

// drop forgets conn if it is still the current connection.
func (s *Socket) drop(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	conn.Close()
}

// Close closes the connection. Later sends fail with ErrSocketClosed.
func (s *Socket) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)

	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return conn.Close()
}
