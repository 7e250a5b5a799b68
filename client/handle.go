// ABOUTME: Reconnect-aware websocket handle shared by all UI components
// ABOUTME: One logical connection with a sticky manual-disconnect latch
package client

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/coldreach/coldreach/realtime"
)

const (
	defaultReconnectEvery = 10 * time.Second
	defaultDialTimeout    = 5 * time.Second
	defaultMaxRetries     = 30
	backoffBase           = time.Second
	backoffMax            = 30 * time.Second
)

// HandleConfig tunes the connection behaviour. Zero values fall back to the
// defaults above.
type HandleConfig struct {
	URL            string
	ReconnectEvery time.Duration
	DialTimeout    time.Duration
	// MaxRetries bounds consecutive failed reconnect attempts before the
	// handle gives up until the next explicit Connect. <= 0 means the default.
	MaxRetries int
}

// Handle maintains one logical connection for the whole client runtime.
// Construct it once at the composition root and share it; components must
// not dial their own connections.
//
// The handle never connects on its own: Connect (or ToggleConnection) starts
// it, Disconnect latches it off, and only then does the retry loop keep the
// connection alive across drops. All reconnection lives here, behind a single
// in-flight guard, so there is exactly one dialer no matter how the retry
// ticker and a concurrent Connect interleave.
type Handle struct {
	cfg    HandleConfig
	logger *log.Logger

	mu            sync.Mutex
	conn          *websocket.Conn
	connecting    bool
	wantConnected bool
	failures      int
	subs          map[string]map[int]func(json.RawMessage)
	nextSubID     int

	writeMu sync.Mutex

	stop     chan struct{}
	stopOnce sync.Once
}

// NewHandle builds a handle. It does not connect.
func NewHandle(cfg HandleConfig, logger *log.Logger) *Handle {
	if cfg.ReconnectEvery <= 0 {
		cfg.ReconnectEvery = defaultReconnectEvery
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	h := &Handle{
		cfg:    cfg,
		logger: logger,
		subs:   make(map[string]map[int]func(json.RawMessage)),
		stop:   make(chan struct{}),
	}
	go h.retryLoop()
	return h
}

// Connect clears the manual-disconnect latch and dials if not already
// connected. Idempotent: a no-op when connected or while a dial is in flight.
func (h *Handle) Connect() error {
	h.mu.Lock()
	h.wantConnected = true
	h.failures = 0
	if h.conn != nil || h.connecting {
		h.mu.Unlock()
		return nil
	}
	h.connecting = true
	h.mu.Unlock()

	return h.dial()
}

// Disconnect tears down the connection and sets the manual-disconnect latch:
// no automatic reconnect happens until Connect or ToggleConnection.
func (h *Handle) Disconnect() {
	h.mu.Lock()
	h.wantConnected = false
	conn := h.conn
	h.conn = nil
	h.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// ToggleConnection inverts the effective connection state.
func (h *Handle) ToggleConnection() {
	if h.IsConnected() {
		h.Disconnect()
		return
	}
	if err := h.Connect(); err != nil {
		h.logger.Warn("connect failed", "err", err)
	}
}

// IsConnected reports whether a live connection exists.
func (h *Handle) IsConnected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conn != nil
}

// Emit sends an event to the server. Logged and dropped when disconnected:
// never throws, never queues.
func (h *Handle) Emit(event string, payload interface{}) {
	h.mu.Lock()
	conn := h.conn
	h.mu.Unlock()

	if conn == nil {
		h.logger.Debug("not connected, dropping emit", "event", event)
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal emit payload", "event", event, "err", err)
		return
	}

	h.writeMu.Lock()
	err = conn.WriteJSON(realtime.Envelope{Event: event, Payload: data})
	h.writeMu.Unlock()
	if err != nil {
		h.logger.Warn("emit write failed", "event", event, "err", err)
	}
}

// On registers a callback for the named event and returns an unsubscribe
// function that removes only this callback.
func (h *Handle) On(event string, fn func(json.RawMessage)) func() {
	h.mu.Lock()
	if h.subs[event] == nil {
		h.subs[event] = make(map[int]func(json.RawMessage))
	}
	id := h.nextSubID
	h.nextSubID++
	h.subs[event][id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		if m, ok := h.subs[event]; ok {
			delete(m, id)
			if len(m) == 0 {
				delete(h.subs, event)
			}
		}
		h.mu.Unlock()
	}
}

// Close stops the retry loop and drops any connection. Only used at process
// exit (and in tests); the handle is not restartable.
func (h *Handle) Close() {
	h.stopOnce.Do(func() { close(h.stop) })
	h.Disconnect()
}

// dial attempts one connection. Callers must have set h.connecting.
func (h *Handle) dial() error {
	dialer := websocket.Dialer{HandshakeTimeout: h.cfg.DialTimeout}
	conn, _, err := dialer.Dial(h.cfg.URL, nil)

	h.mu.Lock()
	h.connecting = false
	if err != nil {
		h.failures++
		h.mu.Unlock()
		h.logger.Warn("dial failed", "url", h.cfg.URL, "attempt", h.failures, "err", err)
		return err
	}
	if !h.wantConnected {
		// Disconnect raced the dial; honor the latch.
		h.mu.Unlock()
		conn.Close()
		return nil
	}
	h.conn = conn
	h.failures = 0
	h.mu.Unlock()

	h.logger.Debug("connected", "url", h.cfg.URL)
	go h.readLoop(conn)
	return nil
}

// readLoop dispatches incoming envelopes until the connection drops.
func (h *Handle) readLoop(conn *websocket.Conn) {
	defer func() {
		h.mu.Lock()
		if h.conn == conn {
			h.conn = nil
		}
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			h.logger.Debug("connection dropped", "err", err)
			return
		}

		var env realtime.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		h.dispatch(env)
	}
}

func (h *Handle) dispatch(env realtime.Envelope) {
	h.mu.Lock()
	callbacks := make([]func(json.RawMessage), 0, len(h.subs[env.Event]))
	for _, fn := range h.subs[env.Event] {
		callbacks = append(callbacks, fn)
	}
	h.mu.Unlock()

	for _, fn := range callbacks {
		fn(env.Payload)
	}
}

// retryLoop is the only place reconnects originate. Every tick it dials if
// the handle wants a connection, has none, and no dial is in flight. The
// manual-disconnect latch (wantConnected == false) suppresses it entirely.
func (h *Handle) retryLoop() {
	ticker := time.NewTicker(h.cfg.ReconnectEvery)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			h.mu.Lock()
			if !h.wantConnected || h.conn != nil || h.connecting {
				h.mu.Unlock()
				continue
			}
			if h.failures >= h.cfg.MaxRetries {
				h.logger.Warn("reconnect attempts exhausted", "attempts", h.failures)
				h.wantConnected = false
				h.mu.Unlock()
				continue
			}
			h.connecting = true
			delay := h.backoff()
			h.mu.Unlock()

			// Spread attempts so a restarting server isn't stampeded.
			time.Sleep(delay)
			_ = h.dial()
		}
	}
}

// backoff returns an exponential delay with jitter based on the consecutive
// failure count. Called with h.mu held.
func (h *Handle) backoff() time.Duration {
	if h.failures == 0 {
		return 0
	}
	delay := backoffMax
	if h.failures <= 5 {
		delay = backoffBase << (h.failures - 1)
	}
	jitter := time.Duration(rand.Int63n(int64(delay) / 2))
	return delay/2 + jitter
}
