package realtime

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"area/pkg/logging"
)

// ConnState is the lifecycle state of the channel.
type ConnState int

const (
	// StateDisconnected means no connection exists and none is being
	// attempted.
	StateDisconnected ConnState = iota

	// StateConnecting means a dial or reconnect is under way.
	StateConnecting

	// StateConnected means the websocket is open.
	StateConnected
)

// String returns the state name.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

const (
	// maxReconnectAttempts is the reconnect ceiling. Past it the
	// channel stays down until Connect is called again.
	maxReconnectAttempts = 5

	// defaultReconnectDelay is the backoff unit: attempt n waits
	// n * this delay.
	defaultReconnectDelay = 3 * time.Second
)

// EventConnected, EventDisconnected and EventError are synthetic frames
// emitted on lifecycle transitions; they reach only their own listeners.
// EventAny listeners receive every inbound data frame after the
// type-specific listeners.
const (
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
	EventError        = "error"
	EventAny          = "message"
)

// Frame is one decoded notification.
type Frame struct {
	// Type is the frame's "type" field. Synthetic lifecycle frames use
	// EventConnected / EventDisconnected.
	Type string

	// Data is the full decoded frame. Nil for synthetic frames.
	Data map[string]interface{}
}

// Listener receives frames. Panics are recovered per listener so one
// broken callback cannot starve its siblings.
type Listener func(Frame)

type listenerEntry struct {
	id int64
	fn Listener
}

// Channel is the resilient notification channel. The zero value is not
// usable; construct with NewChannel.
type Channel struct {
	endpoint       string
	reconnectDelay time.Duration
	dialer         *websocket.Dialer

	mu             sync.Mutex
	state          ConnState
	conn           *websocket.Conn
	token          string
	attempts       int
	reconnectTimer *time.Timer
	intentional    bool
	writeMu        sync.Mutex

	listenersMu sync.RWMutex
	listeners   map[string][]listenerEntry
	nextID      int64
}

// Config configures the channel.
type Config struct {
	// Endpoint is the websocket URL, e.g. "ws://localhost:8000/ws".
	// Empty disables the channel entirely.
	Endpoint string

	// ReconnectDelay overrides the backoff unit. Zero keeps the
	// default.
	ReconnectDelay time.Duration

	// Dialer overrides the websocket dialer.
	Dialer *websocket.Dialer
}

// NewChannel creates a channel. It does not connect.
func NewChannel(cfg Config) *Channel {
	delay := cfg.ReconnectDelay
	if delay == 0 {
		delay = defaultReconnectDelay
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	return &Channel{
		endpoint:       cfg.Endpoint,
		reconnectDelay: delay,
		dialer:         dialer,
		listeners:      make(map[string][]listenerEntry),
	}
}

// State returns the current connection state.
func (c *Channel) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect opens the channel with the given bearer token. A channel
// without a configured endpoint ignores the call. Connect resets the
// reconnect budget.
func (c *Channel) Connect(token string) {
	if c.endpoint == "" {
		logging.Debug("Realtime", "No websocket endpoint configured, channel disabled")
		return
	}

	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		logging.Debug("Realtime", "Connect ignored: channel is %s", c.state)
		return
	}
	c.token = token
	c.attempts = 0
	c.intentional = false
	c.state = StateConnecting
	c.mu.Unlock()

	c.dial()
}

// dial attempts one connection with the stored token.
func (c *Channel) dial() {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	conn, _, err := c.dialer.Dial(c.connectURL(token), nil)
	if err != nil {
		logging.Warn("Realtime", "Websocket dial failed: %v", err)
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		c.emit(Frame{Type: EventError})
		c.emit(Frame{Type: EventDisconnected})
		c.scheduleReconnect()
		return
	}

	c.mu.Lock()
	if c.intentional {
		// Disconnect raced the dial; drop the fresh connection
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.state = StateConnected
	c.attempts = 0
	c.mu.Unlock()

	logging.Info("Realtime", "Notification channel connected")
	c.emit(Frame{Type: EventConnected})

	go c.readLoop(conn)
}

// connectURL appends the token as a query parameter.
func (c *Channel) connectURL(token string) string {
	return strings.TrimRight(c.endpoint, "/") + "/?token=" + url.QueryEscape(token)
}

// readLoop is the single reader goroutine for one connection.
func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(conn, err)
			return
		}

		var decoded map[string]interface{}
		if err := json.Unmarshal(data, &decoded); err != nil {
			logging.Warn("Realtime", "Dropping unparseable frame: %v", err)
			continue
		}

		frame := Frame{Data: decoded}
		if t, ok := decoded["type"].(string); ok {
			frame.Type = t
		}
		c.emit(frame)
	}
}

// handleClose runs when the reader sees an error or close.
func (c *Channel) handleClose(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		// a newer connection replaced this one; nothing to do
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = StateDisconnected
	intentional := c.intentional
	c.mu.Unlock()

	conn.Close()

	if intentional {
		return
	}

	logging.Warn("Realtime", "Notification channel closed: %v", err)
	c.emit(Frame{Type: EventError})
	c.emit(Frame{Type: EventDisconnected})
	c.scheduleReconnect()
}

// scheduleReconnect arms the next attempt with linear backoff, or gives
// up at the ceiling.
func (c *Channel) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.intentional {
		return
	}
	if c.attempts >= maxReconnectAttempts {
		logging.Warn("Realtime", "Giving up after %d reconnect attempts", c.attempts)
		return
	}

	c.attempts++
	delay := time.Duration(c.attempts) * c.reconnectDelay
	logging.Info("Realtime", "Reconnecting in %s (attempt %d/%d)", delay, c.attempts, maxReconnectAttempts)

	c.state = StateConnecting
	c.reconnectTimer = time.AfterFunc(delay, c.dial)
}

// Disconnect closes the channel, cancels any scheduled reconnect,
// clears every listener and resets the reconnect budget. Safe from any
// state.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.intentional = true
	c.attempts = 0
	c.state = StateDisconnected
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}

	c.listenersMu.Lock()
	c.listeners = make(map[string][]listenerEntry)
	c.listenersMu.Unlock()
}

// Send writes v as a JSON frame. When the channel is not connected the
// frame is dropped with a warning; nothing is queued.
func (c *Channel) Send(v interface{}) {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		logging.Warn("Realtime", "Dropping outbound frame: channel not connected")
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(v); err != nil {
		logging.Warn("Realtime", "Failed to send frame: %v", err)
	}
}

// On registers cb for frames of the given event type. EventAny
// subscribes to every inbound data frame; lifecycle frames go only to
// their typed listeners. The returned function unsubscribes and is
// idempotent.
func (c *Channel) On(event string, cb Listener) func() {
	c.listenersMu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners[event] = append(c.listeners[event], listenerEntry{id: id, fn: cb})
	c.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.listenersMu.Lock()
			defer c.listenersMu.Unlock()
			entries := c.listeners[event]
			for i, entry := range entries {
				if entry.id == id {
					c.listeners[event] = append(entries[:i:i], entries[i+1:]...)
					break
				}
			}
		})
	}
}

// emit dispatches a frame to its typed listeners, then to the EventAny
// set, in subscription order. Synthetic lifecycle frames carry no data
// and never reach the wildcard set.
func (c *Channel) emit(frame Frame) {
	c.listenersMu.RLock()
	typed := append([]listenerEntry(nil), c.listeners[frame.Type]...)
	var wildcard []listenerEntry
	if frame.Type != EventAny && frame.Data != nil {
		wildcard = append([]listenerEntry(nil), c.listeners[EventAny]...)
	}
	c.listenersMu.RUnlock()

	for _, entry := range typed {
		c.invoke(entry, frame)
	}
	for _, entry := range wildcard {
		c.invoke(entry, frame)
	}
}

func (c *Channel) invoke(entry listenerEntry, frame Frame) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Realtime", fmt.Errorf("%v", r), "Listener panicked on %s frame", frame.Type)
		}
	}()
	entry.fn(frame)
}
