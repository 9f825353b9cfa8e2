package listener

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pixil98/go-geoquest/internal/message"
)

const (
	// forceCloseAfter is the hard silence limit: no inbound traffic for
	// this long closes the connection unconditionally.
	forceCloseAfter = 8000 * time.Millisecond
	// pingAfterSilence and pingGap together drive heartbeat injection:
	// once inbound silence passes pingAfterSilence, a ping is sent
	// unless one was already sent within pingGap.
	pingAfterSilence = 2000 * time.Millisecond
	pingGap          = 3000 * time.Millisecond

	queuePoll     = 2 * time.Second
	writeWait     = 10 * time.Second
	sendQueueSize = 256
)

// wire is the subset of *websocket.Conn the connection actor touches.
type wire interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Connection pairs one websocket with an ordered outbound queue and a
// drain loop. Game logic enqueues through Send without ever blocking on
// network I/O; the drain loop transmits one message at a time, so
// per-connection delivery order matches enqueue order.
type Connection struct {
	conn    wire
	handler message.ServerHandler
	onClose func()
	now     func() time.Time

	queue chan message.ToClient

	mu          sync.Mutex
	closed      bool
	lastReceive time.Time
	lastPing    time.Time
}

func newConnection(conn wire, now func() time.Time) *Connection {
	c := &Connection{
		conn:  conn,
		now:   now,
		queue: make(chan message.ToClient, sendQueueSize),
	}
	t := now()
	c.lastReceive = t
	c.lastPing = t
	return c
}

var _ message.Sink = (*Connection)(nil)

// Send enqueues a message for transmission. A full queue means the
// client stopped draining long ago; the connection is closed rather
// than blocking the caller.
func (c *Connection) Send(msg message.ToClient) {
	select {
	case c.queue <- msg:
	default:
		go c.close(true)
	}
}

type livenessAction int

const (
	livenessOK livenessAction = iota
	livenessPing
	livenessClose
)

// checkLiveness evaluates the silence thresholds against the injected
// clock. A returned livenessPing already counts as sent.
func (c *Connection) checkLiveness() livenessAction {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	silence := now.Sub(c.lastReceive)
	if silence > forceCloseAfter {
		return livenessClose
	}
	if silence > pingAfterSilence && now.Sub(c.lastPing) > pingGap {
		c.lastPing = now
		return livenessPing
	}
	return livenessOK
}

// drainLoop transmits queued messages one at a time, waking at least
// every queuePoll to run the liveness protocol. The Disconnect sentinel
// closes the connection instead of being transmitted.
func (c *Connection) drainLoop() {
	for {
		switch c.checkLiveness() {
		case livenessClose:
			c.close(true)
			return
		case livenessPing:
			// Heartbeats jump the queue so queued application
			// messages cannot starve them.
			if !c.write(message.Ping{}) {
				return
			}
		}

		select {
		case msg := <-c.queue:
			if _, ok := msg.(message.Disconnect); ok {
				c.close(false)
				return
			}
			if !c.write(msg) {
				return
			}
		case <-time.After(queuePoll):
		}
	}
}

func (c *Connection) write(msg message.ToClient) bool {
	data, err := message.EncodeToClient(msg)
	if err != nil {
		slog.Error("encoding outbound message", "error", err)
		c.close(true)
		return false
	}
	_ = c.conn.SetWriteDeadline(c.now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.close(true)
		return false
	}
	return true
}

// readLoop decodes frames and dispatches them into the game handler.
// Any malformed payload closes the connection.
func (c *Connection) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.close(true)
			return
		}
		msg, err := message.DecodeToServer(data)
		if err != nil {
			slog.Warn("closing connection on bad payload", "error", err)
			c.close(true)
			return
		}
		c.touch()
		message.DispatchToServer(msg, c.handler)
	}
}

func (c *Connection) touch() {
	c.mu.Lock()
	c.lastReceive = c.now()
	c.mu.Unlock()
}

// close shuts the socket exactly once. notify distinguishes a locally
// detected failure, which must tell the game side, from a
// coordinator-initiated disconnect, which must not loop back into it.
func (c *Connection) close(notify bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	if err := c.conn.Close(); err != nil {
		slog.Debug("closing websocket", "error", err)
	}
	if notify && c.onClose != nil {
		c.onClose()
	}
}
