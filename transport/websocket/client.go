package websocket

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/YoonKyungHan/baseball/internal/protocol"
)

const outboundQueueSize = 64

var (
	errClientBacklogged = errors.New("client send queue is full")
	errClientClosed     = errors.New("client connection is closed")
)

// Client is one connected websocket peer. It implements protocol.Sender, so
// the engine can hand it notifications without knowing about websockets.
type Client struct {
	logger *slog.Logger
	conn   *websocket.Conn
	out    chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(logger *slog.Logger, conn *websocket.Conn) *Client {
	return &Client{
		logger: logger,
		conn:   conn,
		out:    make(chan []byte, outboundQueueSize),
	}
}

// Send encodes a notification and queues it for the write loop. The engine
// may still hold this handle after teardown, so a closed client reports an
// error instead of touching the queue. A client that cannot keep up loses
// messages rather than stalling the engine.
func (that *Client) Send(notification protocol.Notification) error {
	encoded, err := protocol.Encode(notification)
	if err != nil {
		return fmt.Errorf("failed to encode %q notification: %w", notification.Type(), err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return fmt.Errorf("%w: dropping %q", errClientClosed, notification.Type())
	}

	select {
	case that.out <- encoded:
		return nil
	default:
		return fmt.Errorf("%w: dropping %q", errClientBacklogged, notification.Type())
	}
}

// writeLoop drains the outbound queue onto the wire. It owns all writes to
// the connection and closes it once the queue is done.
func (that *Client) writeLoop() {
	defer func() {
		_ = that.conn.Close()
	}()

	for message := range that.out {
		if err := that.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			that.logger.Error("failed to write message", "error", err)
			return
		}
	}
}

// close stops accepting notifications and lets the write loop drain what is
// already queued. Safe to call more than once.
func (that *Client) close() {
	that.mu.Lock()
	if that.closed {
		that.mu.Unlock()
		return
	}
	that.closed = true
	that.mu.Unlock()

	close(that.out)
}
