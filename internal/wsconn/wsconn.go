// Package wsconn provides a websocket client with automatic reconnection.
package wsconn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Config holds websocket client configuration.
type Config struct {
	URL            string
	Name           string // used in error messages
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
	BufferSize     int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0,
		PingInterval:   30 * time.Second,
		BufferSize:     100,
	}
}

// Client is a reconnecting websocket client. Received messages are
// delivered on the Messages channel; the read loop reconnects with
// exponential backoff until Close is called or the context ends.
type Client struct {
	config Config

	conn   *websocket.Conn
	connMu sync.RWMutex

	state   State
	stateMu sync.RWMutex

	messages chan []byte
	done     chan struct{}
	closed   sync.Once
	wg       sync.WaitGroup
}

// New creates a new websocket client.
func New(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, errors.New("wsconn: url is required")
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 100
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 30 * time.Second
	}
	return &Client{
		config:   config,
		state:    StateDisconnected,
		messages: make(chan []byte, config.BufferSize),
		done:     make(chan struct{}),
	}, nil
}

// Connect establishes the connection and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	c.setState(StateConnecting)

	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("wsconn %s: dial: %w", c.config.Name, err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	c.setState(StateConnected)

	c.wg.Add(1)
	go c.readLoop(ctx)

	if c.config.PingInterval > 0 {
		c.wg.Add(1)
		go c.pingLoop(ctx)
	}

	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(1 << 20)
	return conn, nil
}

// Send sends a text message.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return fmt.Errorf("wsconn %s: not connected", c.config.Name)
	}
	return conn.Write(ctx, websocket.MessageText, msg)
}

// Messages returns the channel for receiving messages. The channel is
// closed when the client shuts down.
func (c *Client) Messages() <-chan []byte {
	return c.messages
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// IsConnected reports whether the connection is currently established.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Close shuts the client down. Safe to call more than once.
func (c *Client) Close() error {
	c.closed.Do(func() {
		close(c.done)
		c.connMu.Lock()
		if c.conn != nil {
			_ = c.conn.Close(websocket.StatusNormalClosure, "client closing")
			c.conn = nil
		}
		c.connMu.Unlock()
		c.setState(StateDisconnected)
	})
	return nil
}

func (c *Client) readLoop(ctx context.Context) {
	defer c.wg.Done()
	defer close(c.messages)

	reconnects := 0
	backoff := c.config.InitialBackoff

	for {
		c.connMu.RLock()
		conn := c.conn
		c.connMu.RUnlock()
		if conn == nil {
			return
		}

		_, data, err := conn.Read(ctx)
		if err == nil {
			backoff = c.config.InitialBackoff
			reconnects = 0
			select {
			case c.messages <- data:
			case <-c.done:
				return
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		// Read failed: reconnect with backoff.
		if c.config.MaxReconnects > 0 && reconnects >= c.config.MaxReconnects {
			c.setState(StateDisconnected)
			return
		}
		reconnects++
		c.setState(StateReconnecting)

		select {
		case <-time.After(backoff):
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
		backoff *= 2
		if backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}

		newConn, dialErr := c.dial(ctx)
		if dialErr != nil {
			continue
		}
		c.connMu.Lock()
		c.conn = newConn
		c.connMu.Unlock()
		c.setState(StateConnected)
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()
			if conn == nil {
				continue
			}
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			_ = conn.Ping(pingCtx)
			cancel()
		}
	}
}

func (c *Client) setState(state State) {
	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()
}
