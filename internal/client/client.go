package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jsonmux/jsonmux/internal/endpoint"
	"github.com/jsonmux/jsonmux/internal/logging"
	"github.com/jsonmux/jsonmux/internal/protocol"
	"github.com/jsonmux/jsonmux/internal/protocol/frame"
)

var (
	ErrClientClosed       = errors.New("client: closed")
	ErrDuplicateRequestID = errors.New("client: request id already outstanding")
)

// Options configures one client connection.
type Options struct {
	PrefixWidth  frame.PrefixWidth
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *zerolog.Logger
}

// Client owns one connection endpoint plus the pending table mapping
// outstanding request ids to their waiting callers. Entries are
// resolved exactly once by the reply carrying the same id; a reply with
// no matching entry is dropped.
type Client struct {
	ep  *endpoint.Endpoint
	log zerolog.Logger

	mu      sync.Mutex
	pending map[string]chan protocol.Message
	closed  bool

	done    chan struct{}
	readErr error
}

// Dial connects to a jsonmux server. The prefix width must match the
// server's; there is no in-band negotiation.
func Dial(addr string, opts Options) (*Client, error) {
	if opts.PrefixWidth == 0 {
		opts.PrefixWidth = frame.DefaultWidth
	}
	logger := logging.Runtime("client")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	dialer := net.Dialer{Timeout: opts.DialTimeout}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}

	c := &Client{
		log:     logger,
		pending: make(map[string]chan protocol.Message),
		done:    make(chan struct{}),
	}
	ep, err := endpoint.New(conn, opts.PrefixWidth, endpoint.Options{
		Role:         "client",
		Logger:       logger,
		WriteTimeout: opts.WriteTimeout,
	})
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.ep = ep
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	err := c.ep.Run(c.dispatch)

	c.mu.Lock()
	c.closed = true
	c.readErr = err
	c.pending = nil
	c.mu.Unlock()
	close(c.done)
}

// dispatch resolves the pending entry matching the inbound id, exactly
// once. Unsolicited messages have no client-side default handler and
// are dropped.
func (c *Client) dispatch(msg protocol.Message) {
	id := msg.ID()

	c.mu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		c.log.Debug().Str("id", id).Msg("reply with no pending request dropped")
		return
	}
	ch <- msg
}

// Request sends msg and waits for the reply carrying the same id,
// assigning a fresh id when msg has none. Cancellation comes only from
// ctx: with context.Background() an unanswered request waits
// indefinitely, exactly as the wire protocol allows.
func (c *Client) Request(ctx context.Context, msg protocol.Message) (protocol.Message, error) {
	id := msg.ID()
	if id == "" {
		id = protocol.NewID()
		msg.SetID(id)
	}

	ch := make(chan protocol.Message, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, c.closedErr()
	}
	if _, dup := c.pending[id]; dup {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrDuplicateRequestID, id)
	}
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.ep.Send(msg); err != nil {
		c.forget(id)
		return nil, err
	}

	select {
	case reply := <-ch:
		return reply, nil
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	case <-c.done:
		return nil, c.closedErr()
	}
}

// Send is fire-and-forget: the message still gets an id when it has
// none, but no pending entry is created and no reply is expected.
func (c *Client) Send(msg protocol.Message) error {
	if msg.ID() == "" {
		msg.SetID(protocol.NewID())
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return c.closedErr()
	}
	c.mu.Unlock()
	return c.ep.Send(msg)
}

// Close tears down the connection; outstanding Requests fail with
// ErrClientClosed or the transport error that killed the read loop.
func (c *Client) Close() error {
	return c.ep.Close()
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		delete(c.pending, id)
	}
}

func (c *Client) closedErr() error {
	if c.readErr != nil {
		return c.readErr
	}
	return ErrClientClosed
}
