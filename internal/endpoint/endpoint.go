package endpoint

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jsonmux/jsonmux/internal/observability"
	"github.com/jsonmux/jsonmux/internal/protocol"
	"github.com/jsonmux/jsonmux/internal/protocol/frame"
)

const readChunkSize = 4 * 1024

var ErrEndpointClosed = errors.New("endpoint: closed")

// Hooks are lifecycle notifications: diagnostics only, no protocol
// effect. Nil entries are skipped.
type Hooks struct {
	Closed         func(err error)
	TransportError func(err error)
	MalformedFrame func(err error)
}

// Options configures one endpoint at construction. The prefix width is
// fixed for the connection's whole lifetime.
type Options struct {
	Role         string
	Logger       zerolog.Logger
	Hooks        Hooks
	WriteTimeout time.Duration
}

// Endpoint owns one connection, its accumulation buffer and its codec.
// Reads happen on the goroutine that calls Run; Send is safe for
// concurrent use.
type Endpoint struct {
	conn  net.Conn
	width frame.PrefixWidth
	dec   *frame.Decoder
	opts  Options
	log   zerolog.Logger

	wmu       sync.Mutex
	closeOnce sync.Once
	closedC   chan struct{}
}

func New(conn net.Conn, width frame.PrefixWidth, opts Options) (*Endpoint, error) {
	dec, err := frame.NewDecoder(width)
	if err != nil {
		return nil, err
	}
	if opts.Role == "" {
		opts.Role = "peer"
	}
	e := &Endpoint{
		conn:    conn,
		width:   width,
		dec:     dec,
		opts:    opts,
		log:     opts.Logger.With().Str("remote", conn.RemoteAddr().String()).Logger(),
		closedC: make(chan struct{}),
	}
	observability.RecordConnectionOpened(opts.Role)
	e.log.Debug().Int("prefix_width", int(width)).Msg("endpoint connected")
	return e, nil
}

// Run reads transport bytes until the connection closes or fails,
// forwarding each decoded message to dispatch in stream order. A
// malformed frame is reported and skipped; it never stops the stream.
// Returns nil on orderly close.
func (e *Endpoint) Run(dispatch func(protocol.Message)) error {
	defer e.markClosed()
	buf := make([]byte, readChunkSize)
	for {
		n, err := e.conn.Read(buf)
		if n > 0 {
			for _, res := range e.dec.Feed(buf[:n]) {
				if res.Err != nil {
					observability.RecordFrameError(e.opts.Role, "malformed")
					e.log.Warn().Err(res.Err).Msg("malformed frame discarded")
					if e.opts.Hooks.MalformedFrame != nil {
						e.opts.Hooks.MalformedFrame(res.Err)
					}
					continue
				}
				observability.RecordFrame(e.opts.Role, "in")
				dispatch(res.Msg)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				e.log.Debug().Msg("endpoint closed")
				e.notifyClosed(nil)
				return nil
			}
			observability.RecordFrameError(e.opts.Role, "transport")
			e.log.Warn().Err(err).Msg("transport error")
			if e.opts.Hooks.TransportError != nil {
				e.opts.Hooks.TransportError(err)
			}
			e.notifyClosed(err)
			return fmt.Errorf("endpoint: read: %w", err)
		}
	}
}

// Send encodes msg and writes the frame. An oversized message fails
// with frame.ErrFrameTooLarge before any bytes reach the wire.
func (e *Endpoint) Send(msg protocol.Message) error {
	b, err := frame.Encode(msg, e.width)
	if err != nil {
		if errors.Is(err, frame.ErrFrameTooLarge) {
			observability.RecordFrameError(e.opts.Role, "too_large")
		}
		return err
	}
	e.wmu.Lock()
	defer e.wmu.Unlock()
	select {
	case <-e.closedC:
		return ErrEndpointClosed
	default:
	}
	if e.opts.WriteTimeout > 0 {
		_ = e.conn.SetWriteDeadline(time.Now().Add(e.opts.WriteTimeout))
	}
	if _, err := e.conn.Write(b); err != nil {
		observability.RecordFrameError(e.opts.Role, "transport")
		e.log.Warn().Err(err).Msg("write failed")
		if e.opts.Hooks.TransportError != nil {
			e.opts.Hooks.TransportError(err)
		}
		return fmt.Errorf("endpoint: write: %w", err)
	}
	observability.RecordFrame(e.opts.Role, "out")
	return nil
}

// Close tears down the transport; Run unblocks shortly after.
func (e *Endpoint) Close() error {
	e.markClosed()
	return e.conn.Close()
}

func (e *Endpoint) RemoteAddr() net.Addr {
	return e.conn.RemoteAddr()
}

func (e *Endpoint) markClosed() {
	e.closeOnce.Do(func() {
		close(e.closedC)
		observability.RecordConnectionClosed(e.opts.Role)
	})
}

func (e *Endpoint) notifyClosed(err error) {
	if e.opts.Hooks.Closed != nil {
		e.opts.Hooks.Closed(err)
	}
}
