package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jsonmux/jsonmux/internal/endpoint"
	"github.com/jsonmux/jsonmux/internal/logging"
	"github.com/jsonmux/jsonmux/internal/protocol"
	"github.com/jsonmux/jsonmux/internal/protocol/frame"
)

// Config fixes the wire contract for every connection the server
// accepts.
type Config struct {
	PrefixWidth  frame.PrefixWidth
	WriteTimeout time.Duration
	Logger       *zerolog.Logger
}

// Server accepts connections and dispatches inbound messages through
// its Router. Every connection gets an isolated codec and buffer; the
// Router is the only state shared across connections and is read-only
// once Serve starts.
type Server struct {
	router *Router
	cfg    Config
	log    zerolog.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

func New(router *Router, cfg Config) *Server {
	if cfg.PrefixWidth == 0 {
		cfg.PrefixWidth = frame.DefaultWidth
	}
	logger := logging.Runtime("server")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Server{
		router: router,
		cfg:    cfg,
		log:    logger,
		conns:  make(map[net.Conn]struct{}),
	}
}

// Listen opens the TCP listener Serve will accept on.
func (s *Server) Listen(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

// Serve accepts connections until ctx is cancelled or the listener
// fails. Cancellation closes the listener and every live connection.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	s.log.Info().Str("addr", ln.Addr().String()).Int("prefix_width", int(s.cfg.PrefixWidth)).Msg("listening")
	go func() {
		<-ctx.Done()
		s.closeAllConns()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.trackConn(conn)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	defer s.untrackConn(conn)
	log := s.log.With().Str("remote", conn.RemoteAddr().String()).Logger()
	log.Info().Msg("client connected")

	ep, err := endpoint.New(conn, s.cfg.PrefixWidth, endpoint.Options{
		Role:         "server",
		Logger:       log,
		WriteTimeout: s.cfg.WriteTimeout,
	})
	if err != nil {
		log.Error().Err(err).Msg("endpoint setup failed")
		return
	}

	// Messages on one connection dispatch sequentially in stream
	// order; concurrency exists only across connections.
	_ = ep.Run(func(msg protocol.Message) {
		s.dispatch(ep, log, msg)
	})
	log.Info().Msg("client disconnected")
}

func (s *Server) dispatch(ep *endpoint.Endpoint, log zerolog.Logger, msg protocol.Message) {
	msgType := msg.Type()
	h, ok := s.router.lookup(msgType)
	if !ok {
		log.Debug().Str("type", msgType).Msg("no handler registered, message dropped")
		return
	}

	id := msg.ID()
	reply := func(resp protocol.Message) error {
		if id != "" {
			resp.SetID(id)
		}
		return ep.Send(resp)
	}
	h(msg, reply)
}

func (s *Server) trackConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrackConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeAllConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}
