package server

import (
	"sync"

	"github.com/jsonmux/jsonmux/internal/protocol"
)

// ReplyFunc sends a response back over the connection that produced the
// inbound message, echoing its correlation id. Replies are never
// broadcast.
type ReplyFunc func(protocol.Message) error

// Handler processes one inbound message. It runs on the owning
// connection's read goroutine, so a slow handler delays only that
// connection.
type Handler func(msg protocol.Message, reply ReplyFunc)

// Router maps a message's type field to a handler, with an optional
// default for untyped or unregistered types. Application code populates
// it before the listener opens; the protocol never mutates it.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	fallback Handler
}

func NewRouter() *Router {
	return &Router{handlers: make(map[string]Handler)}
}

// Handle registers h for messages whose type field equals msgType.
func (r *Router) Handle(msgType string, h Handler) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[msgType] = h
	return r
}

// Default registers the handler for untyped messages and for types with
// no dedicated handler.
func (r *Router) Default(h Handler) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = h
	return r
}

// lookup resolves the handler for msgType, falling back to the default.
// ok is false when neither exists; the message is then dropped.
func (r *Router) lookup(msgType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if msgType != "" {
		if h, ok := r.handlers[msgType]; ok {
			return h, true
		}
	}
	if r.fallback != nil {
		return r.fallback, true
	}
	return nil, false
}
