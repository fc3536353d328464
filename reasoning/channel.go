// Package reasoning provides a request-scoped side channel for "thinking"
// tokens emitted by an LLM backend alongside its normal content stream.
//
// A Channel is bound to a request through its context, so concurrent
// requests are isolated without any shared mutable state: the streaming
// code binds a fresh channel with NewContext, the LLM adapter looks it up
// with FromContext and pushes fragments into it, and the streaming loop
// drains it between content deltas.
package reasoning

import (
	"context"
	"sync"
)

// Channel buffers reasoning tokens for a single in-flight request.
// All methods are safe for concurrent use and safe on a nil receiver,
// so callers never need to check whether a channel is bound.
type Channel struct {
	mu     sync.Mutex
	tokens []string
	closed bool
}

// NewChannel creates an empty reasoning channel.
func NewChannel() *Channel {
	return &Channel{}
}

// Push appends a token to the buffer. It never blocks. Pushes to a nil or
// closed channel are silently dropped.
func (c *Channel) Push(token string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.tokens = append(c.tokens, token)
}

// DrainAll returns and removes everything currently buffered, in push
// order. It never blocks and returns nil when empty or unbound.
func (c *Channel) DrainAll() []string {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	tokens := c.tokens
	c.tokens = nil
	return tokens
}

// Close releases the channel: buffered tokens are discarded and any later
// Push becomes a no-op. Closing is idempotent. Whoever bound the channel
// must close it on every exit path so a stale binding cannot leak tokens
// into a reused execution context.
func (c *Channel) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.tokens = nil
}

type ctxKey struct{}

// NewContext returns a context with ch bound as the current reasoning
// channel.
func NewContext(ctx context.Context, ch *Channel) context.Context {
	return context.WithValue(ctx, ctxKey{}, ch)
}

// FromContext returns the reasoning channel bound to ctx, or nil when none
// is bound.
func FromContext(ctx context.Context) *Channel {
	ch, _ := ctx.Value(ctxKey{}).(*Channel)
	return ch
}
