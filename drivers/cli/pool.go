package cli

import (
	"context"
	"errors"
	"sync"

	"google.golang.org/grpc/codes"

	"github.com/nanoncore/nano-virtualwire/types"
)

// ErrPoolClosed is returned by Acquire after Close
var ErrPoolClosed = errors.New("session pool is closed")

// Lease is exclusive ownership of a pooled session
type Lease struct {
	Session Session
	// Mode is the name of the mode the session currently sits in
	Mode string
	key  string
}

// Pool hands out at most maxSize sessions at a time. Callers beyond the
// limit block in Acquire until a lease is returned.
type Pool struct {
	slots  chan struct{}
	mu     sync.Mutex
	idle   []*Lease
	closed bool
}

// NewPool creates a pool; maxSize below one is treated as one
func NewPool(maxSize int) *Pool {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Pool{slots: make(chan struct{}, maxSize)}
}

// Acquire returns an idle lease created for key, or calls create. Idle
// leases for another key are closed.
func (p *Pool) Acquire(ctx context.Context, key string, create func(ctx context.Context) (*Lease, error)) (*Lease, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, &types.SessionError{Code: codes.Canceled, Op: "acquire session", Err: ctx.Err()}
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.slots
		return nil, ErrPoolClosed
	}
	var found *Lease
	var keep, stale []*Lease
	for _, l := range p.idle {
		switch {
		case l.key != key:
			stale = append(stale, l)
		case found == nil:
			found = l
		default:
			keep = append(keep, l)
		}
	}
	p.idle = keep
	p.mu.Unlock()

	for _, l := range stale {
		_ = l.Session.Close()
	}

	if found != nil {
		return found, nil
	}

	lease, err := create(ctx)
	if err != nil {
		<-p.slots
		return nil, err
	}
	lease.key = key
	return lease, nil
}

// Release returns the lease for reuse
func (p *Pool) Release(l *Lease) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = l.Session.Close()
	} else {
		p.idle = append(p.idle, l)
		p.mu.Unlock()
	}
	<-p.slots
}

// Discard closes the lease's session instead of reusing it
func (p *Pool) Discard(l *Lease) {
	_ = l.Session.Close()
	<-p.slots
}

// Idle returns the number of sessions waiting for reuse
func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// Close closes idle sessions; leases still out are closed on return
func (p *Pool) Close() error {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.closed = true
	p.mu.Unlock()

	var errs []error
	for _, l := range idle {
		if err := l.Session.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
