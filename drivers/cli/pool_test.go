package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

type leaseFactory struct {
	created []*fakeSession
	err     error
}

func (f *leaseFactory) create(context.Context) (*Lease, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := newFakeSession("SSH", "", nil)
	f.created = append(f.created, s)
	return &Lease{Session: s, Mode: "exec"}, nil
}

func TestPoolReusesSameKey(t *testing.T) {
	p := NewPool(1)
	f := &leaseFactory{}
	ctx := context.Background()

	l1, err := p.Acquire(ctx, "a", f.create)
	require.NoError(t, err)
	l1.Mode = "config"
	p.Release(l1)
	assert.Equal(t, 1, p.Idle())

	l2, err := p.Acquire(ctx, "a", f.create)
	require.NoError(t, err)
	assert.Same(t, l1, l2)
	assert.Equal(t, "config", l2.Mode, "reused lease keeps its mode")
	assert.Len(t, f.created, 1)
	p.Release(l2)
}

func TestPoolClosesOtherKey(t *testing.T) {
	p := NewPool(1)
	f := &leaseFactory{}
	ctx := context.Background()

	l1, err := p.Acquire(ctx, "admin@a", f.create)
	require.NoError(t, err)
	p.Release(l1)

	l2, err := p.Acquire(ctx, "admin@b", f.create)
	require.NoError(t, err)
	assert.NotSame(t, l1, l2)
	assert.Equal(t, 1, f.created[0].closed)
	assert.Equal(t, 0, p.Idle())
	p.Release(l2)
}

func TestPoolBlocksAtCapacity(t *testing.T) {
	p := NewPool(1)
	f := &leaseFactory{}

	held, err := p.Acquire(context.Background(), "a", f.create)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx, "a", f.create)
	assert.Equal(t, codes.Canceled, sessionCode(t, err))

	acquired := make(chan *Lease)
	go func() {
		l, err := p.Acquire(context.Background(), "a", f.create)
		if err != nil {
			close(acquired)
			return
		}
		acquired <- l
	}()

	select {
	case <-acquired:
		t.Fatal("second lease handed out while the first is held")
	case <-time.After(20 * time.Millisecond):
	}

	p.Release(held)
	select {
	case l := <-acquired:
		require.NotNil(t, l)
		assert.Same(t, held, l)
		p.Release(l)
	case <-time.After(time.Second):
		t.Fatal("waiter not woken by Release")
	}
	assert.Len(t, f.created, 1)
}

func TestPoolCreateFailureFreesSlot(t *testing.T) {
	p := NewPool(1)
	boom := errors.New("connection refused")

	_, err := p.Acquire(context.Background(), "a", (&leaseFactory{err: boom}).create)
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	l, err := p.Acquire(ctx, "a", (&leaseFactory{}).create)
	require.NoError(t, err)
	p.Release(l)
}

func TestPoolDiscard(t *testing.T) {
	p := NewPool(1)
	f := &leaseFactory{}
	ctx := context.Background()

	l, err := p.Acquire(ctx, "a", f.create)
	require.NoError(t, err)
	p.Discard(l)
	assert.Equal(t, 1, f.created[0].closed)
	assert.Equal(t, 0, p.Idle())

	l, err = p.Acquire(ctx, "a", f.create)
	require.NoError(t, err)
	assert.Len(t, f.created, 2)
	p.Release(l)
}

func TestPoolClose(t *testing.T) {
	p := NewPool(2)
	f := &leaseFactory{}
	ctx := context.Background()

	idle, err := p.Acquire(ctx, "a", f.create)
	require.NoError(t, err)
	out, err := p.Acquire(ctx, "a", f.create)
	require.NoError(t, err)
	p.Release(idle)

	require.NoError(t, p.Close())
	assert.Equal(t, 1, f.created[0].closed)

	p.Release(out)
	assert.Equal(t, 1, f.created[1].closed, "lease returned after Close is closed")

	_, err = p.Acquire(ctx, "a", f.create)
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestNewPoolMinimumSize(t *testing.T) {
	p := NewPool(0)
	assert.Equal(t, 1, cap(p.slots))
}
