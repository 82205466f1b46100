package signup_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/onboardkit/modules/signup"
	flow "github.com/dmitrymomot/onboardkit/pkg/signup"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newRegistry(t *testing.T, c *clock, opts ...signup.RegistryOption) *signup.Registry {
	t.Helper()
	factory := func(id string) *flow.Flow {
		return flow.NewFlow(nil, nil, flow.WithID(id), flow.WithClock(c.Now))
	}
	r := signup.NewRegistry(factory, 0, append([]signup.RegistryOption{signup.WithRegistryClock(c.Now)}, opts...)...)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRegistry_CreateAndGet(t *testing.T) {
	t.Parallel()
	c := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := newRegistry(t, c)

	f, err := r.Create(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, f.ID())

	got, err := r.Get(f.ID())
	require.NoError(t, err)
	assert.Same(t, f, got)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, signup.ErrFlowNotFound)

	r.Remove(f.ID())
	_, err = r.Get(f.ID())
	assert.ErrorIs(t, err, signup.ErrFlowNotFound)
}

func TestRegistry_IdleExpiry(t *testing.T) {
	t.Parallel()
	c := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := newRegistry(t, c, signup.WithFlowTTL(10*time.Minute))

	idle, err := r.Create(context.Background())
	require.NoError(t, err)
	active, err := r.Create(context.Background())
	require.NoError(t, err)

	c.Advance(8 * time.Minute)
	require.NoError(t, active.Update(func(d *flow.Draft) { d.Account.Email = "a@b.com" }))
	c.Advance(5 * time.Minute)

	_, err = r.Get(idle.ID())
	assert.ErrorIs(t, err, signup.ErrFlowNotFound)
	_, err = r.Get(active.ID())
	assert.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	c.Advance(11 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.Zero(t, r.Len())
}

func TestRegistry_MaxFlows(t *testing.T) {
	t.Parallel()
	c := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := newRegistry(t, c, signup.WithFlowTTL(time.Minute), signup.WithMaxFlows(2))

	for range 2 {
		_, err := r.Create(context.Background())
		require.NoError(t, err)
	}
	_, err := r.Create(context.Background())
	assert.ErrorIs(t, err, signup.ErrTooManyFlows)

	c.Advance(2 * time.Minute)
	_, err = r.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_BackgroundSweep(t *testing.T) {
	t.Parallel()
	c := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	factory := func(id string) *flow.Flow {
		return flow.NewFlow(nil, nil, flow.WithID(id), flow.WithClock(c.Now))
	}
	r := signup.NewRegistry(factory, 10*time.Millisecond,
		signup.WithRegistryClock(c.Now), signup.WithFlowTTL(time.Minute))
	t.Cleanup(func() { _ = r.Close() })

	_, err := r.Create(context.Background())
	require.NoError(t, err)
	c.Advance(time.Hour)

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 10*time.Millisecond)
}
