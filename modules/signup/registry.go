package signup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/onboardkit/pkg/logger"
	flow "github.com/dmitrymomot/onboardkit/pkg/signup"
)

// FlowFactory builds a flow with the given id.
type FlowFactory func(id string) *flow.Flow

// Registry keeps in-progress flows in memory and evicts the ones that have
// been idle for longer than the TTL.
type Registry struct {
	factory  FlowFactory
	ttl      time.Duration
	maxFlows int
	now      func() time.Time
	logger   *slog.Logger

	mu    sync.RWMutex
	flows map[string]*flow.Flow

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithFlowTTL sets how long an untouched flow is kept.
func WithFlowTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithMaxFlows caps the number of live flows. Zero means unlimited.
func WithMaxFlows(n int) RegistryOption {
	return func(r *Registry) {
		if n >= 0 {
			r.maxFlows = n
		}
	}
}

func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates a registry. A positive cleanupInterval starts a
// background sweep; stop it with Close.
func NewRegistry(factory FlowFactory, cleanupInterval time.Duration, opts ...RegistryOption) *Registry {
	r := &Registry{
		factory: factory,
		ttl:     30 * time.Minute,
		now:     time.Now,
		logger:  logger.Discard(),
		flows:   make(map[string]*flow.Flow),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logger.Component("signup_registry"))

	if cleanupInterval > 0 {
		r.wg.Add(1)
		go r.cleanupLoop(cleanupInterval)
	}
	return r
}

// Create starts a new flow under a random id.
func (r *Registry) Create(ctx context.Context) (*flow.Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxFlows > 0 && len(r.flows) >= r.maxFlows {
		r.sweepLocked()
		if len(r.flows) >= r.maxFlows {
			return nil, ErrTooManyFlows
		}
	}

	id := uuid.NewString()
	f := r.factory(id)
	r.flows[id] = f

	r.logger.DebugContext(ctx, "flow created", logger.FlowID(id))
	return f, nil
}

// Get returns a live flow. Expired flows are removed and reported missing.
func (r *Registry) Get(id string) (*flow.Flow, error) {
	r.mu.RLock()
	f, ok := r.flows[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrFlowNotFound
	}
	if r.expired(f) {
		r.Remove(id)
		return nil, ErrFlowNotFound
	}
	return f, nil
}

// Remove drops a flow.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.flows, id)
	r.mu.Unlock()
}

// Len returns the number of flows held, including ones not yet swept.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.flows)
}

// Sweep removes expired flows and returns how many were dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked()
}

func (r *Registry) sweepLocked() int {
	removed := 0
	for id, f := range r.flows {
		if r.expired(f) {
			delete(r.flows, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) expired(f *flow.Flow) bool {
	return r.now().Sub(f.UpdatedAt()) > r.ttl
}

// Close stops the background sweep.
func (r *Registry) Close() error {
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()
	return nil
}

func (r *Registry) cleanupLoop(interval time.Duration) {
	defer r.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("expired flows removed", slog.Int("count", n))
			}
		}
	}
}
