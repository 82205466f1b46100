package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/onboardkit/pkg/apiclient"
	"github.com/dmitrymomot/onboardkit/pkg/logger"
)

type (
	Level  = apiclient.Level
	Option = apiclient.Option
)

const (
	State         = apiclient.LevelState
	District      = apiclient.LevelDistrict
	Mandal        = apiclient.LevelMandal
	GramPanchayat = apiclient.LevelGramPanchayat
)

// Fetcher loads the options of a level under a parent id.
type Fetcher interface {
	Locations(ctx context.Context, level Level, parentID string) ([]Option, error)
}

// tier is the per-level state. gen increases whenever the level's list is
// invalidated; a fetch only lands if gen is unchanged when it returns.
type tier struct {
	options  []Option
	loaded   bool
	selected string
	gen      uint64
	cancel   context.CancelFunc
}

// Cascade holds the picker state of one form. Safe for concurrent use.
type Cascade struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu    sync.Mutex
	tiers map[Level]*tier
}

// CascadeOption configures a Cascade.
type CascadeOption func(*Cascade)

func WithLogger(l *slog.Logger) CascadeOption {
	return func(c *Cascade) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(fetcher Fetcher, opts ...CascadeOption) *Cascade {
	c := &Cascade{
		fetcher: fetcher,
		logger:  logger.Discard(),
		tiers:   make(map[Level]*tier, len(apiclient.Levels)),
	}
	for _, l := range apiclient.Levels {
		c.tiers[l] = &tier{}
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("location"))
	return c
}

// LoadStates fetches the root list. Loading again clears every selection.
func (c *Cascade) LoadStates(ctx context.Context) error {
	c.mu.Lock()
	c.invalidateFrom(State)
	gen := c.tiers[State].gen
	c.mu.Unlock()

	return c.fetch(ctx, State, "", gen)
}

// Loaded reports whether the options of level have been fetched.
func (c *Cascade) Loaded(level Level) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tiers[level]
	return ok && t.loaded
}

// Select picks id at level. The id must be one of the level's options. All
// lower levels are cleared and the next level's options are fetched. An empty
// id clears the level and everything below it.
func (c *Cascade) Select(ctx context.Context, level Level, id string) error {
	if !level.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidLevel, int(level))
	}

	c.mu.Lock()
	t := c.tiers[level]
	if id == "" {
		t.selected = ""
		if child := level.Child(); child != 0 {
			c.invalidateFrom(child)
		}
		c.mu.Unlock()
		return nil
	}
	if parent := level.Parent(); parent != 0 && c.tiers[parent].selected == "" {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrParentNotSet, parent)
	}
	if !slices.ContainsFunc(t.options, func(o Option) bool { return o.ID == id }) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s %q", ErrUnknownOption, level, id)
	}
	t.selected = id
	child := level.Child()
	if child == 0 {
		c.mu.Unlock()
		return nil
	}
	c.invalidateFrom(child)
	gen := c.tiers[child].gen
	c.mu.Unlock()

	return c.fetch(ctx, child, id, gen)
}

func (c *Cascade) SelectState(ctx context.Context, id string) error {
	return c.Select(ctx, State, id)
}

func (c *Cascade) SelectDistrict(ctx context.Context, id string) error {
	return c.Select(ctx, District, id)
}

func (c *Cascade) SelectMandal(ctx context.Context, id string) error {
	return c.Select(ctx, Mandal, id)
}

func (c *Cascade) SelectGramPanchayat(ctx context.Context, id string) error {
	return c.Select(ctx, GramPanchayat, id)
}

// SelectPath loads states if needed and selects ids from the root down,
// stopping at the first empty id.
func (c *Cascade) SelectPath(ctx context.Context, ids ...string) error {
	if !c.Loaded(State) {
		if err := c.LoadStates(ctx); err != nil {
			return err
		}
	}
	for i, id := range ids {
		if i >= len(apiclient.Levels) || id == "" {
			break
		}
		if err := c.Select(ctx, apiclient.Levels[i], id); err != nil {
			return err
		}
	}
	return nil
}

// Options returns a copy of the level's option list.
func (c *Cascade) Options(level Level) []Option {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tiers[level]
	if !ok {
		return nil
	}
	return slices.Clone(t.options)
}

// Selected returns the selected id at level, or "".
func (c *Cascade) Selected(level Level) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tiers[level]
	if !ok {
		return ""
	}
	return t.selected
}

// Name resolves the selected id at level to its display name.
func (c *Cascade) Name(level Level) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tiers[level]
	if !ok || t.selected == "" {
		return ""
	}
	for _, o := range t.options {
		if o.ID == t.selected {
			return o.Name
		}
	}
	return ""
}

// invalidateFrom clears level and every level below it, cancelling their
// fetches. Must be called with c.mu held.
func (c *Cascade) invalidateFrom(level Level) {
	for l := level; l != 0; l = l.Child() {
		t := c.tiers[l]
		if t.cancel != nil {
			t.cancel()
			t.cancel = nil
		}
		t.options = nil
		t.loaded = false
		t.selected = ""
		t.gen++
	}
}

// fetch loads level's options for parentID. gen is the level generation the
// caller observed when it invalidated the level.
func (c *Cascade) fetch(ctx context.Context, level Level, parentID string, gen uint64) error {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	t := c.tiers[level]
	if t.gen != gen {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSuperseded, level)
	}
	t.cancel = cancel
	c.mu.Unlock()

	opts, err := c.fetcher.Locations(fetchCtx, level, parentID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if t.gen != gen {
		c.logger.DebugContext(ctx, "discarded stale location options", logger.Level(level.String()))
		return fmt.Errorf("%w: %s", ErrSuperseded, level)
	}
	t.cancel = nil

	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			return fmt.Errorf("%w: %s", ErrSuperseded, level)
		}
		c.logger.WarnContext(ctx, "failed to load location options",
			logger.Level(level.String()),
			slog.String("parent_id", parentID),
			logger.Error(err),
		)
		return fmt.Errorf("location: load %s options: %w", level, err)
	}

	t.options = slices.Clone(opts)
	t.loaded = true
	return nil
}
