package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
)

// Level is a tier of the location directory.
type Level int

const (
	LevelState Level = iota + 1
	LevelDistrict
	LevelMandal
	LevelGramPanchayat
)

// Levels lists the tiers from root to leaf.
var Levels = []Level{LevelState, LevelDistrict, LevelMandal, LevelGramPanchayat}

var levelNames = map[Level]string{
	LevelState:         "state",
	LevelDistrict:      "district",
	LevelMandal:        "mandal",
	LevelGramPanchayat: "gram_panchayat",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// Parent returns the level above l, or 0 for the root.
func (l Level) Parent() Level {
	if l <= LevelState || !l.Valid() {
		return 0
	}
	return l - 1
}

// Child returns the level below l, or 0 for the leaf.
func (l Level) Child() Level {
	if l >= LevelGramPanchayat || !l.Valid() {
		return 0
	}
	return l + 1
}

// ParseLevel maps a level name to its Level. "village" is accepted for the
// gram panchayat tier.
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if name == s {
			return l, nil
		}
	}
	switch s {
	case "gram-panchayat", "grampanchayat", "village":
		return LevelGramPanchayat, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

type levelEndpoint struct {
	path  string
	param string
}

var levelEndpoints = map[Level]levelEndpoint{
	LevelState:         {path: "/locations/states/"},
	LevelDistrict:      {path: "/locations/districts/", param: "state_id"},
	LevelMandal:        {path: "/locations/mandals/", param: "district_id"},
	LevelGramPanchayat: {path: "/locations/grampanchayats/", param: "mandal_id"},
}

// Option is one entry of a location list. The API sends numeric ids; they are
// kept as strings.
type Option struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (o *Option) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID   json.RawMessage `json:"id"`
		Name string          `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id := bytes.TrimSpace(raw.ID)
	switch {
	case len(id) == 0 || bytes.Equal(id, []byte("null")):
		o.ID = ""
	case id[0] == '"':
		if err := json.Unmarshal(id, &o.ID); err != nil {
			return err
		}
	default:
		var n json.Number
		if err := json.Unmarshal(id, &n); err != nil {
			return fmt.Errorf("location id: %w", err)
		}
		o.ID = n.String()
	}
	o.Name = raw.Name
	return nil
}

type locationKey struct {
	level  Level
	parent string
}

func (k locationKey) String() string {
	return k.level.String() + ":" + k.parent
}

// Locations lists the options of level under parentID. The state level takes
// no parent.
func (c *Client) Locations(ctx context.Context, level Level, parentID string) ([]Option, error) {
	ep, ok := levelEndpoints[level]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, int(level))
	}
	if ep.param != "" && parentID == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingParent, level)
	}
	if ep.param == "" {
		parentID = ""
	}

	key := locationKey{level: level, parent: parentID}
	if c.locations != nil {
		if opts, ok := c.locations.Get(key); ok {
			return slices.Clone(opts), nil
		}
	}

	// Shared calls run detached from any single caller's cancellation so one
	// caller giving up does not fail the others.
	ch := c.inflight.DoChan(key.String(), func() (any, error) {
		var query url.Values
		if ep.param != "" {
			query = url.Values{ep.param: {parentID}}
		}
		var opts []Option
		if err := c.do(context.WithoutCancel(ctx), http.MethodGet, ep.path, query, nil, &opts); err != nil {
			return nil, err
		}
		if opts == nil {
			opts = []Option{}
		}
		if c.locations != nil {
			c.locations.Put(key, opts)
		}
		return opts, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]Option)), nil
	}
}

func (c *Client) States(ctx context.Context) ([]Option, error) {
	return c.Locations(ctx, LevelState, "")
}

func (c *Client) Districts(ctx context.Context, stateID string) ([]Option, error) {
	return c.Locations(ctx, LevelDistrict, stateID)
}

func (c *Client) Mandals(ctx context.Context, districtID string) ([]Option, error) {
	return c.Locations(ctx, LevelMandal, districtID)
}

func (c *Client) GramPanchayats(ctx context.Context, mandalID string) ([]Option, error) {
	return c.Locations(ctx, LevelGramPanchayat, mandalID)
}

// InvalidateLocations drops every cached location list.
func (c *Client) InvalidateLocations() {
	if c.locations != nil {
		c.locations.Clear()
	}
}
