package model

import (
	"context"
	"log/slog"

	"github.com/eventum-app/eventum/pkg/loop"
)

// TagState is where a TagCache is in loading the list.
type TagState uint8

const (
	TagsUnloaded TagState = iota
	TagsLoading
	TagsLoaded
	TagsFailed
)

// String returns the state name.
func (s TagState) String() string {
	switch s {
	case TagsUnloaded:
		return "unloaded"
	case TagsLoading:
		return "loading"
	case TagsLoaded:
		return "loaded"
	case TagsFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TagSource fetches the tag list.
type TagSource interface {
	GetTagList(ctx context.Context) ([]Tag, error)
}

// TagCache shares one tag list fetch between every caller. A failed fetch
// is retried by the next Load. It is owned by the loop: call it only from
// loop callbacks.
type TagCache struct {
	source TagSource
	loop   *loop.Loop
	logger *slog.Logger

	state   TagState
	tags    []Tag
	byID    map[int64]Tag
	err     error
	waiters []func([]Tag, error)
}

// NewTagCache creates an empty cache that fetches from source on l.
func NewTagCache(source TagSource, l *loop.Loop, logger *slog.Logger) *TagCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &TagCache{source: source, loop: l, logger: logger}
}

// State returns the load state.
func (c *TagCache) State() TagState {
	return c.state
}

// Err returns the error of the last failed fetch.
func (c *TagCache) Err() error {
	return c.err
}

// Tags returns the loaded list, or nil before it has loaded.
func (c *TagCache) Tags() []Tag {
	return c.tags
}

// Resolve looks a tag up by id once the list has loaded.
func (c *TagCache) Resolve(id int64) (Tag, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// ResolveAll maps ids to tags, skipping unknown ids.
func (c *TagCache) ResolveAll(ids []int64) []Tag {
	out := make([]Tag, 0, len(ids))
	for _, id := range ids {
		if t, ok := c.byID[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Load calls then with the tag list. A loaded cache answers at once; an
// unloaded or failed one starts a fetch whose result is shared by every
// caller waiting on it. The fetch outlives ctx's cancellation so one
// destroyed caller cannot fail the others.
func (c *TagCache) Load(ctx context.Context, then func([]Tag, error)) {
	switch c.state {
	case TagsLoaded:
		then(c.tags, nil)
		return
	case TagsLoading:
		c.waiters = append(c.waiters, then)
		return
	}

	c.state = TagsLoading
	c.waiters = append(c.waiters, then)
	fetchCtx := context.WithoutCancel(ctx)
	loop.Await(c.loop, func() ([]Tag, error) {
		return c.source.GetTagList(fetchCtx)
	}, c.settle)
}

func (c *TagCache) settle(tags []Tag, err error) {
	if err != nil {
		c.state = TagsFailed
		c.err = err
		c.logger.Warn("tag list fetch failed", "error", err)
	} else {
		c.state = TagsLoaded
		c.err = nil
		c.tags = tags
		c.byID = make(map[int64]Tag, len(tags))
		for _, t := range tags {
			c.byID[t.ID] = t
		}
	}

	waiters := c.waiters
	c.waiters = nil
	for _, w := range waiters {
		w(c.tags, err)
	}
}
