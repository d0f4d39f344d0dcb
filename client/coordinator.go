package client

import (
	"context"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/ballotworks/roleboard/internal/tagcache"
)

// Tag aliases the shared cache tag vocabulary so callers declare the same
// tags the service invalidates.
type Tag = tagcache.Tag

// ErrSuperseded reports that a response arrived after a newer load of the
// same query was issued; the stale result is discarded, never stored.
var ErrSuperseded = errors.New("query superseded")

// FetchFunc loads one query result from the service.
type FetchFunc func(ctx context.Context) (any, error)

// Coordinator tracks registered queries, the tags each depends on, and a
// bounded result cache. Invalidating a tag drops the cached results of every
// query subscribed to it and refetches the ones with active listeners.
type Coordinator struct {
	mu      sync.Mutex
	queries map[string]*Query
	byTag   map[Tag]map[string]struct{}
	results *lru.Cache[string, any]
	group   singleflight.Group
}

// NewCoordinator builds a coordinator holding at most size cached results.
func NewCoordinator(size int) *Coordinator {
	if size <= 0 {
		size = 128
	}
	results, _ := lru.New[string, any](size)
	return &Coordinator{
		queries: make(map[string]*Query),
		byTag:   make(map[Tag]map[string]struct{}),
		results: results,
	}
}

// Query is one registered reader: a cache key, the tags it depends on, and
// the fetch used to (re)load it.
type Query struct {
	coord   *Coordinator
	key     string
	tags    []Tag
	fetch   FetchFunc
	seq     uint64
	updates chan any
}

// Register adds (or replaces) a query under the given key. Re-registering an
// existing key swaps its fetch and bumps the sequence, so responses still in
// flight for the old fetch are discarded on arrival.
func (c *Coordinator) Register(key string, tags []Tag, fetch FetchFunc) *Query {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.queries[key]; ok {
		c.dropTagIndexLocked(existing)
		existing.tags = append([]Tag(nil), tags...)
		existing.fetch = fetch
		existing.seq++
		c.group.Forget(key)
		c.results.Remove(key)
		c.indexTagsLocked(existing)
		return existing
	}

	q := &Query{
		coord:   c,
		key:     key,
		tags:    append([]Tag(nil), tags...),
		fetch:   fetch,
		updates: make(chan any, 1),
	}
	c.queries[key] = q
	c.indexTagsLocked(q)
	return q
}

// Deregister removes a query and its cached result.
func (c *Coordinator) Deregister(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.queries[key]
	if !ok {
		return
	}
	q.seq++
	c.dropTagIndexLocked(q)
	delete(c.queries, key)
	c.results.Remove(key)
}

// Invalidate drops the cached result of every query subscribed to any of the
// given tags and refetches each affected query in the background. Repeated
// invalidations of the same tag converge: concurrent refetches of one key
// collapse into a single flight.
func (c *Coordinator) Invalidate(tags ...Tag) {
	c.mu.Lock()
	affected := make(map[string]*Query)
	for _, tag := range tags {
		for key := range c.byTag[tag] {
			if q, ok := c.queries[key]; ok {
				affected[key] = q
			}
		}
	}
	for key := range affected {
		c.results.Remove(key)
	}
	c.mu.Unlock()

	for _, q := range affected {
		go q.refetch()
	}
}

// InvalidateAll drops every cached result and refetches every registered
// query. Used after mutations that may have revoked the caller's own access,
// where no tag list is narrow enough to trust.
func (c *Coordinator) InvalidateAll() {
	c.mu.Lock()
	c.results.Purge()
	all := make([]*Query, 0, len(c.queries))
	for _, q := range c.queries {
		all = append(all, q)
	}
	c.mu.Unlock()

	for _, q := range all {
		go q.refetch()
	}
}

func (c *Coordinator) indexTagsLocked(q *Query) {
	for _, tag := range q.tags {
		keys, ok := c.byTag[tag]
		if !ok {
			keys = make(map[string]struct{})
			c.byTag[tag] = keys
		}
		keys[q.key] = struct{}{}
	}
}

func (c *Coordinator) dropTagIndexLocked(q *Query) {
	for _, tag := range q.tags {
		if keys, ok := c.byTag[tag]; ok {
			delete(keys, q.key)
			if len(keys) == 0 {
				delete(c.byTag, tag)
			}
		}
	}
}

// Get returns the cached result when present, otherwise loads it.
func (q *Query) Get(ctx context.Context) (any, error) {
	q.coord.mu.Lock()
	cached, ok := q.coord.results.Get(q.key)
	q.coord.mu.Unlock()
	if ok {
		return cached, nil
	}
	return q.Load(ctx)
}

// Load fetches fresh data for this query. Only the most recently issued load
// may store and return its result: if another load starts while this one is
// in flight, the earlier response is discarded on arrival.
func (q *Query) Load(ctx context.Context) (any, error) {
	q.coord.mu.Lock()
	q.seq++
	mySeq := q.seq
	fetch := q.fetch
	q.coord.mu.Unlock()

	value, err, _ := q.coord.group.Do(q.key, func() (any, error) {
		return fetch(ctx)
	})

	q.coord.mu.Lock()
	defer q.coord.mu.Unlock()
	if mySeq != q.seq {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	q.coord.results.Add(q.key, value)
	return value, nil
}

// Updates exposes refetched results pushed after tag invalidations. The
// channel holds only the latest value; slow consumers never block refetches.
func (q *Query) Updates() <-chan any {
	return q.updates
}

func (q *Query) refetch() {
	value, err := q.Load(context.Background())
	if err != nil {
		return
	}
	for {
		select {
		case q.updates <- value:
			return
		default:
			select {
			case <-q.updates:
			default:
			}
		}
	}
}
