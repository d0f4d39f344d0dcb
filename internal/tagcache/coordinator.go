package tagcache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	versionKeyPrefix  = "tagcache:v:"
	payloadKeyPrefix  = "tagcache:p:"
	invalidateChannel = "tagcache.invalidate"
)

// Coordinator tracks a version counter per tag in Redis and fans
// invalidations out to in-process subscribers and, via pub/sub, to every
// other instance listening on the same Redis. All methods tolerate a nil
// receiver or a missing Redis client so callers can run uncached.
type Coordinator struct {
	client *redis.Client
	logger *slog.Logger

	// onInvalidate, when set, observes every invalidated tag (metrics).
	onInvalidate func(Tag)

	mu     sync.Mutex
	nextID int
	subs   map[int]*Subscription
}

// OnInvalidate installs an observer called for every invalidated tag.
func (c *Coordinator) OnInvalidate(fn func(Tag)) {
	if c != nil {
		c.onInvalidate = fn
	}
}

// UseLogger installs the logger used to report Redis failures.
func (c *Coordinator) UseLogger(logger *slog.Logger) {
	if c != nil {
		c.logger = logger
	}
}

func (c *Coordinator) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

// Subscription receives the tags invalidated after it was registered.
type Subscription struct {
	coord *Coordinator
	id    int
	tags  map[Tag]struct{}
	ch    chan Tag
}

// NewCoordinator constructs a coordinator. The client may be nil, in which
// case versions are not persisted and only in-process fan-out happens.
func NewCoordinator(client *redis.Client) *Coordinator {
	return &Coordinator{
		client: client,
		subs:   make(map[int]*Subscription),
	}
}

// Version returns the current version of a tag, initialising it to 1 when
// missing. Readers embed the version in their cache keys, so bumping it
// orphans every cached result for the tag at once.
func (c *Coordinator) Version(ctx context.Context, tag Tag) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	key := versionKeyPrefix + string(tag)
	ver, err := c.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, key, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Invalidate bumps each tag's version, publishes the bump for other
// instances and notifies local subscribers. Invalidating a tag twice in a
// row converges to the same state as once: the version differs but every
// reader is equally stale either way. A Redis failure is logged per tag and
// does not stop the remaining tags or the in-process fan-out; the first
// failure is still returned.
func (c *Coordinator) Invalidate(ctx context.Context, tags ...Tag) error {
	if c == nil {
		return nil
	}
	var firstErr error
	for _, tag := range tags {
		if c.onInvalidate != nil {
			c.onInvalidate(tag)
		}
		if c.client != nil {
			if err := c.bump(ctx, tag); err != nil {
				c.warn("tag invalidation failed", "tag", string(tag), "err", err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		c.notify(tag)
	}
	return firstErr
}

func (c *Coordinator) bump(ctx context.Context, tag Tag) error {
	ver, err := c.client.Incr(ctx, versionKeyPrefix+string(tag)).Result()
	if err != nil {
		return err
	}
	payload := string(tag) + "|" + strconv.FormatInt(ver, 10)
	return c.client.Publish(ctx, invalidateChannel, payload).Err()
}

// GetCached loads the JSON payload stored under key into dest. A miss or a
// Redis failure reports false; failures are logged, not returned, since the
// caller always has the backing store to fall through to.
func (c *Coordinator) GetCached(ctx context.Context, key string, dest any) bool {
	if c == nil || c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, payloadKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.warn("cached payload read failed", "key", key, "err", err)
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.warn("cached payload decode failed", "key", key, "err", err)
		return false
	}
	return true
}

// SetCached stores value as JSON under key. The TTL is a backstop: readers
// embed tag versions in their keys, so writes orphan stale entries anyway.
func (c *Coordinator) SetCached(ctx context.Context, key string, value any, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.warn("cached payload encode failed", "key", key, "err", err)
		return
	}
	if err := c.client.Set(ctx, payloadKeyPrefix+key, raw, ttl).Err(); err != nil {
		c.warn("cached payload write failed", "key", key, "err", err)
	}
}

// Subscribe registers an in-process reader for the given tags. An empty tag
// list subscribes to every invalidation.
func (c *Coordinator) Subscribe(tags ...Tag) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub := &Subscription{
		coord: c,
		id:    c.nextID,
		ch:    make(chan Tag, 16),
	}
	if len(tags) > 0 {
		sub.tags = make(map[Tag]struct{}, len(tags))
		for _, t := range tags {
			sub.tags[t] = struct{}{}
		}
	}
	c.nextID++
	c.subs[sub.id] = sub
	return sub
}

// Invalidations returns the channel of tags invalidated since Subscribe.
func (s *Subscription) Invalidations() <-chan Tag {
	return s.ch
}

// Close unregisters the subscription.
func (s *Subscription) Close() {
	s.coord.mu.Lock()
	defer s.coord.mu.Unlock()
	if _, ok := s.coord.subs[s.id]; ok {
		delete(s.coord.subs, s.id)
		close(s.ch)
	}
}

// Listen forwards remote invalidations into local subscriptions until the
// context is cancelled. It is a no-op without a Redis client.
func (c *Coordinator) Listen(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, invalidateChannel)
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				tag, _, _ := strings.Cut(msg.Payload, "|")
				if tag != "" {
					c.notify(Tag(tag))
				}
			}
		}
	}()
	return nil
}

func (c *Coordinator) notify(tag Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sub := range c.subs {
		if sub.tags != nil {
			if _, ok := sub.tags[tag]; !ok {
				continue
			}
		}
		select {
		case sub.ch <- tag:
		default:
		}
	}
}
