package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"airport_manager/internal/models"
)

// QueryKey identifies a cached read by entity, owner and query parameters.
type QueryKey struct {
	Entity string
	UserID uint
	Params []string
}

func (k QueryKey) String() string {
	return fmt.Sprintf("cache:q:%s:%d:%s", k.Entity, k.UserID, strings.Join(k.Params, "|"))
}

// Tag is the invalidation set the key belongs to.
func (k QueryKey) Tag() string {
	return entityTag(k.Entity, k.UserID)
}

func entityTag(entity string, userID uint) string {
	return fmt.Sprintf("%s:%d", entity, userID)
}

// invalidations lists, per mutated entity, the cached entities whose reads
// may change.
var invalidations = map[string][]string{
	models.EntityOrders:     {models.EntityOrders, models.EntityCalendar, models.EntityStats, models.EntityCustomers},
	models.EntityPayments:   {models.EntityPayments, models.EntityOrders, models.EntityStats},
	models.EntityExpenses:   {models.EntityExpenses, models.EntityStats},
	models.EntityCustomers:  {models.EntityCustomers},
	models.EntityCategories: {models.EntityCategories, models.EntityStats},
}

// InvalidationTags returns the cache tags a mutation of entity must drop.
func InvalidationTags(entity string, userID uint) []string {
	entities, ok := invalidations[entity]
	if !ok {
		entities = []string{entity}
	}
	tags := make([]string, 0, len(entities))
	for _, e := range entities {
		tags = append(tags, entityTag(e, userID))
	}
	return tags
}

// cached returns the cached value for key or loads and stores it. Cache
// failures are logged and fall through to load.
// An invalidation that lands between load and SetJSON is lost, so the stale
// value may be served until ttl expires.
func cached[T any](ctx context.Context, c Cache, ttl time.Duration, key QueryKey, load func() (T, error)) (T, error) {
	if c == nil || ttl <= 0 {
		return load()
	}
	var v T
	hit, err := c.GetJSON(ctx, key.String(), &v)
	if err != nil {
		slog.WarnContext(ctx, "cache read failed", "key", key.String(), "err", err)
	}
	if hit {
		return v, nil
	}
	v, err = load()
	if err != nil {
		return v, err
	}
	if err := c.SetJSON(ctx, key.String(), v, ttl, key.Tag()); err != nil {
		slog.WarnContext(ctx, "cache write failed", "key", key.String(), "err", err)
	}
	return v, nil
}

// changeFeed invalidates local cache entries and announces a committed
// mutation to other subscribers.
type changeFeed struct {
	cache Cache
	pub   ChangePublisher
	now   func() time.Time
}

func newChangeFeed(cache Cache, pub ChangePublisher) *changeFeed {
	return &changeFeed{cache: cache, pub: pub, now: time.Now}
}

func (f *changeFeed) record(ctx context.Context, entity string, op models.ChangeOp, id, userID uint) {
	if f == nil {
		return
	}
	if f.cache != nil {
		if err := f.cache.Invalidate(ctx, InvalidationTags(entity, userID)...); err != nil {
			slog.WarnContext(ctx, "cache invalidation failed", "entity", entity, "err", err)
		}
	}
	if f.pub != nil {
		ev := models.ChangeEvent{Entity: entity, Op: op, ID: id, UserID: userID, At: f.now()}
		if err := f.pub.PublishChange(ctx, ev); err != nil {
			slog.WarnContext(ctx, "publish change failed", "entity", entity, "id", id, "err", err)
		}
	}
}

// RunInvalidator drops cached reads for every change event received until ctx
// is done. It keeps caches of other server instances consistent.
func RunInvalidator(ctx context.Context, sub ChangeSubscriber, cache Cache) error {
	events, err := sub.SubscribeChanges(ctx)
	if err != nil {
		return err
	}
	for ev := range events {
		if err := cache.Invalidate(ctx, InvalidationTags(ev.Entity, ev.UserID)...); err != nil {
			slog.WarnContext(ctx, "cache invalidation failed", "entity", ev.Entity, "err", err)
		}
	}
	return ctx.Err()
}
