package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"airport_manager/internal/models"

	"github.com/go-redis/redis/v8"
)

// ChangesChannel carries models.ChangeEvent as JSON.
const ChangesChannel = "changes"

type Client struct {
	rdb *redis.Client
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Query cache

func tagKey(tag string) string { return "cache:tag:" + tag }

// GetJSON loads a cached value into dest. ok is false on a miss.
func (c *Client) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cache entry: %w", err)
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return true, nil
}

// SetJSON stores value under key and records key in each tag set so that
// Invalidate can drop it later.
func (c *Client) SetJSON(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	_, err = c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key, data, ttl)
		for _, tag := range tags {
			p.SAdd(ctx, tagKey(tag), key)
			p.Expire(ctx, tagKey(tag), ttl)
		}
		return nil
	})
	return err
}

// Invalidate deletes every key recorded under the given tags.
func (c *Client) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		keys, err := c.rdb.SMembers(ctx, tagKey(tag)).Result()
		if err != nil {
			return fmt.Errorf("failed to read tag %s: %w", tag, err)
		}
		keys = append(keys, tagKey(tag))
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to invalidate tag %s: %w", tag, err)
		}
	}
	return nil
}

// Quick notes, newest first

func notesKey(userID uint) string { return fmt.Sprintf("notes:%d", userID) }

func (c *Client) PushNote(ctx context.Context, userID uint, note models.Note) error {
	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to marshal note: %w", err)
	}
	return c.rdb.LPush(ctx, notesKey(userID), data).Err()
}

func (c *Client) ListNotes(ctx context.Context, userID uint) ([]models.Note, error) {
	vals, err := c.rdb.LRange(ctx, notesKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	notes := make([]models.Note, 0, len(vals))
	for _, v := range vals {
		var n models.Note
		if err := json.Unmarshal([]byte(v), &n); err != nil {
			slog.Warn("skipping unreadable note", "user_id", userID, "err", err)
			continue
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// RemoveNote reports whether a note with the id existed.
func (c *Client) RemoveNote(ctx context.Context, userID uint, id string) (bool, error) {
	key := notesKey(userID)
	vals, err := c.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return false, fmt.Errorf("failed to list notes: %w", err)
	}
	for _, v := range vals {
		var n models.Note
		if json.Unmarshal([]byte(v), &n) != nil || n.ID != id {
			continue
		}
		if err := c.rdb.LRem(ctx, key, 1, v).Err(); err != nil {
			return false, fmt.Errorf("failed to remove note: %w", err)
		}
		return true, nil
	}
	return false, nil
}

// New-order drafts

func draftKey(userID uint) string { return fmt.Sprintf("draft:%d", userID) }

func (c *Client) SetDraft(ctx context.Context, userID uint, draft *models.OrderDraft, ttl time.Duration) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	return c.rdb.Set(ctx, draftKey(userID), data, ttl).Err()
}

// GetDraft returns nil without error when the user has no draft.
func (c *Client) GetDraft(ctx context.Context, userID uint) (*models.OrderDraft, error) {
	val, err := c.rdb.Get(ctx, draftKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	var d models.OrderDraft
	if err := json.Unmarshal(val, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return &d, nil
}

func (c *Client) DeleteDraft(ctx context.Context, userID uint) error {
	return c.rdb.Del(ctx, draftKey(userID)).Err()
}

// Revoked session tokens

func revokedKey(tokenID string) string { return "revoked:" + tokenID }

func (c *Client) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, revokedKey(tokenID), 1, ttl).Err()
}

func (c *Client) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return n > 0, nil
}

// Change feed

func (c *Client) PublishChange(ctx context.Context, ev models.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}
	return c.rdb.Publish(ctx, ChangesChannel, data).Err()
}

// SubscribeChanges delivers change events until ctx is done. The returned
// channel is closed when the subscription ends.
func (c *Client) SubscribeChanges(ctx context.Context) (<-chan models.ChangeEvent, error) {
	sub := c.rdb.Subscribe(ctx, ChangesChannel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan models.ChangeEvent, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev models.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					slog.Warn("dropping malformed change event", "err", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
