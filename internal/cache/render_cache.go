// Package cache stores rendered transcript HTML in Redis.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"interviewnotes/api/internal/notes"
	"interviewnotes/api/internal/transcript"
)

const defaultTTL = 10 * time.Minute

// RenderCache keys entries by interview and a digest of everything that
// affects the rendered output, so edits never need explicit invalidation.
type RenderCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRenderCache connects to redisURL and verifies the connection.
func NewRenderCache(redisURL string, ttl time.Duration) (*RenderCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRenderCacheWithClient(client, ttl), nil
}

// NewRenderCacheWithClient wraps an existing Redis client.
func NewRenderCacheWithClient(client *redis.Client, ttl time.Duration) *RenderCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RenderCache{
		client: client,
		prefix: "render:",
		ttl:    ttl,
	}
}

// Key digests the document and the note fields that change the markup.
// Note content is left out; it never reaches the transcript HTML.
func (c *RenderCache) Key(interviewID string, doc *transcript.Node, all []notes.Note) (string, error) {
	h := sha1.New()
	if doc != nil {
		raw, err := json.Marshal(doc)
		if err != nil {
			return "", fmt.Errorf("marshal document: %w", err)
		}
		h.Write(raw)
	}
	for _, note := range all {
		fmt.Fprintf(h, "\x00%s\x1f%s\x1f%s\x1f%s", note.ID, note.CommentID, note.AnchorText, note.ParentID)
	}
	return c.prefix + interviewID + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns the cached HTML and whether it was present.
func (c *RenderCache) Get(ctx context.Context, key string) (string, bool, error) {
	html, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get rendered transcript: %w", err)
	}
	return html, true, nil
}

func (c *RenderCache) Set(ctx context.Context, key, html string) error {
	if err := c.client.Set(ctx, key, html, c.ttl).Err(); err != nil {
		return fmt.Errorf("save rendered transcript: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RenderCache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable
func (c *RenderCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
