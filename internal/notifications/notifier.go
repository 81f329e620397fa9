// Package notifications publishes revalidation signals for the presentation layer.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"threads/internal/cache"
	"threads/internal/middleware"
	"threads/internal/observability"

	"github.com/redis/go-redis/v9"
)

// RevalidateChannel carries one message per invalidated path.
const RevalidateChannel = "revalidate:path"

// Revalidation is the payload published on RevalidateChannel.
type Revalidation struct {
	Path string    `json:"path"`
	At   time.Time `json:"at"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishRevalidation announces that the page at path is stale.
func (n *Notifier) PublishRevalidation(ctx context.Context, path string, at time.Time) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(Revalidation{Path: path, At: at.UTC()})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, RevalidateChannel, payload).Err()
}

// StartRevalidationSubscriber calls onMessage for every revalidation until ctx is done.
func (n *Notifier) StartRevalidationSubscriber(ctx context.Context, onMessage func(Revalidation)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, RevalidateChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", RevalidateChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var r Revalidation
				if err := json.Unmarshal([]byte(msg.Payload), &r); err != nil {
					middleware.Logger.Warn("dropping malformed revalidation", slog.String("payload", msg.Payload))
					continue
				}
				func() {
					defer func() {
						if rec := recover(); rec != nil {
							middleware.Logger.Error("panic in revalidation subscriber",
								slog.Any("panic", rec), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(r)
				}()
			}
		}
	}()

	return nil
}

// Revalidator tells the presentation layer a path must be re-rendered.
type Revalidator interface {
	RevalidatePath(ctx context.Context, path string)
}

// PathRevalidator bumps the view cache generation and publishes the path.
// Failures are logged and never fail the write that triggered them.
type PathRevalidator struct {
	cache    *cache.Cache
	notifier *Notifier
	now      func() time.Time
}

// NewPathRevalidator wires a revalidator over the view cache and notifier.
func NewPathRevalidator(c *cache.Cache, n *Notifier) *PathRevalidator {
	return &PathRevalidator{cache: c, notifier: n, now: time.Now}
}

// RevalidatePath implements Revalidator.
func (r *PathRevalidator) RevalidatePath(ctx context.Context, path string) {
	if r.cache.Client() == nil {
		observability.Revalidations.WithLabelValues("skipped").Inc()
		middleware.Logger.DebugContext(ctx, "revalidate without redis", slog.String("path", path))
		return
	}

	if _, err := r.cache.Bump(ctx); err != nil {
		observability.Revalidations.WithLabelValues("error").Inc()
		middleware.Logger.WarnContext(ctx, "failed to bump view generation", slog.String("error", err.Error()))
	}

	if path == "" {
		observability.Revalidations.WithLabelValues("ok").Inc()
		return
	}

	if err := r.notifier.PublishRevalidation(ctx, path, r.now()); err != nil {
		observability.Revalidations.WithLabelValues("error").Inc()
		middleware.Logger.WarnContext(ctx, "failed to publish revalidation",
			slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	observability.Revalidations.WithLabelValues("ok").Inc()
}
