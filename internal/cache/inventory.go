package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"postboard/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	PostKeyPrefix      = "post:v%d:%s"
	PostVersionPrefix  = "post:%s:version"
	PostsPageKeyPrefix = "posts:v%d:page:%d"
	PostsListVersion   = "posts:list:version"
)

const (
	PostTTL = 30 * time.Minute
	ListTTL = 2 * time.Minute
	// PostVersionTTL outlives every PostTTL entry written under an older version.
	PostVersionTTL = 24 * time.Hour
)

// PostKey is the cache key of a single post document. Like PostsPageKey it
// must be computed before the fetch: a write that lands mid-fetch bumps the
// version, so the value stored afterwards sits under a retired key.
func PostKey(ctx context.Context, postID string) string {
	return fmt.Sprintf(PostKeyPrefix, currentVersion(ctx, fmt.Sprintf(PostVersionPrefix, postID)), postID)
}

// PostsPageKey is the cache key of one listing page. The key embeds the list
// version so that InvalidatePostsList retires every cached page at once.
func PostsPageKey(ctx context.Context, page int) string {
	return fmt.Sprintf(PostsPageKeyPrefix, currentVersion(ctx, PostsListVersion), page)
}

func currentVersion(ctx context.Context, key string) int64 {
	if client == nil {
		return 0
	}
	v, err := client.Get(ctx, key).Int64()
	if err != nil {
		return 0
	}
	return v
}

// Aside tries Redis first; on a miss it calls fetch, which must populate dest,
// then stores dest with ttl. Redis failures fall through to fetch.
func Aside(ctx context.Context, family, key string, dest any, ttl time.Duration, fetch func() error) error {
	if client != nil {
		raw, err := client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
				observability.CacheLookups.WithLabelValues(family, "hit").Inc()
				return nil
			}
			observability.CacheLookups.WithLabelValues(family, "error").Inc()
		case errors.Is(err, redis.Nil):
			observability.CacheLookups.WithLabelValues(family, "miss").Inc()
		default:
			observability.CacheLookups.WithLabelValues(family, "error").Inc()
		}
	}

	if err := fetch(); err != nil {
		return err
	}

	if client != nil {
		if b, err := json.Marshal(dest); err == nil {
			client.Set(ctx, key, b, ttl)
		}
	}
	return nil
}

// InvalidatePost retires every cached copy of a post by bumping its version.
func InvalidatePost(ctx context.Context, postID string) {
	if client == nil {
		return
	}
	key := fmt.Sprintf(PostVersionPrefix, postID)
	_, _ = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, PostVersionTTL)
		return nil
	})
}

// InvalidatePostsList retires every cached listing page.
func InvalidatePostsList(ctx context.Context) {
	if client != nil {
		client.Incr(ctx, PostsListVersion)
	}
}
