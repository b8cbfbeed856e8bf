package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"
	"fmt"
	"time" // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache key layout. Everything derived from a user's expenses lives under
// SummaryPrefix(userID) so one write can drop it all. Report keys also carry
// a generation read before the report is built; invalidation bumps it, so a
// report computed from pre-write data is stored under a key no reader asks for.
const (
	usersListKey  = "users:list:%d:%d"      // offset, limit
	summaryKey    = "summary:user:%d:%s:%s" // user id, generation, view
	summaryUser   = "summary:user:%d:*"     // one user's reports
	summaryAll    = "summary:user:*"        // every user's reports
	summaryGen    = "summary:gen:user:%d"   // per-user generation counter
	summaryGenAll = "summary:gen:all"       // bumped when every user's reports change
	usersAll      = "users:list:*"          // every cached page
	scanBatch     = 200                     // SCAN COUNT hint
)

// UsersListKey caches one page of the admin user listing
func UsersListKey(offset, limit int) string {
	return fmt.Sprintf(usersListKey, offset, limit)
}

// SummaryKey caches one report view of userID at generation gen
func SummaryKey(userID uint, gen, view string) string {
	return fmt.Sprintf(summaryKey, userID, gen, view)
}

// SummaryPrefix matches every cached report of userID
func SummaryPrefix(userID uint) string {
	return fmt.Sprintf(summaryUser, userID)
}

// AllSummaries matches every cached report of every user
func AllSummaries() string {
	return summaryAll
}

// SummaryGeneration returns the current report generation of userID. Read it
// before computing a report and build the cache key from it.
func SummaryGeneration(ctx context.Context, rdb *redis.Client, userID uint) (string, error) {
	if rdb == nil {
		return "", nil
	}
	vals, err := rdb.MGet(ctx, summaryGenAll, fmt.Sprintf(summaryGen, userID)).Result()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("g%s.%s", counter(vals[0]), counter(vals[1])), nil
}

// InvalidateSummaries retires every cached report of userID
func InvalidateSummaries(ctx context.Context, rdb *redis.Client, userID uint) error {
	if rdb == nil {
		return nil
	}
	if err := rdb.Incr(ctx, fmt.Sprintf(summaryGen, userID)).Err(); err != nil {
		return err
	}
	_, err := DeleteMatching(ctx, rdb, SummaryPrefix(userID)) // Free the retired entries
	return err
}

// InvalidateAllSummaries retires every cached report of every user
func InvalidateAllSummaries(ctx context.Context, rdb *redis.Client) error {
	if rdb == nil {
		return nil
	}
	if err := rdb.Incr(ctx, summaryGenAll).Err(); err != nil {
		return err
	}
	_, err := DeleteMatching(ctx, rdb, AllSummaries())
	return err
}

// counter renders an MGET slot; a missing counter is generation zero
func counter(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return "0"
}

// AllUserPages matches every cached page of the user listing
func AllUserPages() string {
	return usersAll
}

// GetCache retrieves a value from Redis and unmarshals it into dest. A nil
// client is a permanent miss.
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	val, err := rdb.Get(ctx, key).Bytes() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal(val, dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// DeleteMatching removes every key matching the glob pattern, walking the
// keyspace with SCAN rather than KEYS.
func DeleteMatching(ctx context.Context, rdb *redis.Client, pattern string) (int, error) {
	if rdb == nil {
		return 0, nil
	}
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			n, err := rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}
