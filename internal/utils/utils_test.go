package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(42, "ada", "s3cret", time.Minute)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "s3cret")
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "ada", claims.Username)

	_, err = ParseJWT(token, "other")
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestJWTExpired(t *testing.T) {
	token, err := GenerateJWT(1, "ada", "s3cret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(token, "s3cret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTRequiresSecret(t *testing.T) {
	_, err := GenerateJWT(1, "ada", "", time.Minute)
	assert.Error(t, err)
}

func TestCacheHelpers(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	ctx := context.Background()

	type payload struct{ Total string }
	require.NoError(t, SetCache(ctx, rdb, SummaryKey(1, "g0.0", "categories"), payload{"9.50"}, time.Minute))
	require.NoError(t, SetCache(ctx, rdb, SummaryKey(1, "g0.0", "monthly"), payload{"1.00"}, time.Minute))
	require.NoError(t, SetCache(ctx, rdb, SummaryKey(2, "g0.0", "monthly"), payload{"2.00"}, time.Minute))

	var got payload
	hit, err := GetCache(ctx, rdb, SummaryKey(1, "g0.0", "categories"), &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "9.50", got.Total)

	n, err := DeleteMatching(ctx, rdb, SummaryPrefix(1))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, mr.Exists(SummaryKey(2, "g0.0", "monthly")))

	n, err = DeleteMatching(ctx, rdb, AllSummaries())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hit, err = GetCache(ctx, rdb, SummaryKey(1, "g0.0", "categories"), &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheWithoutRedis(t *testing.T) {
	ctx := context.Background()
	var dest map[string]any
	hit, err := GetCache(ctx, nil, "k", &dest)
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, SetCache(ctx, nil, "k", 1, time.Minute))
	assert.NoError(t, InvalidateSummaries(ctx, nil, 1))
	assert.NoError(t, InvalidateAllSummaries(ctx, nil))
	gen, err := SummaryGeneration(ctx, nil, 1)
	assert.NoError(t, err)
	assert.Empty(t, gen)
	n, err := DeleteMatching(ctx, nil, "*")
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestReportWrittenAfterInvalidationIsNeverRead(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	ctx := context.Background()

	before, err := SummaryGeneration(ctx, rdb, 1)
	require.NoError(t, err)
	assert.Equal(t, "g0.0", before)

	// A write lands while a reader is still building from old data.
	require.NoError(t, InvalidateSummaries(ctx, rdb, 1))
	require.NoError(t, SetCache(ctx, rdb, SummaryKey(1, before, "all"), "stale", time.Minute))

	after, err := SummaryGeneration(ctx, rdb, 1)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
	var got string
	hit, err := GetCache(ctx, rdb, SummaryKey(1, after, "all"), &got)
	require.NoError(t, err)
	assert.False(t, hit)

	other, err := SummaryGeneration(ctx, rdb, 2)
	require.NoError(t, err)
	assert.Equal(t, "g0.0", other, "other users keep their cache")

	require.NoError(t, InvalidateAllSummaries(ctx, rdb))
	other, err = SummaryGeneration(ctx, rdb, 2)
	require.NoError(t, err)
	assert.Equal(t, "g1.0", other)
	assert.False(t, mr.Exists(SummaryKey(1, before, "all")))
}
