package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type cachedReport struct {
	StoreID string `json:"store_id"`
	Total   int    `json:"total"`
}

func newTestCache(t *testing.T) (Cache, redismock.ClientMock) {
	t.Helper()
	rdb, mock := redismock.NewClientMock()
	return NewRedisCache(rdb, zap.NewNop()), mock
}

func TestGetMissReturnsFalse(t *testing.T) {
	c, mock := newTestCache(t)
	mock.ExpectGet("report:missing").RedisNil()

	var dest cachedReport
	found, err := c.Get(context.Background(), "report:missing", &dest)

	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHitUnmarshalsPayload(t *testing.T) {
	c, mock := newTestCache(t)
	payload, _ := json.Marshal(cachedReport{StoreID: "store-1", Total: 42})
	mock.ExpectGet("report:hit").SetVal(string(payload))

	var dest cachedReport
	found, err := c.Get(context.Background(), "report:hit", &dest)

	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "store-1", dest.StoreID)
	assert.Equal(t, 42, dest.Total)
}

func TestSetMarshalsAndAppliesTTL(t *testing.T) {
	c, mock := newTestCache(t)
	payload, _ := json.Marshal(cachedReport{StoreID: "store-1", Total: 7})
	mock.ExpectSet("report:set", payload, TTLShort).SetVal("OK")

	err := c.Set(context.Background(), "report:set", cachedReport{StoreID: "store-1", Total: 7}, TTLShort)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelNoKeysIsNoop(t *testing.T) {
	c, mock := newTestCache(t)

	assert.NoError(t, c.Del(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrSetHitSkipsFactory(t *testing.T) {
	c, mock := newTestCache(t)
	payload, _ := json.Marshal(cachedReport{StoreID: "store-1", Total: 99})
	mock.ExpectGet("report:warm").SetVal(string(payload))

	var dest cachedReport
	err := c.GetOrSet(context.Background(), "report:warm", TTLShort, func(ctx context.Context) (any, error) {
		t.Fatal("factory must not run on cache hit")
		return nil, nil
	}, &dest)

	assert.NoError(t, err)
	assert.Equal(t, 99, dest.Total)
}

func TestGetOrSetMissRunsFactoryAndStores(t *testing.T) {
	c, mock := newTestCache(t)
	fresh := cachedReport{StoreID: "store-2", Total: 11}
	payload, _ := json.Marshal(fresh)
	mock.ExpectGet("report:cold").RedisNil()
	mock.ExpectSet("report:cold", payload, TTLMedium).SetVal("OK")

	var dest cachedReport
	err := c.GetOrSet(context.Background(), "report:cold", TTLMedium, func(ctx context.Context) (any, error) {
		return fresh, nil
	}, &dest)

	assert.NoError(t, err)
	assert.Equal(t, fresh, dest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrSetFactoryErrorPropagates(t *testing.T) {
	c, mock := newTestCache(t)
	mock.ExpectGet("report:broken").RedisNil()

	var dest cachedReport
	err := c.GetOrSet(context.Background(), "report:broken", TTLShort, func(ctx context.Context) (any, error) {
		return nil, errors.New("upstream down")
	}, &dest)

	assert.EqualError(t, err, "upstream down")
}

func TestGetOrSetToleratesWriteFailure(t *testing.T) {
	c, mock := newTestCache(t)
	fresh := cachedReport{StoreID: "store-3", Total: 5}
	payload, _ := json.Marshal(fresh)
	mock.ExpectGet("report:flaky").RedisNil()
	mock.ExpectSet("report:flaky", payload, TTLShort).SetErr(errors.New("redis write refused"))

	var dest cachedReport
	err := c.GetOrSet(context.Background(), "report:flaky", TTLShort, func(ctx context.Context) (any, error) {
		return fresh, nil
	}, &dest)

	assert.NoError(t, err)
	assert.Equal(t, fresh, dest)
}

func TestKeyBuilders(t *testing.T) {
	date := time.Date(2025, time.October, 6, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "shift:current:u1:2025-10-06", CurrentShiftKey("u1", date))
	assert.Equal(t, "attendance:month:u1:2025-10", AttendanceMonthKey("u1", 2025, time.October))
	assert.Equal(t, "score:user:u1:2025-04", UserScoreKey("u1", 2025, time.April))
	assert.Equal(t, "score:leaderboard:2025-10", LeaderboardKey(2025, time.October))
	assert.Equal(t, "report:attendance:store-1:2025-10", StoreReportKey("attendance", "store-1", 2025, time.October))
	assert.Equal(t, "lock:job:monthly-scoring", JobLockKey("monthly-scoring"))
}
