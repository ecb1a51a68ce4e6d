package ledger

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillnavigator/roadmap-service/internal/roadmap/domain"
)

const testPrefix = "test:"

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	// Test connection
	err = client.Ping(context.Background()).Err()
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return client, mr
}

func TestRedisLedger(t *testing.T) {
	var mr *miniredis.Miniredis
	runLedgerContract(t, harness{
		build: func(t *testing.T, seed map[string]int64) Ledger {
			var client *redis.Client
			client, mr = setupTestRedis(t)
			for userID, credits := range seed {
				require.NoError(t, mr.Set(testPrefix+creditKeyPrefix+userID, strconv.FormatInt(credits, 10)))
			}
			return NewRedisLedger(client, testPrefix)
		},
		balance: func(t *testing.T, userID string) (int64, bool) {
			raw, err := mr.Get(testPrefix + creditKeyPrefix + userID)
			if err != nil {
				return 0, false
			}
			v, err := strconv.ParseInt(raw, 10, 64)
			require.NoError(t, err)
			return v, true
		},
	})
}

func TestRedisLedger_StoreFailures(t *testing.T) {
	client, mr := setupTestRedis(t)
	l := NewRedisLedger(client, testPrefix)
	require.NoError(t, mr.Set(testPrefix+creditKeyPrefix+"u1", "3"))

	mr.Close()

	t.Run("check fails closed", func(t *testing.T) {
		assert.False(t, l.Check(context.Background(), "u1"))
	})

	t.Run("decrement reports ledger unavailable", func(t *testing.T) {
		_, err := l.Decrement(context.Background(), "u1")
		assert.ErrorIs(t, err, domain.ErrLedgerUnavailable)
		assert.NotErrorIs(t, err, domain.ErrInsufficientCredits)
	})
}

func TestRedisLedger_CorruptBalance(t *testing.T) {
	client, mr := setupTestRedis(t)
	l := NewRedisLedger(client, testPrefix)
	require.NoError(t, mr.Set(testPrefix+creditKeyPrefix+"u1", "lots"))

	assert.False(t, l.Check(context.Background(), "u1"))

	_, err := l.Decrement(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrInsufficientCredits)
}
