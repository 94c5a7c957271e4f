package redislock

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopLockerAlwaysGrants(t *testing.T) {
	var l Locker = NoopLocker{}
	release, err := l.Obtain(context.Background(), "k", time.Second)
	require.NoError(t, err)
	release()

	_, err = l.Obtain(context.Background(), "k", time.Second)
	assert.NoError(t, err)
}

func TestRedisLockerExcludesSecondHolder(t *testing.T) {
	addr := os.Getenv("DPR_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DPR_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	l, err := NewRedisLocker(ctx, addr, "", 0, nil)
	require.NoError(t, err)
	defer l.Close()

	key := fmt.Sprintf("dpr:test:%d", time.Now().UnixNano())
	release, err := l.Obtain(ctx, key, 5*time.Second)
	require.NoError(t, err)

	_, err = l.Obtain(ctx, key, 5*time.Second)
	assert.ErrorIs(t, err, ErrLocked)

	release()
	again, err := l.Obtain(ctx, key, 5*time.Second)
	require.NoError(t, err)
	again()
}
