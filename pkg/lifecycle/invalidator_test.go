package lifecycle

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupInvalidators(t *testing.T) (*Invalidator, *Invalidator) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	a := NewInvalidatorWithClient("node-a", client)
	b := NewInvalidatorWithClient("node-b", client)
	return a, b
}

func TestInvalidatorDeliversToOtherNodes(t *testing.T) {
	a, b := setupInvalidators(t)

	var hits atomic.Int32
	b.OnInvalidate(ModuleRBAC, func(msg *InvalidateMessage) {
		assert.Equal(t, "node-a", msg.NodeID)
		hits.Add(1)
	})

	require.NoError(t, a.Start())
	require.NoError(t, b.Start())
	t.Cleanup(func() { _ = a.Stop(); _ = b.Stop() })

	require.NoError(t, a.Publish(context.Background(), ModuleRBAC, ""))

	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestInvalidatorSkipsOwnBroadcast(t *testing.T) {
	// 写端发布前已清理本地缓存，收到自己的广播不应再次触发
	a, b := setupInvalidators(t)

	var aHits, bHits atomic.Int32
	a.OnInvalidate(ModuleMenu, func(*InvalidateMessage) { aHits.Add(1) })
	b.OnInvalidate(ModuleMenu, func(*InvalidateMessage) { bHits.Add(1) })

	require.NoError(t, a.Start())
	require.NoError(t, b.Start())
	t.Cleanup(func() { _ = a.Stop(); _ = b.Stop() })

	require.NoError(t, a.Publish(context.Background(), ModuleMenu, ""))

	require.Eventually(t, func() bool { return bHits.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(0), aHits.Load())
}

func TestInvalidatorDispatchesByModule(t *testing.T) {
	a, b := setupInvalidators(t)

	var menuHits, rbacHits atomic.Int32
	b.OnInvalidate(ModuleMenu, func(*InvalidateMessage) { menuHits.Add(1) })
	b.OnInvalidate(ModuleRBAC, func(*InvalidateMessage) { rbacHits.Add(1) })

	require.NoError(t, a.Start())
	require.NoError(t, b.Start())
	t.Cleanup(func() { _ = a.Stop(); _ = b.Stop() })

	require.NoError(t, a.Publish(context.Background(), ModuleMenu, "5"))

	require.Eventually(t, func() bool { return menuHits.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(0), rbacHits.Load())
}
