package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
)

func TestMemoryStoreSweepsExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	now := time.Unix(1700000000, 0)
	store.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		_, err := store.PutIfAbsent(ctx, fmt.Sprintf("s%d", i), "thread")
		gt.NoError(t, err)
	}
	gt.Equal(t, len(store.entries), 1000)

	now = now.Add(time.Hour)
	_, err := store.PutIfAbsent(ctx, "fresh", "thread-fresh")
	gt.NoError(t, err)
	gt.Equal(t, len(store.entries), 1)

	got, err := store.Get(ctx, "fresh")
	gt.NoError(t, err)
	gt.Equal(t, got, "thread-fresh")
}

func TestMemoryStoreSweepKeepsLiveEntries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	now := time.Unix(1700000000, 0)
	store.now = func() time.Time { return now }

	_, err := store.PutIfAbsent(ctx, "old", "thread-old")
	gt.NoError(t, err)

	now = now.Add(50 * time.Second)
	_, err = store.PutIfAbsent(ctx, "young", "thread-young")
	gt.NoError(t, err)

	// old expires, young is still live
	now = now.Add(30 * time.Second)
	_, err = store.PutIfAbsent(ctx, "new", "thread-new")
	gt.NoError(t, err)

	gt.Equal(t, len(store.entries), 2)
	_, ok := store.entries["old"]
	gt.False(t, ok)
	_, ok = store.entries["young"]
	gt.True(t, ok)
}
