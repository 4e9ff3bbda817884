package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"robotrent/internal/domain"
	"robotrent/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueSorted(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, uniqueSorted([]string{"c", "a", "b", "a"}))
}

func lockerContract(t *testing.T, locker domain.RangeLocker) {
	ctx := context.Background()

	t.Run("OverlappingRangesWait", func(t *testing.T) {
		release, err := locker.Lock(ctx, []string{"calendar:row:2", "calendar:row:3"})
		require.NoError(t, err)

		short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(short, []string{"calendar:row:3", "calendar:row:4"})
		assert.ErrorIs(t, err, models.ErrLockTimeout)

		release()
		release() // повторный вызов безопасен

		again, err := locker.Lock(ctx, []string{"calendar:row:3", "calendar:row:4"})
		require.NoError(t, err)
		again()
	})

	t.Run("DisjointRangesDoNotBlock", func(t *testing.T) {
		a, err := locker.Lock(ctx, []string{"calendar:row:10"})
		require.NoError(t, err)
		defer a()

		b, err := locker.Lock(ctx, []string{"calendar:row:11"})
		require.NoError(t, err)
		b()
	})

	t.Run("MutualExclusion", func(t *testing.T) {
		var inside, maxInside int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release, err := locker.Lock(ctx, []string{"calendar:row:20", "calendar:row:21"})
				if !assert.NoError(t, err) {
					return
				}
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				release()
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), maxInside)
	})
}

func TestMemoryLocker(t *testing.T) {
	lockerContract(t, NewMemoryLocker())
}

func TestRedisLocker(t *testing.T) {
	s, client := newMiniredis(t)
	logger := zerolog.Nop()
	locker := NewRedisLocker(client, 30*time.Second, 5*time.Second, &logger)

	lockerContract(t, locker)

	t.Run("ReleaseKeepsForeignLock", func(t *testing.T) {
		release, err := locker.Lock(context.Background(), []string{"calendar:row:30"})
		require.NoError(t, err)

		// блокировка истекла и её перехватил другой процесс
		require.NoError(t, s.Set("calendar:row:30", "someone-else"))
		release()

		got, err := s.Get("calendar:row:30")
		require.NoError(t, err)
		assert.Equal(t, "someone-else", got)
	})

	t.Run("WaitExceeded", func(t *testing.T) {
		impatient := NewRedisLocker(client, 30*time.Second, 60*time.Millisecond, &logger)
		require.NoError(t, s.Set("calendar:row:40", "held"))

		_, err := impatient.Lock(context.Background(), []string{"calendar:row:39", "calendar:row:40"})
		assert.ErrorIs(t, err, models.ErrLockTimeout)
		assert.False(t, s.Exists("calendar:row:39"))
	})
}
