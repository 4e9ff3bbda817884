package repository

import (
	"context"
	"sort"
	"sync"

	"robotrent/internal/models"
)

// MemoryLocker serializes calendar ranges inside one process.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]chan struct{})}
}

func (l *MemoryLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// Lock захватывает ключи в отсортированном порядке, чтобы не было дедлоков.
func (l *MemoryLocker) Lock(ctx context.Context, keys []string) (func(), error) {
	sorted := uniqueSorted(keys)
	held := make([]chan struct{}, 0, len(sorted))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
		held = nil
	}

	for _, key := range sorted {
		ch := l.slot(key)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-ctx.Done():
			release()
			return nil, models.ErrLockTimeout
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func uniqueSorted(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
