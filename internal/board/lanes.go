package board

import (
	"context"
	"sync"
)

// lanes serializes work per task id. Each acquire queues behind the previous
// holder for the same id; different ids never wait on each other.
type lanes struct {
	mu    sync.Mutex
	tails map[int64]chan struct{}
}

func newLanes() *lanes {
	return &lanes{tails: map[int64]chan struct{}{}}
}

// acquire blocks until every earlier holder of id has released. If ctx ends
// first the caller gives up its turn: the returned error is ctx.Err() and the
// chain stays intact for later callers.
func (l *lanes) acquire(ctx context.Context, id int64) (func(), error) {
	done := make(chan struct{})
	l.mu.Lock()
	prev := l.tails[id]
	l.tails[id] = done
	l.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			if l.tails[id] == done {
				delete(l.tails, id)
			}
			l.mu.Unlock()
			close(done)
		})
	}

	if prev == nil {
		return release, nil
	}
	select {
	case <-prev:
		return release, nil
	case <-ctx.Done():
		go func() {
			<-prev
			release()
		}()
		return nil, ctx.Err()
	}
}
