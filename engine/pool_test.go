package engine_test

import (
	"context"
	"sync"
	"testing"

	"code.hybscloud.com/glasrt/engine"
)

func TestPoolGoRunsConcurrently(t *testing.T) {
	pool := engine.NewPool(4)
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := 0
	for i := 0; i < 4; i++ {
		wg.Add(1)
		pool.Go(context.Background(), func() {
			defer wg.Done()
			mu.Lock()
			seen++
			mu.Unlock()
		})
	}
	wg.Wait()
	if seen != 4 {
		t.Fatalf("seen=%d, want 4", seen)
	}
}

func TestPoolTryGoReportsSaturation(t *testing.T) {
	pool := engine.NewPool(1)
	release := make(chan struct{})
	started := make(chan struct{})
	pool.Go(context.Background(), func() {
		close(started)
		<-release
	})
	<-started
	if pool.TryGo(func() {}) {
		t.Fatal("TryGo should report false when the only slot is held")
	}
	close(release)
}
