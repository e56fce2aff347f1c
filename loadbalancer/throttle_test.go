package loadbalancer

import (
	"sync"
	"testing"
	"time"

	"cachefleet/pkg/protocol"
)

func TestThrottleCoalescesConcurrentReads(t *testing.T) {
	th := newThrottle(1000, 1000)

	var calls int
	var mu sync.Mutex
	build := func() protocol.LBMetricsData {
		mu.Lock()
		calls++
		mu.Unlock()
		time.Sleep(20 * time.Millisecond) // widen the window so concurrent callers overlap
		return protocol.LBMetricsData{Strategy: "round_robin"}
	}

	var wg sync.WaitGroup
	const n = 20
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			th.allow(build)
		}()
	}
	wg.Wait()

	if calls == 0 {
		t.Fatal("build must run at least once")
	}
	if calls == n {
		t.Fatalf("expected singleflight to coalesce at least some concurrent calls, got %d calls for %d goroutines", calls, n)
	}
}

func TestThrottleMarksOverLimitCalls(t *testing.T) {
	th := newThrottle(0.0001, 1)
	build := func() protocol.LBMetricsData { return protocol.LBMetricsData{} }

	_, firstThrottled := th.allow(build)
	_, secondThrottled := th.allow(build)

	if firstThrottled {
		t.Fatal("first call within burst should not be throttled")
	}
	if !secondThrottled {
		t.Fatal("second call past the burst should be marked throttled")
	}
}
