package proxy

import (
	"context"
	"sync"
	"time"

	"encore.dev/pubsub"

	"cachefleet/pkg/logging"
)

// WarmedEvent announces that the warmer re-fetched and re-cached a key.
// Published on warmedTopic for any in-process listener; spec.md's
// Non-goals exclude cross-proxy coordination, so this topic only ever has
// subscribers inside the same proxy process.
type WarmedEvent struct {
	Key string    `json:"key"`
	At  time.Time `json:"at"`
}

var warmedTopic = pubsub.NewTopic[*WarmedEvent](
	"proxy-warm-completed",
	pubsub.TopicConfig{DeliveryGuarantee: pubsub.AtLeastOnce},
)

var warmLog = logging.New("proxy-warm-events")

var _ = pubsub.NewSubscription(
	warmedTopic,
	"proxy-warm-log",
	pubsub.SubscriptionConfig[*WarmedEvent]{Handler: logWarmedEvent},
)

func logWarmedEvent(ctx context.Context, event *WarmedEvent) error {
	warmLog.Info("warm_completed", logging.F("key", event.Key))
	return nil
}

// warmInterval is how often the warmer sweeps for hot keys to refresh.
const warmInterval = 30 * time.Second

// warmWindow is the window access counts are measured over. Each key's
// window starts at its first counted access and is restarted once it has
// elapsed; a key reaching threshold accesses within its window is eligible
// for warming.
const warmWindow = time.Minute

// warmerPoolSize is the number of concurrent warm workers, matching the
// teacher's WorkerPool default of a small fixed pool rather than one
// goroutine per key.
const warmerPoolSize = 4

// warmTask is one unit of work queued for a warm worker: re-fetch and
// re-cache a single hot key.
type warmTask struct {
	cacheKey string
}

// warmer proactively re-fetches frequently accessed keys from the origin
// on a fixed interval, independent of any cache eviction. It exists only
// for LRU-configured proxies: an LRU entry never expires on its own, so a
// hot key's cached value could otherwise go stale indefinitely between
// evictions, unlike a TTL cache where expiry already forces periodic
// refresh.
//
// Its worker pool is grounded directly in the teacher's
// warming.WorkerPool/Worker: a fixed number of goroutines reading from a
// buffered task channel, generalized from warming arbitrary scheduled
// keys to warming only keys this proxy has actually observed being
// requested above threshold.
//
// The warmer reuses the exact origin-fetch path the cold-miss handler
// uses, so a warmed key can never end up in a different shape than one
// fetched normally, and it is invisible on the wire: it only changes
// whether a later GET is a hit or a miss.
type warmer struct {
	node      *Node
	threshold int

	mu     sync.Mutex
	counts map[string]*accessCount

	tasks chan warmTask
	log   *logging.Logger
}

type accessCount struct {
	count      int
	windowFrom time.Time
}

func newWarmer(node *Node, threshold int) *warmer {
	return &warmer{
		node:      node,
		threshold: threshold,
		counts:    make(map[string]*accessCount),
		tasks:     make(chan warmTask, 256),
		log:       logging.New("proxy-warmer"),
	}
}

// recordAccess is called on every well-formed GET (hit or miss) so the
// warmer can track which keys are hot.
func (w *warmer) recordAccess(cacheKey string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	c, ok := w.counts[cacheKey]
	if !ok || now.Sub(c.windowFrom) > warmWindow {
		c = &accessCount{windowFrom: now}
		w.counts[cacheKey] = c
	}
	c.count++
}

// run starts the fixed worker pool and the ticking scan that feeds it,
// both for the lifetime of the proxy process. Like the load balancer's
// poller, a scan that panics must not take down the warmer.
func (w *warmer) run() {
	for i := 0; i < warmerPoolSize; i++ {
		go w.runWorker()
	}

	ticker := time.NewTicker(warmInterval)
	defer ticker.Stop()

	for range ticker.C {
		w.safeCycle()
	}
}

// runWorker is one of warmerPoolSize long-lived goroutines draining the
// task channel, the same shape as the teacher's WorkerPool.runWorker.
func (w *warmer) runWorker() {
	for task := range w.tasks {
		w.warmOne(task.cacheKey)
	}
}

func (w *warmer) safeCycle() {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("warm_cycle_panic", logging.F("recover", r))
		}
	}()
	w.cycle()
}

// cycle enqueues every currently hot key as a task; the workers pick them
// up concurrently. A full queue drops the excess rather than blocking the
// scan, the same backpressure choice the teacher's QueueTasks makes.
func (w *warmer) cycle() {
	for _, cacheKey := range w.hotKeys() {
		select {
		case w.tasks <- warmTask{cacheKey: cacheKey}:
		default:
			w.log.Warn("warm_queue_full", logging.F("key", cacheKey))
		}
	}
}

func (w *warmer) warmOne(cacheKey string) {
	resource, key, ok := splitCacheKey(cacheKey)
	if !ok {
		return
	}

	value, outcome := w.node.origin.Fetch(resource, key)
	if outcome != OriginOK {
		w.log.Warn("warm_miss", logging.F("key", cacheKey), logging.F("outcome", string(outcome)))
		return
	}

	w.node.cache.Set(cacheKey, value)
	w.log.Info("warmed", logging.F("key", cacheKey))
	_, _ = warmedTopic.Publish(context.Background(), &WarmedEvent{Key: cacheKey, At: time.Now()})
}

func (w *warmer) hotKeys() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	var hot []string
	for key, c := range w.counts {
		if now.Sub(c.windowFrom) > warmWindow {
			delete(w.counts, key)
			continue
		}
		if c.count >= w.threshold {
			hot = append(hot, key)
		}
	}
	return hot
}

func splitCacheKey(cacheKey string) (resource, key string, ok bool) {
	for i := 0; i < len(cacheKey); i++ {
		if cacheKey[i] == '/' {
			return cacheKey[:i], cacheKey[i+1:], true
		}
	}
	return "", "", false
}
