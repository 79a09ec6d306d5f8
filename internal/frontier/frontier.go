// Package frontier provides the pending-work queue and visited set for the
// crawler.
package frontier

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Task is one unit of pending work: a normalized URL and its discovery depth.
type Task struct {
	URL   string
	Depth int
}

// Frontier is a thread-safe FIFO queue of crawl tasks guarded by a visited
// set. FIFO ordering realizes breadth-first traversal: children are appended
// after the node being processed and dequeuing is strict head-first.
type Frontier struct {
	mu       sync.Mutex
	queue    []Task
	enqueued map[string]struct{}
	visited  *visitedSet
}

// New creates a frontier sized for the estimated number of URLs.
func New(estimatedURLs int) *Frontier {
	return &Frontier{
		enqueued: make(map[string]struct{}),
		visited:  newVisitedSet(estimatedURLs),
	}
}

// Push appends a task. It is a no-op when the URL was already visited or is
// already waiting in the queue.
func (f *Frontier) Push(url string, depth int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.visited.has(url) {
		return
	}
	if _, ok := f.enqueued[url]; ok {
		return
	}
	f.enqueued[url] = struct{}{}
	f.queue = append(f.queue, Task{URL: url, Depth: depth})
}

// Pop removes and returns the head task. The second return is false when the
// queue is empty.
func (f *Frontier) Pop() (Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return Task{}, false
	}
	task := f.queue[0]
	f.queue = f.queue[1:]
	delete(f.enqueued, task.URL)
	return task, true
}

// MarkVisited adds a URL to the visited set, reporting whether it was newly
// marked. A false return means another caller already claimed the URL and
// the current dequeue should be skipped.
func (f *Frontier) MarkVisited(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visited.add(url)
}

// Seen reports whether a URL is in the visited set.
func (f *Frontier) Seen(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visited.has(url)
}

// Len returns the number of queued tasks.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// VisitedCount returns the number of URLs marked visited.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visited.count
}

// visitedSet is a Bloom filter in front of an exact map. The filter answers
// definite misses without touching the map; the map resolves the filter's
// false positives.
type visitedSet struct {
	filter *bloom.BloomFilter
	exact  map[string]struct{}
	count  int
}

func newVisitedSet(estimatedItems int) *visitedSet {
	if estimatedItems < 1000 {
		estimatedItems = 1000
	}
	return &visitedSet{
		filter: bloom.NewWithEstimates(uint(estimatedItems), 0.001),
		exact:  make(map[string]struct{}),
	}
}

func (v *visitedSet) add(url string) bool {
	if v.has(url) {
		return false
	}
	v.filter.AddString(url)
	v.exact[url] = struct{}{}
	v.count++
	return true
}

func (v *visitedSet) has(url string) bool {
	if !v.filter.TestString(url) {
		return false
	}
	_, ok := v.exact[url]
	return ok
}
