package frontier

import (
	"fmt"
	"sync"
	"testing"
)

func TestFrontierFIFOOrder(t *testing.T) {
	f := New(100)
	f.Push("https://example.com/a", 0)
	f.Push("https://example.com/b", 0)
	f.Push("https://example.com/c", 1)

	want := []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"}
	for i, w := range want {
		task, ok := f.Pop()
		if !ok {
			t.Fatalf("Pop %d: queue empty", i)
		}
		if task.URL != w {
			t.Errorf("Pop %d = %q, want %q", i, task.URL, w)
		}
	}

	if _, ok := f.Pop(); ok {
		t.Error("expected empty queue after draining")
	}
}

func TestFrontierDepthCarried(t *testing.T) {
	f := New(100)
	f.Push("https://example.com/deep", 3)

	task, ok := f.Pop()
	if !ok {
		t.Fatal("queue empty")
	}
	if task.Depth != 3 {
		t.Errorf("Depth = %d, want 3", task.Depth)
	}
}

func TestFrontierDuplicateEnqueueCollapses(t *testing.T) {
	f := New(100)
	f.Push("https://example.com/a", 0)
	f.Push("https://example.com/a", 1)

	if f.Len() != 1 {
		t.Errorf("Len = %d, want 1", f.Len())
	}

	task, _ := f.Pop()
	if task.Depth != 0 {
		t.Errorf("first push wins, Depth = %d, want 0", task.Depth)
	}
}

func TestFrontierPushAfterVisitIsNoop(t *testing.T) {
	f := New(100)
	if !f.MarkVisited("https://example.com/a") {
		t.Fatal("first MarkVisited should return true")
	}
	f.Push("https://example.com/a", 0)

	if f.Len() != 0 {
		t.Errorf("Len = %d, want 0 after pushing a visited URL", f.Len())
	}
}

func TestFrontierMarkVisitedOnce(t *testing.T) {
	f := New(100)
	if !f.MarkVisited("https://example.com/a") {
		t.Error("first mark should be true")
	}
	if f.MarkVisited("https://example.com/a") {
		t.Error("second mark should be false")
	}
	if !f.Seen("https://example.com/a") {
		t.Error("Seen should report true after marking")
	}
	if f.VisitedCount() != 1 {
		t.Errorf("VisitedCount = %d, want 1", f.VisitedCount())
	}
}

func TestFrontierConcurrentMarkVisited(t *testing.T) {
	f := New(10000)
	const goroutines = 20
	const urls = 200

	var wg sync.WaitGroup
	wins := make([]int, goroutines)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < urls; i++ {
				if f.MarkVisited(fmt.Sprintf("https://example.com/page-%d", i)) {
					wins[g]++
				}
			}
		}(g)
	}
	wg.Wait()

	total := 0
	for _, w := range wins {
		total += w
	}
	if total != urls {
		t.Errorf("total successful marks = %d, want %d (each URL claimed exactly once)", total, urls)
	}
}
