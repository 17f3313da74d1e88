package idgen

import (
	"strings"
	"sync"
	"testing"
)

// TestNextIDUnique 并发生成不重复且趋势递增。
func TestNextIDUnique(t *testing.T) {
	const workers = 8
	const perWorker = 1000

	var mu sync.Mutex
	seen := make(map[int64]bool, workers*perWorker)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id := NextID()
				mu.Lock()
				if seen[id] {
					mu.Unlock()
					t.Errorf("重复ID: %d", id)
					return
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Fatalf("生成数量=%d want=%d", len(seen), workers*perWorker)
	}
}

// TestGenerateTransactionNo 流水号带 TXN 前缀且互不重复。
func TestGenerateTransactionNo(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		no := GenerateTransactionNo()
		if !strings.HasPrefix(no, "TXN") {
			t.Fatalf("前缀错误: %s", no)
		}
		if seen[no] {
			t.Fatalf("流水号重复: %s", no)
		}
		seen[no] = true
	}
}
