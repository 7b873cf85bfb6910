package translation

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestBufferMergeWriteOnce(t *testing.T) {
	buffer := NewBuffer(3, nil)

	if err := buffer.Merge([]int{1, 2}, []string{"一", "二"}); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	if err := buffer.Merge([]int{2, 3}, []string{"再写二", "三"}); err != nil {
		t.Fatalf("second merge: %v", err)
	}

	got, ok := buffer.Get(2)
	if !ok || got != "二" {
		t.Fatalf("Get(2) = %q, %v; want first write to win", got, ok)
	}
	if got, _ := buffer.Get(3); got != "三" {
		t.Fatalf("Get(3) = %q", got)
	}
	if count := buffer.FilledCount(); count != 3 {
		t.Fatalf("FilledCount = %d, want 3", count)
	}
}

func TestBufferMergeLengthMismatch(t *testing.T) {
	buffer := NewBuffer(3, nil)

	err := buffer.Merge([]int{1, 2}, []string{"一"})
	if err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}

func TestBufferMergeOutOfRange(t *testing.T) {
	buffer := NewBuffer(3, nil)

	for _, index := range []int{0, 4, -1} {
		err := buffer.Merge([]int{index}, []string{"x"})
		if err == nil {
			t.Fatalf("expected error for index %d", index)
		}
		if !strings.Contains(err.Error(), "outside 1..3") {
			t.Fatalf("error %q does not name the valid range", err)
		}
	}
}

func TestBufferMissingIndices(t *testing.T) {
	buffer := NewBuffer(5, nil)

	if err := buffer.Merge([]int{1, 3, 5}, []string{"一", "三", "五"}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	missing := buffer.MissingIndices()
	if len(missing) != 2 || missing[0] != 2 || missing[1] != 4 {
		t.Fatalf("MissingIndices = %v, want [2 4]", missing)
	}
	filled := buffer.FilledIndices()
	if len(filled) != 3 || filled[0] != 1 || filled[2] != 5 {
		t.Fatalf("FilledIndices = %v, want [1 3 5]", filled)
	}
}

func TestBufferReopen(t *testing.T) {
	buffer := NewBuffer(3, nil)

	if err := buffer.Merge([]int{1, 2, 3}, []string{"一", "[UNTRANSLATED]", "三"}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	buffer.Reopen([]int{2})
	if _, ok := buffer.Get(2); ok {
		t.Fatal("reopened index should read as missing")
	}
	if missing := buffer.MissingIndices(); len(missing) != 1 || missing[0] != 2 {
		t.Fatalf("MissingIndices = %v, want [2]", missing)
	}

	if err := buffer.Merge([]int{2}, []string{"二"}); err != nil {
		t.Fatalf("merge after reopen: %v", err)
	}
	if got, _ := buffer.Get(2); got != "二" {
		t.Fatalf("Get(2) = %q after repair", got)
	}
}

func TestBufferConcurrentDisjointMerges(t *testing.T) {
	const blocks = 120
	buffer := NewBuffer(blocks, nil)

	var wg sync.WaitGroup
	for start := 1; start <= blocks; start += 10 {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			indices := make([]int, 0, 10)
			texts := make([]string, 0, 10)
			for i := start; i < start+10; i++ {
				indices = append(indices, i)
				texts = append(texts, fmt.Sprintf("第%d句", i))
			}
			if err := buffer.Merge(indices, texts); err != nil {
				t.Errorf("merge %d: %v", start, err)
			}
		}(start)
	}
	wg.Wait()

	if count := buffer.FilledCount(); count != blocks {
		t.Fatalf("FilledCount = %d, want %d", count, blocks)
	}
	for i := 1; i <= blocks; i++ {
		got, ok := buffer.Get(i)
		if !ok || got != fmt.Sprintf("第%d句", i) {
			t.Fatalf("Get(%d) = %q, %v", i, got, ok)
		}
	}
}
