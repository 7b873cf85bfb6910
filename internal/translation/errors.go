package translation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// BackendError reports a transport or provider failure after the backend
// exhausted its own retry budget. The chunk may succeed on a later pass.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("translation backend %s: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// CountMismatchError reports a reply that did not return exactly one line per
// authoritative block.
type CountMismatchError struct {
	Indices []int
	Want    int
	Got     int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("translation count mismatch: want %d lines, got %d (blocks %s)",
		e.Want, e.Got, FormatIndexRanges(e.Indices))
}

// EmptyTranslationError reports non-empty source blocks that came back empty.
type EmptyTranslationError struct {
	Indices []int
}

func (e *EmptyTranslationError) Error() string {
	return fmt.Sprintf("translation empty: blocks %s returned no text", FormatIndexRanges(e.Indices))
}

// UnrecoverableSyncError is the chunk-level escalation raised when the strict
// re-instruction also failed to produce an aligned reply. It names every
// affected block index so the failure is actionable without re-running the
// whole transcript.
type UnrecoverableSyncError struct {
	Indices []int
	Err     error
}

func (e *UnrecoverableSyncError) Error() string {
	return fmt.Sprintf("translation sync unrecoverable for blocks %s: %v",
		FormatIndexRanges(e.Indices), e.Err)
}

func (e *UnrecoverableSyncError) Unwrap() error { return e.Err }

// ChunkFailure pairs a failed chunk with its terminal error.
type ChunkFailure struct {
	Chunk   int
	Indices []int
	Err     error
}

// RunError aggregates every chunk left unresolved after the repair budget was
// spent. Independent chunks keep translating when one fails, so a single run
// reports all failed ranges at once.
type RunError struct {
	Failures []ChunkFailure
}

func (e *RunError) Error() string {
	if len(e.Failures) == 0 {
		return "translation run failed"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, failure := range e.Failures {
		parts = append(parts, fmt.Sprintf("blocks %s: %v", FormatIndexRanges(failure.Indices), failure.Err))
	}
	return fmt.Sprintf("translation failed for %d chunk(s): %s", len(e.Failures), strings.Join(parts, "; "))
}

// Unwrap exposes the per-chunk errors to errors.Is and errors.As.
func (e *RunError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, failure := range e.Failures {
		errs = append(errs, failure.Err)
	}
	return errs
}

// FailedIndices returns the union of all failed block indices in order.
func (e *RunError) FailedIndices() []int {
	seen := make(map[int]struct{})
	var indices []int
	for _, failure := range e.Failures {
		for _, index := range failure.Indices {
			if _, ok := seen[index]; ok {
				continue
			}
			seen[index] = struct{}{}
			indices = append(indices, index)
		}
	}
	sort.Ints(indices)
	return indices
}

// failureSet collects chunk failures across concurrent workers.
type failureSet struct {
	mu       sync.Mutex
	failures []ChunkFailure
}

func newFailureSet() *failureSet { return &failureSet{} }

func (s *failureSet) record(chunk Chunk, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, ChunkFailure{Chunk: chunk.Seq, Indices: chunk.Indices(), Err: err})
}

// runError builds the aggregate error for indices that stayed unfilled.
// Recorded failures whose blocks were all repaired since are dropped; missing
// indices nothing was recorded for get a generic entry so the report always
// covers every missing block.
func (s *failureSet) runError(missing []int) *RunError {
	s.mu.Lock()
	defer s.mu.Unlock()

	missingSet := make(map[int]struct{}, len(missing))
	for _, index := range missing {
		missingSet[index] = struct{}{}
	}

	var kept []ChunkFailure
	covered := make(map[int]struct{})
	for _, failure := range s.failures {
		relevant := false
		for _, index := range failure.Indices {
			if _, ok := missingSet[index]; ok {
				relevant = true
				covered[index] = struct{}{}
			}
		}
		if relevant {
			kept = append(kept, failure)
		}
	}

	var orphans []int
	for _, index := range missing {
		if _, ok := covered[index]; !ok {
			orphans = append(orphans, index)
		}
	}
	if len(orphans) > 0 {
		kept = append(kept, ChunkFailure{Chunk: -1, Indices: orphans, Err: errors.New("no translation produced")})
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Chunk < kept[j].Chunk })
	return &RunError{Failures: kept}
}

// FormatIndexRanges renders block indices compactly: 1,2,3,7 becomes "1-3, 7".
func FormatIndexRanges(indices []int) string {
	if len(indices) == 0 {
		return "none"
	}
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)
	var parts []string
	start, prev := sorted[0], sorted[0]
	flush := func() {
		if start == prev {
			parts = append(parts, fmt.Sprintf("%d", start))
			return
		}
		parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
	}
	for _, index := range sorted[1:] {
		if index == prev || index == prev+1 {
			prev = index
			continue
		}
		flush()
		start, prev = index, index
	}
	flush()
	return strings.Join(parts, ", ")
}
