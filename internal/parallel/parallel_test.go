package parallel

import (
	"errors"
	"sync/atomic"
	"testing"
)

// TestBandsCoverRows verifies that bands are contiguous and cover every row once
func TestBandsCoverRows(t *testing.T) {
	testCases := []struct {
		rows, workers int
	}{
		{1, 4},
		{10, 3},
		{100, 8},
		{7, 7},
		{5, 0},
	}

	for _, tc := range testCases {
		bands := Bands(tc.rows, tc.workers)
		next := 0
		for i, b := range bands {
			if b.Index != i {
				t.Errorf("Bands(%d,%d): band %d has index %d", tc.rows, tc.workers, i, b.Index)
			}
			if b.Start != next {
				t.Errorf("Bands(%d,%d): band %d starts at %d, expected %d", tc.rows, tc.workers, i, b.Start, next)
			}
			if b.End <= b.Start {
				t.Errorf("Bands(%d,%d): band %d is empty", tc.rows, tc.workers, i)
			}
			next = b.End
		}
		if next != tc.rows {
			t.Errorf("Bands(%d,%d): covered %d rows", tc.rows, tc.workers, next)
		}
	}

	if Bands(0, 4) != nil {
		t.Errorf("Bands(0, 4) should be nil")
	}
}

// TestForEach verifies that every index is visited and errors propagate
func TestForEach(t *testing.T) {
	var visited [50]int32
	if err := ForEach(len(visited), 4, func(i int) error {
		atomic.AddInt32(&visited[i], 1)
		return nil
	}); err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}
	for i, v := range visited {
		if v != 1 {
			t.Errorf("index %d visited %d times", i, v)
		}
	}

	boom := errors.New("boom")
	err := ForEachBand(20, 3, func(b Band) error {
		if b.Index == 1 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom error, got %v", err)
	}
}

// TestRows verifies that every row is visited exactly once
func TestRows(t *testing.T) {
	for _, workers := range []int{1, 3, 0} {
		var visited [17]int32
		Rows(len(visited), workers, func(b Band) {
			for y := b.Start; y < b.End; y++ {
				atomic.AddInt32(&visited[y], 1)
			}
		})
		for y, v := range visited {
			if v != 1 {
				t.Errorf("workers %d: row %d visited %d times", workers, y, v)
			}
		}
	}
}
