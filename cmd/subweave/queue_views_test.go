package main

import (
	"testing"

	"subweave/internal/ipc"
)

func TestFormatStatusLabel(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"pending", "Pending"},
		{"transcribing", "Transcribing"},
		{"review", "Review"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := formatStatusLabel(tc.in); got != tc.want {
			t.Errorf("formatStatusLabel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildQueueListRowsSortsNewestFirst(t *testing.T) {
	items := []ipc.QueueItem{
		{ID: 1, Title: "Older", Status: "pending", CreatedAt: "2026-08-01T10:00:00Z"},
		{ID: 2, Title: "Newer", Status: "completed", CreatedAt: "2026-08-02T10:00:00Z"},
	}
	rows := buildQueueListRows(items)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][1] != "Newer" {
		t.Fatalf("expected newest item first, got %q", rows[0][1])
	}
	if rows[1][3] != "-" {
		t.Fatalf("expected dash for empty target, got %q", rows[1][3])
	}
}

func TestBuildQueueListRowsTitleFallback(t *testing.T) {
	items := []ipc.QueueItem{
		{ID: 3, Source: "/media/in/movie.mkv", Status: "fetched", CreatedAt: "2026-08-03T10:00:00Z"},
	}
	rows := buildQueueListRows(items)
	if rows[0][1] != "movie.mkv" {
		t.Fatalf("expected source basename fallback, got %q", rows[0][1])
	}
}

func TestBuildQueueStatusRowsSorted(t *testing.T) {
	rows := buildQueueStatusRows(map[string]int{
		"pending":   2,
		"completed": 1,
	})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Completed" || rows[1][0] != "Pending" {
		t.Fatalf("expected alphabetical status order, got %v", rows)
	}
}
