package gapmap

import (
	"strings"
	"testing"

	"dvdgap/internal/gapplan"
)

func TestAccumulatorAdvancesGlobalBase(t *testing.T) {
	acc := New()

	p1 := gapplan.New()
	p1.Add(3, 2)
	base1 := acc.AddFile(p1, 10, 10)
	if base1 != 0 {
		t.Fatalf("first file base = %d, want 0", base1)
	}

	p2 := gapplan.New()
	p2.Add(1, 1)
	base2 := acc.AddFile(p2, 5, 8) // existing 5 < expected 8 -> truncated tail recorded too
	if base2 != 10 {
		t.Fatalf("second file base = %d, want 10", base2)
	}

	entries := acc.Entries()
	want := []Entry{
		{GlobalStart: 3, Count: 2},
		{GlobalStart: 11, Count: 1},
		{GlobalStart: 15, Count: 3}, // base2+existing(5) = 15, count = 8-5=3
	}
	if len(entries) != len(want) {
		t.Fatalf("entries = %v, want %v", entries, want)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entries[%d] = %+v, want %+v", i, entries[i], want[i])
		}
	}
	if acc.TotalBlocks() != 18 {
		t.Errorf("TotalBlocks = %d, want 18", acc.TotalBlocks())
	}
}

func TestRenderProducesFixedGrid(t *testing.T) {
	out := Render(nil, 1000)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != rows {
		t.Fatalf("got %d rows, want %d", len(lines), rows)
	}
	for _, line := range lines {
		if len(line) != cols+2 { // plus the two bracketing '|'
			t.Errorf("row length = %d, want %d: %q", len(line), cols+2, line)
		}
		if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") {
			t.Errorf("row not bracketed with '|': %q", line)
		}
	}
}

func TestRenderMarksEntries(t *testing.T) {
	entries := []Entry{{GlobalStart: 0, Count: 1}}
	out := Render(entries, 1000)
	if !strings.Contains(out, "#") {
		t.Errorf("expected at least one marked cell, got:\n%s", out)
	}
}

func TestRenderEmptyTotalBlocksIsAllDots(t *testing.T) {
	out := Render([]Entry{{GlobalStart: 0, Count: 5}}, 0)
	if strings.Contains(out, "#") {
		t.Errorf("expected no marks when totalBlocks is 0, got:\n%s", out)
	}
}
