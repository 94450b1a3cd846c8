package board

import (
	"testing"

	"github.com/glideclouds/taskboard-api/internal/domain"
	"github.com/google/uuid"
)

func col(tasks ...*domain.Task) []*domain.Task { return tasks }

func mkTask(pinned bool, position int) *domain.Task {
	return &domain.Task{
		ID:       uuid.New(),
		Status:   domain.TaskStatusTodo,
		Pinned:   pinned,
		Position: position,
	}
}

func TestSortColumn(t *testing.T) {
	t.Parallel()

	a := mkTask(false, 1)
	b := mkTask(true, 0)
	c := mkTask(false, 0)
	d := mkTask(true, 1)

	column := col(a, d, c, b)
	sortColumn(column)

	want := []*domain.Task{b, d, c, a}
	for i := range want {
		if column[i] != want[i] {
			t.Fatalf("position %d: got task pinned=%v pos=%d, want pinned=%v pos=%d",
				i, column[i].Pinned, column[i].Position, want[i].Pinned, want[i].Position)
		}
	}
}

func TestNextPosition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		column []*domain.Task
		pinned bool
		want   int
	}{
		{"empty column", nil, false, 0},
		{"empty segment", col(mkTask(true, 0), mkTask(true, 1)), false, 0},
		{"after existing", col(mkTask(false, 0), mkTask(false, 1)), false, 2},
		{"ignores other segment", col(mkTask(true, 5), mkTask(false, 1)), false, 2},
		{"gap tolerant", col(mkTask(false, 7)), false, 8},
		{"pinned segment", col(mkTask(true, 2), mkTask(false, 9)), true, 3},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := nextPosition(tc.column, tc.pinned); got != tc.want {
				t.Errorf("nextPosition() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestClampToSegmentIndex(t *testing.T) {
	t.Parallel()

	// Two pinned, three unpinned.
	column := col(mkTask(true, 0), mkTask(true, 1), mkTask(false, 0), mkTask(false, 1), mkTask(false, 2))

	tests := []struct {
		name          string
		pinnedSegment bool
		combined      int
		want          int
	}{
		{"pinned head", true, 0, 0},
		{"pinned tail", true, 2, 2},
		{"pinned past end clamps", true, 10, 2},
		{"pinned negative clamps", true, -3, 0},
		{"unpinned head", false, 2, 0},
		{"unpinned middle", false, 4, 2},
		{"unpinned before segment clamps", false, 1, 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := clampToSegmentIndex(column, tc.pinnedSegment, tc.combined); got != tc.want {
				t.Errorf("clampToSegmentIndex(%v, %d) = %d, want %d",
					tc.pinnedSegment, tc.combined, got, tc.want)
			}
		})
	}
}

func TestInsertIntoSegment(t *testing.T) {
	t.Parallel()

	p0 := mkTask(true, 0)
	u0 := mkTask(false, 0)
	u1 := mkTask(false, 1)
	incoming := mkTask(false, 99)

	out := insertIntoSegment(col(p0, u0, u1), incoming, 1, false)

	want := []*domain.Task{p0, u0, incoming, u1}
	if len(out) != len(want) {
		t.Fatalf("column length = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("slot %d: wrong task", i)
		}
	}
}

func TestReindexSegments(t *testing.T) {
	t.Parallel()

	t.Run("renumbers densely per segment", func(t *testing.T) {
		t.Parallel()
		p0 := mkTask(true, 4)
		p1 := mkTask(true, 9)
		u0 := mkTask(false, 3)
		u1 := mkTask(false, 8)
		column := col(p0, p1, u0, u1)

		reindexSegments(column)

		for i, task := range []*domain.Task{p0, p1} {
			if task.Position != i {
				t.Errorf("pinned[%d].Position = %d, want %d", i, task.Position, i)
			}
		}
		for i, task := range []*domain.Task{u0, u1} {
			if task.Position != i {
				t.Errorf("unpinned[%d].Position = %d, want %d", i, task.Position, i)
			}
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()
		column := col(mkTask(true, 0), mkTask(false, 0), mkTask(false, 1))

		reindexSegments(column)
		first := snapshotPositions(column)
		reindexSegments(column)
		second := snapshotPositions(column)

		for i := range first {
			if first[i] != second[i] {
				t.Errorf("reindex not idempotent at %d: %d then %d", i, first[i], second[i])
			}
		}
	})
}

func TestReorderWithinColumn(t *testing.T) {
	t.Parallel()

	p0 := mkTask(true, 0)
	u0 := mkTask(false, 0)
	u1 := mkTask(false, 1)
	u2 := mkTask(false, 2)

	// Move u2 to combined index 1, which clamps into the head of the
	// unpinned segment.
	out := reorderWithinColumn(col(p0, u0, u1, u2), u2, 1, false)

	want := []*domain.Task{p0, u2, u0, u1}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("slot %d: wrong task after reorder", i)
		}
	}
	for i, task := range []*domain.Task{u2, u0, u1} {
		if task.Position != i {
			t.Errorf("unpinned[%d].Position = %d, want %d", i, task.Position, i)
		}
	}
	if p0.Position != 0 {
		t.Errorf("pinned position = %d, want 0", p0.Position)
	}
}

func snapshotPositions(column []*domain.Task) []int {
	out := make([]int, len(column))
	for i, t := range column {
		out[i] = t.Position
	}
	return out
}
