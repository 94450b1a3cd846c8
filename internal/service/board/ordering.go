package board

import (
	"sort"

	"github.com/glideclouds/taskboard-api/internal/domain"
	"github.com/google/uuid"
)

// Column ordering model: every task sits in a (status, pinned) segment
// and positions are dense per segment, 0..n-1. Clients address drop
// targets by a combined column index spanning pinned then unpinned
// rows, so the index has to be translated into a segment index before
// inserting.

// sortColumn orders one column for display: pinned segment first, each
// segment by position ascending.
func sortColumn(column []*domain.Task) {
	sort.SliceStable(column, func(i, j int) bool {
		if column[i].Pinned != column[j].Pinned {
			return column[i].Pinned
		}
		return column[i].Position < column[j].Position
	})
}

// sortBoard orders a full board: status (TODO, IN_PROGRESS, DONE),
// then pinned segment first, then position ascending.
func sortBoard(tasks []*domain.Task) {
	rank := map[domain.TaskStatus]int{
		domain.TaskStatusTodo:       0,
		domain.TaskStatusInProgress: 1,
		domain.TaskStatusDone:       2,
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		ri, rj := rank[tasks[i].Status], rank[tasks[j].Status]
		if ri != rj {
			return ri < rj
		}
		if tasks[i].Pinned != tasks[j].Pinned {
			return tasks[i].Pinned
		}
		return tasks[i].Position < tasks[j].Position
	})
}

// nextPosition returns the position for a task appended to the given
// pinned segment of a column: one past the current maximum, or 0 for
// an empty segment.
func nextPosition(column []*domain.Task, pinned bool) int {
	max := -1
	for _, t := range column {
		if t.Pinned == pinned && t.Position > max {
			max = t.Position
		}
	}
	return max + 1
}

// clampToSegmentIndex translates a combined column index (counting
// pinned rows first) into an index within the target segment. Indexes
// past the segment end mean append; negative means prepend.
func clampToSegmentIndex(column []*domain.Task, pinnedSegment bool, combinedIndex int) int {
	pinnedCount := 0
	for _, t := range column {
		if t.Pinned {
			pinnedCount++
		}
	}
	if pinnedSegment {
		if combinedIndex < 0 {
			return 0
		}
		if combinedIndex > pinnedCount {
			return pinnedCount
		}
		return combinedIndex
	}
	idx := combinedIndex - pinnedCount
	if idx < 0 {
		return 0
	}
	return idx
}

// insertIntoSegment places the task at segmentIndex within its pinned
// or unpinned segment and returns the column rebuilt pinned-first.
// The index is clamped to the segment bounds.
func insertIntoSegment(column []*domain.Task, task *domain.Task, segmentIndex int, pinnedSegment bool) []*domain.Task {
	var pinned, unpinned []*domain.Task
	for _, t := range column {
		if t.Pinned {
			pinned = append(pinned, t)
		} else {
			unpinned = append(unpinned, t)
		}
	}

	insert := func(segment []*domain.Task) []*domain.Task {
		idx := segmentIndex
		if idx < 0 {
			idx = 0
		}
		if idx > len(segment) {
			idx = len(segment)
		}
		segment = append(segment, nil)
		copy(segment[idx+1:], segment[idx:])
		segment[idx] = task
		return segment
	}

	if pinnedSegment {
		pinned = insert(pinned)
	} else {
		unpinned = insert(unpinned)
	}

	out := make([]*domain.Task, 0, len(pinned)+len(unpinned))
	out = append(out, pinned...)
	out = append(out, unpinned...)
	return out
}

// reindexSegments renumbers both segments of a column densely from 0,
// in current slice order. Safe to call repeatedly; already-dense
// columns come out unchanged.
func reindexSegments(column []*domain.Task) {
	p, u := 0, 0
	for _, t := range column {
		if t.Pinned {
			t.Position = p
			p++
		} else {
			t.Position = u
			u++
		}
	}
}

// removeFromColumn drops the task with the given ID from the column,
// preserving order of the rest.
func removeFromColumn(column []*domain.Task, id uuid.UUID) []*domain.Task {
	out := column[:0]
	for _, t := range column {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// reorderWithinColumn moves the task to the combined toIndex inside its
// own column without changing status. The column is rebuilt with the
// moved task's segment in its new order and both segments reindexed.
func reorderWithinColumn(column []*domain.Task, task *domain.Task, toIndex int, pinnedSegment bool) []*domain.Task {
	idx := clampToSegmentIndex(column, pinnedSegment, toIndex)
	rest := removeFromColumn(column, task.ID)
	out := insertIntoSegment(rest, task, idx, pinnedSegment)
	reindexSegments(out)
	return out
}
