package board

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/glideclouds/taskboard-api/internal/domain"
	"github.com/glideclouds/taskboard-api/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTaskStore is an in-memory TaskStore. It stores deep copies so
// service-side mutations only become visible through Save, matching
// real persistence.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	c.Labels = append([]string(nil), t.Labels...)
	c.BlockedByTaskIDs = append([]uuid.UUID(nil), t.BlockedByTaskIDs...)
	c.Checklist = append([]domain.ChecklistItem(nil), t.Checklist...)
	c.TimeLogs = append([]domain.TaskTimeLog(nil), t.TimeLogs...)
	c.Comments = append([]domain.TaskComment(nil), t.Comments...)
	c.Decisions = append([]domain.TaskDecision(nil), t.Decisions...)
	c.Activity = append([]domain.TaskActivity(nil), t.Activity...)
	return &c
}

func (f *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (f *fakeTaskStore) GetAllByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Task
	for _, id := range ids {
		if t, ok := f.tasks[id]; ok {
			out = append(out, cloneTask(t))
		}
	}
	return out, nil
}

func (f *fakeTaskStore) GetByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Task
	for _, t := range f.tasks {
		if t.OwnerUserID == ownerID {
			out = append(out, cloneTask(t))
		}
	}
	return out, nil
}

func (f *fakeTaskStore) GetByOwnerAndStatus(_ context.Context, ownerID uuid.UUID, status domain.TaskStatus) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Task
	for _, t := range f.tasks {
		if t.OwnerUserID == ownerID && t.Status == status {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeTaskStore) GetAll(_ context.Context) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Task
	for _, t := range f.tasks {
		out = append(out, cloneTask(t))
	}
	return out, nil
}

func (f *fakeTaskStore) Save(_ context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[task.ID] = cloneTask(task)
	return nil
}

func (f *fakeTaskStore) SaveAll(_ context.Context, tasks []*domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range tasks {
		f.tasks[t.ID] = cloneTask(t)
	}
	return nil
}

func (f *fakeTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskStore) WithTx(_ *sql.Tx) store.TaskStore { return f }

// fakeDiscussionStore is an in-memory DiscussionStore.
type fakeDiscussionStore struct {
	mu          sync.Mutex
	discussions map[uuid.UUID]*domain.Discussion
}

func newFakeDiscussionStore() *fakeDiscussionStore {
	return &fakeDiscussionStore{discussions: make(map[uuid.UUID]*domain.Discussion)}
}

func cloneDiscussion(d *domain.Discussion) *domain.Discussion {
	c := *d
	c.Comments = append([]domain.TaskComment(nil), d.Comments...)
	c.Decisions = append([]domain.TaskDecision(nil), d.Decisions...)
	return &c
}

func (f *fakeDiscussionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Discussion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.discussions[id]
	if !ok {
		return nil, store.ErrDiscussionNotFound
	}
	return cloneDiscussion(d), nil
}

func (f *fakeDiscussionStore) GetAllByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Discussion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Discussion
	for _, id := range ids {
		if d, ok := f.discussions[id]; ok {
			out = append(out, cloneDiscussion(d))
		}
	}
	return out, nil
}

func (f *fakeDiscussionStore) Save(_ context.Context, d *domain.Discussion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discussions[d.ID] = cloneDiscussion(d)
	return nil
}

func (f *fakeDiscussionStore) WithTx(_ *sql.Tx) store.DiscussionStore { return f }

func newTestService(t *testing.T) (*Service, *fakeTaskStore, *fakeDiscussionStore, *FakeClock) {
	t.Helper()
	tasks := newFakeTaskStore()
	discussions := newFakeDiscussionStore()
	clock := NewFakeClock(time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC))
	svc := NewService(tasks, discussions, nil, clock, 1, nil)
	return svc, tasks, discussions, clock
}

func actorFor(id uuid.UUID) Actor {
	return Actor{UserID: id, Email: "user@example.com"}
}

func adminActor() Actor {
	return Actor{UserID: uuid.New(), Email: "admin@example.com", IsAdmin: true}
}

func TestCreateAssignsDenseTailPositions(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	actor := actorFor(uuid.New())

	var created []*TaskView
	for _, title := range []string{"first", "second", "third"} {
		v, err := svc.Create(ctx, actor, CreateTaskRequest{Title: title})
		require.NoError(t, err)
		created = append(created, v)
	}

	for i, v := range created {
		assert.Equal(t, i, v.Task.Position)
		assert.Equal(t, domain.TaskStatusTodo, v.Task.Status)
		assert.False(t, v.Task.Pinned)
	}
}

func TestListSortsPinnedSegmentFirst(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	owner := uuid.New()
	actor := actorFor(owner)
	admin := adminActor()

	own, err := svc.Create(ctx, actor, CreateTaskRequest{Title: "own task"})
	require.NoError(t, err)

	assigned, err := svc.AssignTask(ctx, admin, owner, AssignTaskRequest{Title: "assigned task"})
	require.NoError(t, err)
	require.True(t, assigned.Task.Pinned)

	views, err := svc.List(ctx, actor)
	require.NoError(t, err)
	require.Len(t, views, 2)

	// The pinned assigned task renders above the owner's own task even
	// though both are at position 0 of their segments.
	assert.Equal(t, assigned.Task.ID, views[0].Task.ID)
	assert.Equal(t, own.Task.ID, views[1].Task.ID)
	assert.Equal(t, 0, views[0].Task.Position)
	assert.Equal(t, 0, views[1].Task.Position)
}

func TestMoveStatusConflictLeavesPositionsUnchanged(t *testing.T) {
	t.Parallel()
	svc, tasks, _, _ := newTestService(t)
	ctx := context.Background()
	actor := actorFor(uuid.New())

	a, err := svc.Create(ctx, actor, CreateTaskRequest{Title: "a"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, actor, CreateTaskRequest{Title: "b"})
	require.NoError(t, err)

	_, err = svc.Move(ctx, actor, MoveTaskRequest{
		TaskID:     a.Task.ID,
		FromStatus: domain.TaskStatusInProgress, // stale: task is in TODO
		ToStatus:   domain.TaskStatusDone,
		ToIndex:    0,
	})
	require.ErrorIs(t, err, ErrConflict)

	gotA, err := tasks.GetByID(ctx, a.Task.ID)
	require.NoError(t, err)
	gotB, err := tasks.GetByID(ctx, b.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusTodo, gotA.Status)
	assert.Equal(t, 0, gotA.Position)
	assert.Equal(t, 1, gotB.Position)
}

func TestMoveAcrossColumnsReindexesBoth(t *testing.T) {
	t.Parallel()
	svc, tasks, _, _ := newTestService(t)
	ctx := context.Background()
	actor := actorFor(uuid.New())

	a, err := svc.Create(ctx, actor, CreateTaskRequest{Title: "a"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, actor, CreateTaskRequest{Title: "b"})
	require.NoError(t, err)

	views, err := svc.Move(ctx, actor, MoveTaskRequest{
		TaskID:     a.Task.ID,
		FromStatus: domain.TaskStatusTodo,
		ToStatus:   domain.TaskStatusInProgress,
		ToIndex:    0,
	})
	require.NoError(t, err)
	require.Len(t, views, 2)

	gotA, err := tasks.GetByID(ctx, a.Task.ID)
	require.NoError(t, err)
	gotB, err := tasks.GetByID(ctx, b.Task.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusInProgress, gotA.Status)
	assert.Equal(t, 0, gotA.Position)
	// The vacated column closes its gap.
	assert.Equal(t, domain.TaskStatusTodo, gotB.Status)
	assert.Equal(t, 0, gotB.Position)
}

func TestMoveToDoneStampsCompletionAndSpawnsRecurrence(t *testing.T) {
	t.Parallel()
	svc, tasks, _, clock := newTestService(t)
	ctx := context.Background()
	actor := actorFor(uuid.New())

	due := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	v, err := svc.Create(ctx, actor, CreateTaskRequest{Title: "water plants", DueDate: &due})
	require.NoError(t, err)
	_, err = svc.UpdateRecurrence(ctx, actor, v.Task.ID, UpdateRecurrenceRequest{
		Frequency: freqPtr(domain.RecurrenceDaily),
	})
	require.NoError(t, err)

	_, err = svc.Move(ctx, actor, MoveTaskRequest{
		TaskID:     v.Task.ID,
		FromStatus: domain.TaskStatusTodo,
		ToStatus:   domain.TaskStatusDone,
		ToIndex:    0,
	})
	require.NoError(t, err)

	done, err := tasks.GetByID(ctx, v.Task.ID)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, clock.Now(), *done.CompletedAt)

	todo, err := tasks.GetByOwnerAndStatus(ctx, actor.UserID, domain.TaskStatusTodo)
	require.NoError(t, err)
	require.Len(t, todo, 1, "next recurring instance should be in TODO")
	next := todo[0]
	assert.Equal(t, "water plants", next.Title)
	assert.False(t, next.Pinned)
	assert.Equal(t, 0, next.Position)
	require.NotNil(t, next.DueDate)
	assert.Equal(t, due.AddDate(0, 0, 1), *next.DueDate)
	require.NotNil(t, next.Recurrence)
}

func TestDeleteGuardParityDirectAndBulk(t *testing.T) {
	t.Parallel()
	svc, tasks, _, _ := newTestService(t)
	ctx := context.Background()
	owner := uuid.New()
	actor := actorFor(owner)
	admin := adminActor()

	assigned, err := svc.AssignTask(ctx, admin, owner, AssignTaskRequest{Title: "mandated"})
	require.NoError(t, err)

	err = svc.Delete(ctx, actor, assigned.Task.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Bulk(ctx, actor, BulkRequest{
		Action:  BulkActionDelete,
		TaskIDs: []uuid.UUID{assigned.Task.ID},
	})
	require.NoError(t, err)

	// Both paths leave the assigned task in place.
	_, err = tasks.GetByID(ctx, assigned.Task.ID)
	require.NoError(t, err)
}

func TestBulkSetStatusReindexesTouchedColumns(t *testing.T) {
	t.Parallel()
	svc, tasks, _, _ := newTestService(t)
	ctx := context.Background()
	actor := actorFor(uuid.New())

	a, err := svc.Create(ctx, actor, CreateTaskRequest{Title: "a"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, actor, CreateTaskRequest{Title: "b"})
	require.NoError(t, err)
	c, err := svc.Create(ctx, actor, CreateTaskRequest{Title: "c"})
	require.NoError(t, err)

	_, err = svc.Bulk(ctx, actor, BulkRequest{
		Action:  BulkActionSetStatus,
		TaskIDs: []uuid.UUID{a.Task.ID, c.Task.ID},
		Status:  domain.TaskStatusInProgress,
	})
	require.NoError(t, err)

	inProgress, err := tasks.GetByOwnerAndStatus(ctx, actor.UserID, domain.TaskStatusInProgress)
	require.NoError(t, err)
	require.Len(t, inProgress, 2)
	for i, task := range inProgress {
		assert.Equal(t, i, task.Position, "moved rows must be renumbered, not parked")
	}

	todo, err := tasks.GetByOwnerAndStatus(ctx, actor.UserID, domain.TaskStatusTodo)
	require.NoError(t, err)
	require.Len(t, todo, 1)
	assert.Equal(t, b.Task.ID, todo[0].ID)
	assert.Equal(t, 0, todo[0].Position)
}

func TestBulkMissingParameterAbortsBeforeAnyRow(t *testing.T) {
	t.Parallel()
	svc, tasks, _, _ := newTestService(t)
	ctx := context.Background()
	actor := actorFor(uuid.New())

	a, err := svc.Create(ctx, actor, CreateTaskRequest{Title: "a"})
	require.NoError(t, err)

	_, err = svc.Bulk(ctx, actor, BulkRequest{
		Action:  BulkActionSetStatus,
		TaskIDs: []uuid.UUID{a.Task.ID},
	})
	require.ErrorIs(t, err, ErrInvalidRequest)

	got, err := tasks.GetByID(ctx, a.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusTodo, got.Status)
}

func TestAutoArchiveBoundary(t *testing.T) {
	t.Parallel()
	svc, tasks, _, clock := newTestService(t)
	ctx := context.Background()
	actor := actorFor(uuid.New())

	mk := func(title string, completedAt time.Time) uuid.UUID {
		v, err := svc.Create(ctx, actor, CreateTaskRequest{Title: title})
		require.NoError(t, err)
		task, err := tasks.GetByID(ctx, v.Task.ID)
		require.NoError(t, err)
		task.Status = domain.TaskStatusDone
		task.CompletedAt = &completedAt
		require.NoError(t, tasks.Save(ctx, task))
		return task.ID
	}

	cutoff := clock.Now().Add(-24 * time.Hour)
	atCutoff := mk("exactly at cutoff", cutoff)
	justInside := mk("one ms after cutoff", cutoff.Add(time.Millisecond))

	_, err := svc.List(ctx, actor)
	require.NoError(t, err)

	archived, err := tasks.GetByID(ctx, atCutoff)
	require.NoError(t, err)
	assert.True(t, archived.Archived, "completion exactly at the cutoff must archive")
	require.NotNil(t, archived.ArchivedAt)

	kept, err := tasks.GetByID(ctx, justInside)
	require.NoError(t, err)
	assert.False(t, kept.Archived, "completion after the cutoff must stay")
}

func TestTimerLifecycle(t *testing.T) {
	t.Parallel()
	svc, _, _, clock := newTestService(t)
	ctx := context.Background()
	actor := actorFor(uuid.New())

	v, err := svc.Create(ctx, actor, CreateTaskRequest{Title: "deep work"})
	require.NoError(t, err)

	_, err = svc.StopTimer(ctx, actor, v.Task.ID, "")
	require.ErrorIs(t, err, ErrConflict, "stop without a running timer conflicts")

	_, err = svc.StartTimer(ctx, actor, v.Task.ID)
	require.NoError(t, err)
	_, err = svc.StartTimer(ctx, actor, v.Task.ID)
	require.ErrorIs(t, err, ErrConflict, "second start conflicts")

	clock.Advance(25 * time.Second)
	stopped, err := svc.StopTimer(ctx, actor, v.Task.ID, "short burst")
	require.NoError(t, err)
	require.Len(t, stopped.Task.TimeLogs, 1)
	assert.Equal(t, int64(1), stopped.Task.TimeLogs[0].DurationMinutes, "sub-minute intervals round up to one")
	assert.Nil(t, stopped.Task.ActiveTimerStartedAt)

	_, err = svc.StartTimer(ctx, actor, v.Task.ID)
	require.NoError(t, err)
	clock.Advance(90 * time.Minute)
	stopped, err = svc.StopTimer(ctx, actor, v.Task.ID, "")
	require.NoError(t, err)
	require.Len(t, stopped.Task.TimeLogs, 2)
	assert.Equal(t, int64(90), stopped.Task.TimeLogs[1].DurationMinutes)
	assert.Equal(t, int64(91), stopped.Task.TotalLoggedMinutes())
}

func TestGroupAssignmentSharesDiscussion(t *testing.T) {
	t.Parallel()
	svc, _, discussions, _ := newTestService(t)
	ctx := context.Background()
	admin := adminActor()
	alice := uuid.New()
	bob := uuid.New()

	views, err := svc.AssignTaskToGroup(ctx, admin, []uuid.UUID{alice, bob}, AssignTaskRequest{Title: "quarterly report"})
	require.NoError(t, err)
	require.Len(t, views, 2)

	first := views[0].Task
	second := views[1].Task
	require.NotNil(t, first.SharedDiscussionID)
	require.NotNil(t, second.SharedDiscussionID)
	assert.Equal(t, *first.SharedDiscussionID, *second.SharedDiscussionID)

	// A comment from one assignee is visible on the other's copy.
	_, err = svc.AddComment(ctx, actorFor(alice), first.ID, "started the draft")
	require.NoError(t, err)

	bobView, err := svc.Get(ctx, actorFor(bob), second.ID)
	require.NoError(t, err)
	require.Len(t, bobView.Comments, 1)
	assert.Equal(t, "started the draft", bobView.Comments[0].Message)

	stored, err := discussions.GetByID(ctx, *first.SharedDiscussionID)
	require.NoError(t, err)
	assert.Len(t, stored.Comments, 1)
}

func TestChecklistReorderKeepsUnmentionedAtTail(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	actor := actorFor(uuid.New())

	v, err := svc.Create(ctx, actor, CreateTaskRequest{Title: "setup"})
	require.NoError(t, err)
	for _, text := range []string{"one", "two", "three", "four"} {
		v, err = svc.AddChecklistItem(ctx, actor, v.Task.ID, text)
		require.NoError(t, err)
	}

	items := v.Task.Checklist
	require.Len(t, items, 4)

	// Mention only "three" and "one"; "two" and "four" keep their
	// relative order after them.
	reordered, err := svc.ReorderChecklist(ctx, actor, v.Task.ID, []uuid.UUID{items[2].ID, items[0].ID})
	require.NoError(t, err)

	byText := make(map[string]int)
	for _, item := range reordered.Task.Checklist {
		byText[item.Text] = item.Position
	}
	assert.Equal(t, 0, byText["three"])
	assert.Equal(t, 1, byText["one"])
	assert.Equal(t, 2, byText["two"])
	assert.Equal(t, 3, byText["four"])
}

func TestUpdateDependenciesValidation(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	actor := actorFor(uuid.New())
	other := actorFor(uuid.New())

	mine, err := svc.Create(ctx, actor, CreateTaskRequest{Title: "mine"})
	require.NoError(t, err)
	dep, err := svc.Create(ctx, actor, CreateTaskRequest{Title: "dep"})
	require.NoError(t, err)
	foreign, err := svc.Create(ctx, other, CreateTaskRequest{Title: "foreign"})
	require.NoError(t, err)

	// Self references and duplicates are dropped silently.
	updated, err := svc.UpdateDependencies(ctx, actor, mine.Task.ID,
		[]uuid.UUID{mine.Task.ID, dep.Task.ID, dep.Task.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{dep.Task.ID}, updated.Task.BlockedByTaskIDs)

	_, err = svc.UpdateDependencies(ctx, actor, mine.Task.ID, []uuid.UUID{uuid.New()})
	require.ErrorIs(t, err, ErrInvalidRequest, "unknown dependency")

	_, err = svc.UpdateDependencies(ctx, actor, mine.Task.ID, []uuid.UUID{foreign.Task.ID})
	require.ErrorIs(t, err, ErrInvalidRequest, "cross-owner dependency")
}

func TestSearchMatchesLabelsAndComments(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	actor := actorFor(uuid.New())

	a, err := svc.Create(ctx, actor, CreateTaskRequest{Title: "write report"})
	require.NoError(t, err)
	_, err = svc.UpdateLabels(ctx, actor, a.Task.ID, []string{"Finance"})
	require.NoError(t, err)

	b, err := svc.Create(ctx, actor, CreateTaskRequest{Title: "fix bug"})
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, actor, b.Task.ID, "blocked on the finance export")
	require.NoError(t, err)

	_, err = svc.Create(ctx, actor, CreateTaskRequest{Title: "unrelated"})
	require.NoError(t, err)

	found, err := svc.Search(ctx, actor, "finance")
	require.NoError(t, err)
	require.Len(t, found, 2)

	all, err := svc.Search(ctx, actor, "   ")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestForbiddenForNonOwner(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	owner := actorFor(uuid.New())
	stranger := actorFor(uuid.New())

	v, err := svc.Create(ctx, owner, CreateTaskRequest{Title: "private"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, stranger, v.Task.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, stranger, v.Task.ID, UpdateTaskRequest{Title: "hijack"})
	require.ErrorIs(t, err, ErrForbidden)

	err = svc.Delete(ctx, stranger, v.Task.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.AddComment(ctx, stranger, v.Task.ID, "hello")
	require.ErrorIs(t, err, ErrForbidden)
}

func freqPtr(f domain.RecurrenceFrequency) *domain.RecurrenceFrequency { return &f }
