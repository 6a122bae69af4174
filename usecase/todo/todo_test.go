package todo

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/fastygo/todo/domain"
)

// memoryRepository is a minimal in-memory TodoRepository.
type memoryRepository struct {
	todos      map[int64]domain.Todo
	nextID     int64
	lastFilter domain.TodoFilter
	err        error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{todos: make(map[int64]domain.Todo)}
}

func (m *memoryRepository) GetByID(ctx context.Context, id int64) (*domain.Todo, error) {
	todo, ok := m.todos[id]
	if !ok {
		return nil, domain.ErrTodoNotFound
	}
	return &todo, nil
}

func (m *memoryRepository) List(ctx context.Context, filter domain.TodoFilter) ([]domain.Todo, error) {
	m.lastFilter = filter
	out := make([]domain.Todo, 0)
	for id := int64(1); id <= m.nextID; id++ {
		if todo, ok := m.todos[id]; ok && filter.Matches(todo) {
			out = append(out, todo)
		}
	}
	return out, nil
}

func (m *memoryRepository) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	created := *todo
	created.ID = m.nextID
	m.todos[created.ID] = created
	return &created, nil
}

func (m *memoryRepository) Update(ctx context.Context, id int64, patch domain.TodoPatch) (*domain.Todo, error) {
	todo, ok := m.todos[id]
	if !ok {
		return nil, domain.ErrTodoNotFound
	}
	patch.Apply(&todo)
	m.todos[id] = todo
	return &todo, nil
}

func (m *memoryRepository) Delete(ctx context.Context, id int64) (*domain.Todo, error) {
	todo, ok := m.todos[id]
	if !ok {
		return nil, domain.ErrTodoNotFound
	}
	delete(m.todos, id)
	return &todo, nil
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestUseCase(t *testing.T) (*UseCase, *memoryRepository, *fakeClock) {
	t.Helper()
	repo := newMemoryRepository()
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	return New(repo, clock.Now, zaptest.NewLogger(t)), repo, clock
}

func TestCreateTodoDefaults(t *testing.T) {
	uc, _, clock := newTestUseCase(t)

	created, err := uc.CreateTodo(context.Background(), domain.TodoPatch{Title: domain.Some("A")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 1 || created.Title != "A" {
		t.Fatalf("unexpected todo %+v", created)
	}
	if created.Completed || created.Description != nil || created.DeadlineAt != nil {
		t.Fatalf("expected defaults, got %+v", created)
	}
	if !created.CreatedAt.Equal(clock.now) || !created.UpdatedAt.Equal(clock.now) {
		t.Fatalf("expected timestamps at %v, got %+v", clock.now, created)
	}
}

func TestCreateTodoRequiresTitle(t *testing.T) {
	uc, repo, _ := newTestUseCase(t)
	desc := "no title"

	drafts := map[string]domain.TodoPatch{
		"absent": {Description: domain.Some(&desc)},
		"empty":  {Title: domain.Some("")},
	}
	for name, draft := range drafts {
		t.Run(name, func(t *testing.T) {
			_, err := uc.CreateTodo(context.Background(), draft)
			if !errors.Is(err, domain.ErrTitleRequired) {
				t.Fatalf("expected ErrTitleRequired, got %v", err)
			}
		})
	}
	if len(repo.todos) != 0 {
		t.Fatalf("nothing should be persisted, got %d todos", len(repo.todos))
	}
}

func TestCreateTodoStorageError(t *testing.T) {
	uc, repo, _ := newTestUseCase(t)
	repo.err = errors.New("disk full")

	if _, err := uc.CreateTodo(context.Background(), domain.TodoPatch{Title: domain.Some("A")}); !errors.Is(err, repo.err) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestUpdateTodoBumpsUpdatedAt(t *testing.T) {
	uc, _, clock := newTestUseCase(t)
	ctx := context.Background()
	created, err := uc.CreateTodo(ctx, domain.TodoPatch{Title: domain.Some("A")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clock.now = clock.now.Add(time.Hour)
	updated, err := uc.UpdateTodo(ctx, created.ID, domain.TodoPatch{Completed: domain.Some(true)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Completed || updated.Title != "A" {
		t.Fatalf("unexpected todo %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at changed: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}
	if !updated.UpdatedAt.Equal(clock.now) {
		t.Fatalf("expected updated_at %v, got %v", clock.now, updated.UpdatedAt)
	}
}

func TestUpdateTodoRejectsEmptyTitle(t *testing.T) {
	uc, _, _ := newTestUseCase(t)
	ctx := context.Background()
	created, _ := uc.CreateTodo(ctx, domain.TodoPatch{Title: domain.Some("A")})

	if _, err := uc.UpdateTodo(ctx, created.ID, domain.TodoPatch{Title: domain.Some("")}); !errors.Is(err, domain.ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
}

func TestUpdateAndDeleteMissing(t *testing.T) {
	uc, _, _ := newTestUseCase(t)
	ctx := context.Background()

	if _, err := uc.UpdateTodo(ctx, 99, domain.TodoPatch{Completed: domain.Some(true)}); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
	if _, err := uc.DeleteTodo(ctx, 99); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
}

func TestListTodosWindowCutoff(t *testing.T) {
	uc, repo, clock := newTestUseCase(t)
	ctx := context.Background()
	days := 3

	if _, err := uc.ListTodos(ctx, ListQuery{WindowDays: &days}); err != nil {
		t.Fatalf("list: %v", err)
	}
	want := clock.now.Add(72 * time.Hour)
	if repo.lastFilter.DeadlineBefore == nil || !repo.lastFilter.DeadlineBefore.Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, repo.lastFilter.DeadlineBefore)
	}

	if _, err := uc.ListTodos(ctx, ListQuery{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastFilter.DeadlineBefore != nil || repo.lastFilter.Completed != nil {
		t.Fatalf("expected empty filter, got %+v", repo.lastFilter)
	}
}

func TestListTodosWindowSelection(t *testing.T) {
	uc, _, clock := newTestUseCase(t)
	ctx := context.Background()

	inside := clock.now.Add(47 * time.Hour)
	outside := clock.now.Add(49 * time.Hour)
	for _, draft := range []domain.TodoPatch{
		{Title: domain.Some("inside"), DeadlineAt: domain.Some(&inside)},
		{Title: domain.Some("outside"), DeadlineAt: domain.Some(&outside)},
		{Title: domain.Some("undated")},
	} {
		if _, err := uc.CreateTodo(ctx, draft); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	days := 2
	todos, err := uc.ListTodos(ctx, ListQuery{WindowDays: &days})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(todos) != 1 || todos[0].Title != "inside" {
		t.Fatalf("expected only the todo inside the window, got %+v", todos)
	}
}

func TestListTodosWindowCutoffIsClamped(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		days int
		want time.Time
	}{
		{"ordinary", 10, now.AddDate(0, 0, 10)},
		{"past year 9999", 1_000_000_000, latestCutoff},
		{"max int", math.MaxInt, latestCutoff},
		{"before year 1", -1_000_000_000, earliestCutoff},
		{"min int", math.MinInt, earliestCutoff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := windowCutoff(now, tt.days); !got.Equal(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestListTodosHugeWindowKeepsDatedTodos(t *testing.T) {
	uc, repo, clock := newTestUseCase(t)
	ctx := context.Background()

	far := time.Date(9000, time.January, 1, 0, 0, 0, 0, time.UTC)
	if _, err := uc.CreateTodo(ctx, domain.TodoPatch{Title: domain.Some("far"), DeadlineAt: domain.Some(&far)}); err != nil {
		t.Fatalf("create: %v", err)
	}

	days := 1_000_000_000
	todos, err := uc.ListTodos(ctx, ListQuery{WindowDays: &days})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(todos) != 1 {
		t.Fatalf("expected the far todo inside the window, got %+v", todos)
	}
	if !repo.lastFilter.DeadlineBefore.Equal(latestCutoff) {
		t.Fatalf("expected cutoff %v, got %v (now %v)", latestCutoff, repo.lastFilter.DeadlineBefore, clock.now)
	}
}
