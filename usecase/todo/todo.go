package todo

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

// ListQuery holds the optional list filters as received from the client.
type ListQuery struct {
	Completed *bool
	// WindowDays keeps todos due within this many days from now.
	WindowDays *int
}

// Cutoffs are kept inside the range every store can represent.
var (
	earliestCutoff = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	latestCutoff   = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)
)

// maxWindowDays spans the whole cutoff range from any current time.
const maxWindowDays = 4_000_000

type UseCase struct {
	todos  repository.TodoRepository
	now    func() time.Time
	logger *zap.Logger
}

// New builds the todo use case. A nil clock defaults to time.Now.
func New(todos repository.TodoRepository, now func() time.Time, logger *zap.Logger) *UseCase {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		todos:  todos,
		now:    now,
		logger: logger,
	}
}

func (uc *UseCase) ListTodos(ctx context.Context, query ListQuery) ([]domain.Todo, error) {
	filter := domain.TodoFilter{Completed: query.Completed}
	if query.WindowDays != nil {
		cutoff := windowCutoff(uc.clock(), *query.WindowDays)
		filter.DeadlineBefore = &cutoff
	}
	return uc.todos.List(ctx, filter)
}

func (uc *UseCase) GetTodo(ctx context.Context, id int64) (*domain.Todo, error) {
	return uc.todos.GetByID(ctx, id)
}

// CreateTodo builds a todo from the present fields of draft. Title is
// required; everything else keeps its zero value when absent.
func (uc *UseCase) CreateTodo(ctx context.Context, draft domain.TodoPatch) (*domain.Todo, error) {
	if !draft.Title.Set || draft.Title.Value == "" {
		return nil, domain.ErrTitleRequired
	}

	var todo domain.Todo
	draft.UpdatedAt = time.Time{}
	draft.Apply(&todo)
	todo.Touch(uc.clock())

	created, err := uc.todos.Create(ctx, &todo)
	if err != nil {
		return nil, err
	}
	uc.logger.Debug("todo created", zap.Int64("id", created.ID))
	return created, nil
}

func (uc *UseCase) UpdateTodo(ctx context.Context, id int64, patch domain.TodoPatch) (*domain.Todo, error) {
	if patch.Title.Set && patch.Title.Value == "" {
		return nil, domain.ErrTitleRequired
	}
	patch.UpdatedAt = uc.clock()

	updated, err := uc.todos.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	uc.logger.Debug("todo updated", zap.Int64("id", id))
	return updated, nil
}

// DeleteTodo removes the todo and returns its last state.
func (uc *UseCase) DeleteTodo(ctx context.Context, id int64) (*domain.Todo, error) {
	deleted, err := uc.todos.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.logger.Debug("todo deleted", zap.Int64("id", id))
	return deleted, nil
}

func (uc *UseCase) clock() time.Time {
	return uc.now().UTC()
}

// windowCutoff returns now plus days, clamped to [earliestCutoff, latestCutoff].
func windowCutoff(now time.Time, days int) time.Time {
	if days > maxWindowDays {
		days = maxWindowDays
	} else if days < -maxWindowDays {
		days = -maxWindowDays
	}
	cutoff := now.AddDate(0, 0, days)
	switch {
	case cutoff.After(latestCutoff):
		return latestCutoff
	case cutoff.Before(earliestCutoff):
		return earliestCutoff
	}
	return cutoff
}
