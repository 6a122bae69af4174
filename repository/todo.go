package repository

import (
	"context"

	"github.com/fastygo/todo/domain"
)

// TodoRepository persists todos. Every method runs as a single storage
// transaction: committed on success, rolled back otherwise.
type TodoRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Todo, error)
	List(ctx context.Context, filter domain.TodoFilter) ([]domain.Todo, error)
	// Create assigns the id and returns the persisted todo.
	Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error)
	// Update applies patch to the stored todo and returns the result.
	Update(ctx context.Context, id int64, patch domain.TodoPatch) (*domain.Todo, error)
	// Delete removes the todo and returns its last stored state.
	Delete(ctx context.Context, id int64) (*domain.Todo, error)
}
