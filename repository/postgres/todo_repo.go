package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

type todoRepository struct {
	pool *pgxpool.Pool
}

// NewTodoRepository returns a Postgres-backed implementation of TodoRepository.
func NewTodoRepository(pool *pgxpool.Pool) repository.TodoRepository {
	return &todoRepository{pool: pool}
}

func (r *todoRepository) GetByID(ctx context.Context, id int64) (*domain.Todo, error) {
	const query = `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`
	return scanTodo(r.pool.QueryRow(ctx, query, id))
}

func (r *todoRepository) List(ctx context.Context, filter domain.TodoFilter) ([]domain.Todo, error) {
	const query = `
	SELECT ` + todoColumns + `
	FROM todos
	WHERE ($1::boolean IS NULL OR completed = $1)
	  AND ($2::timestamptz IS NULL OR deadline_at <= $2)
	ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, filter.Completed, nullableTime(filter.DeadlineBefore))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := make([]domain.Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *todo)
	}
	return todos, rows.Err()
}

func (r *todoRepository) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	if todo == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO todos (title, description, completed, deadline_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING ` + todoColumns

	var created *domain.Todo
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		created, err = scanTodo(tx.QueryRow(ctx, query,
			todo.Title,
			todo.Description,
			todo.Completed,
			nullableTime(todo.DeadlineAt),
			todo.CreatedAt.UTC(),
			todo.UpdatedAt.UTC(),
		))
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *todoRepository) Update(ctx context.Context, id int64, patch domain.TodoPatch) (*domain.Todo, error) {
	// The row stays locked until commit so concurrent partial updates apply in turn.
	const selectQuery = `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 FOR UPDATE`
	const updateQuery = `
	UPDATE todos
	SET title = $2,
		description = $3,
		completed = $4,
		deadline_at = $5,
		updated_at = $6
	WHERE id = $1
	RETURNING ` + todoColumns

	var updated *domain.Todo
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanTodo(tx.QueryRow(ctx, selectQuery, id))
		if err != nil {
			return err
		}
		patch.Apply(current)

		updated, err = scanTodo(tx.QueryRow(ctx, updateQuery,
			id,
			current.Title,
			current.Description,
			current.Completed,
			nullableTime(current.DeadlineAt),
			current.UpdatedAt.UTC(),
		))
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *todoRepository) Delete(ctx context.Context, id int64) (*domain.Todo, error) {
	const query = `DELETE FROM todos WHERE id = $1 RETURNING ` + todoColumns

	var deleted *domain.Todo
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		deleted, err = scanTodo(tx.QueryRow(ctx, query, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
