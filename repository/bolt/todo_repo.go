package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

// Bucket holds one JSON document per todo keyed by its big-endian id, so
// cursor order is id order.
const Bucket = "todos"

type todoRepository struct {
	db     *bbolt.DB
	bucket []byte
}

// NewTodoRepository returns a BoltDB-backed implementation of TodoRepository.
// The Bucket must already exist.
func NewTodoRepository(db *bbolt.DB) repository.TodoRepository {
	return &todoRepository{db: db, bucket: []byte(Bucket)}
}

func (r *todoRepository) GetByID(ctx context.Context, id int64) (*domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var todo *domain.Todo
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := r.todos(tx)
		if err != nil {
			return err
		}
		todo, err = get(b, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return todo, nil
}

func (r *todoRepository) List(ctx context.Context, filter domain.TodoFilter) ([]domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	todos := make([]domain.Todo, 0)
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := r.todos(tx)
		if err != nil {
			return err
		}
		return b.ForEach(func(_, v []byte) error {
			var todo domain.Todo
			if err := json.Unmarshal(v, &todo); err != nil {
				return err
			}
			if filter.Matches(todo) {
				todos = append(todos, todo)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return todos, nil
}

func (r *todoRepository) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	if todo == nil {
		return nil, domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	created := *todo
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := r.todos(tx)
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		created.ID = int64(seq)
		return put(b, &created)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *todoRepository) Update(ctx context.Context, id int64, patch domain.TodoPatch) (*domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var updated *domain.Todo
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := r.todos(tx)
		if err != nil {
			return err
		}
		current, err := get(b, id)
		if err != nil {
			return err
		}
		patch.Apply(current)
		if err := put(b, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *todoRepository) Delete(ctx context.Context, id int64) (*domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var deleted *domain.Todo
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := r.todos(tx)
		if err != nil {
			return err
		}
		current, err := get(b, id)
		if err != nil {
			return err
		}
		if err := b.Delete(key(id)); err != nil {
			return err
		}
		deleted = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (r *todoRepository) todos(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	b := tx.Bucket(r.bucket)
	if b == nil {
		return nil, fmt.Errorf("bucket %q not found", r.bucket)
	}
	return b, nil
}

func get(b *bbolt.Bucket, id int64) (*domain.Todo, error) {
	if id <= 0 {
		return nil, domain.ErrTodoNotFound
	}
	raw := b.Get(key(id))
	if raw == nil {
		return nil, domain.ErrTodoNotFound
	}
	var todo domain.Todo
	if err := json.Unmarshal(raw, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func put(b *bbolt.Bucket, todo *domain.Todo) error {
	payload, err := json.Marshal(todo)
	if err != nil {
		return err
	}
	return b.Put(key(todo.ID), payload)
}

func key(id int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}
