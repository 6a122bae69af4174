package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

const (
	keyListAll       = "todo:list:all"
	keyListCompleted = "todo:list:completed"
	keyListOpen      = "todo:list:open"

	// keyListGeneration is bumped by every write. Cached lists are stored
	// under their generation, so a snapshot read before a write can never be
	// served after it.
	keyListGeneration = "todo:list:gen"
)

// cachedTodoRepository serves list queries from Redis and invalidates them on
// every successful write. Deadline-windowed lists depend on the current time
// and always go to the underlying repository.
type cachedTodoRepository struct {
	next   repository.TodoRepository
	client *redislib.Client
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group
}

// NewCachedTodoRepository wraps next with a Redis list cache.
func NewCachedTodoRepository(next repository.TodoRepository, client *redislib.Client, ttl time.Duration, logger *zap.Logger) repository.TodoRepository {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedTodoRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *cachedTodoRepository) GetByID(ctx context.Context, id int64) (*domain.Todo, error) {
	return r.next.GetByID(ctx, id)
}

func (r *cachedTodoRepository) List(ctx context.Context, filter domain.TodoFilter) ([]domain.Todo, error) {
	base, ok := listKey(filter)
	if !ok || r.client == nil {
		return r.next.List(ctx, filter)
	}

	gen, err := r.generation(ctx)
	if err != nil {
		r.logger.Warn("todo cache generation read failed", zap.Error(err))
		return r.next.List(ctx, filter)
	}
	key := versionedKey(base, gen)

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		if todos, hit := r.get(ctx, key); hit {
			return todos, nil
		}
		todos, err := r.next.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		r.set(ctx, key, gen, todos)
		return todos, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Todo), nil
}

func (r *cachedTodoRepository) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	created, err := r.next.Create(ctx, todo)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return created, nil
}

func (r *cachedTodoRepository) Update(ctx context.Context, id int64, patch domain.TodoPatch) (*domain.Todo, error) {
	updated, err := r.next.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return updated, nil
}

func (r *cachedTodoRepository) Delete(ctx context.Context, id int64) (*domain.Todo, error) {
	deleted, err := r.next.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return deleted, nil
}

func (r *cachedTodoRepository) get(ctx context.Context, key string) ([]domain.Todo, bool) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redislib.Nil) {
			r.logger.Warn("todo cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var todos []domain.Todo
	if err := json.Unmarshal(b, &todos); err != nil {
		r.logger.Warn("todo cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return todos, true
}

// set stores todos under key unless a write bumped the generation since gen
// was read. The check and the write run in one WATCH transaction.
func (r *cachedTodoRepository) set(ctx context.Context, key string, gen int64, todos []domain.Todo) {
	b, err := json.Marshal(todos)
	if err != nil {
		return
	}
	err = r.client.Watch(ctx, func(tx *redislib.Tx) error {
		current, err := readGeneration(ctx, tx)
		if err != nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
			pipe.Set(ctx, key, b, r.ttl)
			return nil
		})
		return err
	}, keyListGeneration)
	if err != nil && !errors.Is(err, redislib.TxFailedErr) {
		r.logger.Warn("todo cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *cachedTodoRepository) invalidate(ctx context.Context) {
	if r.client == nil {
		return
	}
	if err := r.client.Incr(ctx, keyListGeneration).Err(); err != nil {
		r.logger.Error("todo cache invalidation failed", zap.Error(err))
	}
}

func (r *cachedTodoRepository) generation(ctx context.Context) (int64, error) {
	return readGeneration(ctx, r.client)
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redislib.StringCmd
}

func readGeneration(ctx context.Context, c stringGetter) (int64, error) {
	gen, err := c.Get(ctx, keyListGeneration).Int64()
	if errors.Is(err, redislib.Nil) {
		return 0, nil
	}
	return gen, err
}

func versionedKey(base string, gen int64) string {
	return base + ":" + strconv.FormatInt(gen, 10)
}

// listKey returns the cache key for filter, or false when the result must not be cached.
func listKey(filter domain.TodoFilter) (string, bool) {
	if filter.DeadlineBefore != nil {
		return "", false
	}
	switch {
	case filter.Completed == nil:
		return keyListAll, true
	case *filter.Completed:
		return keyListCompleted, true
	default:
		return keyListOpen, true
	}
}
