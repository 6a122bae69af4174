package domain

import "time"

// Todo is the single managed resource.
type Todo struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Completed   bool       `json:"completed"`
	DeadlineAt  *time.Time `json:"deadline_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Touch stamps UpdatedAt, and CreatedAt when the todo has not been persisted yet.
func (t *Todo) Touch(now time.Time) {
	if t == nil {
		return
	}
	t.UpdatedAt = now
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
}

// Optional distinguishes a field that was omitted from one explicitly set
// to its zero value or to null.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// TodoPatch is a partial update. Only fields with Set == true are applied.
type TodoPatch struct {
	Title       Optional[string]
	Description Optional[*string]
	Completed   Optional[bool]
	DeadlineAt  Optional[*time.Time]
	UpdatedAt   time.Time
}

// Apply copies the present fields onto t and bumps UpdatedAt.
func (p TodoPatch) Apply(t *Todo) {
	if t == nil {
		return
	}
	if p.Title.Set {
		t.Title = p.Title.Value
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.Completed.Set {
		t.Completed = p.Completed.Value
	}
	if p.DeadlineAt.Set {
		t.DeadlineAt = p.DeadlineAt.Value
	}
	if !p.UpdatedAt.IsZero() {
		t.UpdatedAt = p.UpdatedAt
	}
}

// TodoFilter narrows a list query. Nil fields do not filter.
type TodoFilter struct {
	Completed *bool
	// DeadlineBefore keeps todos whose deadline is at or before this instant.
	// Todos without a deadline never match.
	DeadlineBefore *time.Time
}

func (f TodoFilter) Matches(t Todo) bool {
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.DeadlineBefore != nil {
		if t.DeadlineAt == nil || t.DeadlineAt.After(*f.DeadlineBefore) {
			return false
		}
	}
	return true
}
