package transport

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fastygo/todo/domain"
)

// Keys accepted in create and update bodies.
var todoFields = map[string]struct{}{
	"title":       {},
	"description": {},
	"completed":   {},
	"deadline_at": {},
}

// DecodeTodoPatch parses a create or update body. Keys that are absent stay
// unset in the returned patch; a JSON null title is treated as an empty title.
func DecodeTodoPatch(body []byte) (domain.TodoPatch, error) {
	var patch domain.TodoPatch

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return patch, domain.ErrInvalidPayload
	}

	for name := range fields {
		if _, ok := todoFields[name]; !ok {
			return patch, domain.ErrInvalidFields
		}
	}

	if raw, ok := fields["title"]; ok {
		var title *string
		if err := json.Unmarshal(raw, &title); err != nil {
			return patch, invalidValue("title", "string", err)
		}
		if title == nil {
			patch.Title = domain.Some("")
		} else {
			patch.Title = domain.Some(*title)
		}
	}

	if raw, ok := fields["description"]; ok {
		var description *string
		if err := json.Unmarshal(raw, &description); err != nil {
			return patch, invalidValue("description", "string or null", err)
		}
		patch.Description = domain.Some(description)
	}

	if raw, ok := fields["completed"]; ok {
		var completed *bool
		if err := json.Unmarshal(raw, &completed); err != nil {
			return patch, invalidValue("completed", "boolean", err)
		}
		if completed == nil {
			return patch, invalidValue("completed", "boolean", nil)
		}
		patch.Completed = domain.Some(*completed)
	}

	if raw, ok := fields["deadline_at"]; ok {
		var deadline *string
		if err := json.Unmarshal(raw, &deadline); err != nil {
			return patch, invalidValue("deadline_at", "ISO-8601 timestamp or null", err)
		}
		if deadline == nil {
			patch.DeadlineAt = domain.Some[*time.Time](nil)
		} else {
			parsed, err := ParseTimestamp(*deadline)
			if err != nil {
				return patch, invalidValue("deadline_at", "ISO-8601 timestamp", err)
			}
			patch.DeadlineAt = domain.Some(&parsed)
		}
	}

	return patch, nil
}

func invalidValue(field, expected string, err error) error {
	return domain.WrapError(domain.ErrCodeInvalid, fmt.Sprintf("Invalid %s: expected %s", field, expected), err)
}
