package tasks

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	FieldTaskID      = "taskId"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStatus      = "status"
)

// RequiredFields lists the body keys that create and update both demand.
var RequiredFields = []string{FieldTaskID, FieldTitle, FieldDescription, FieldStatus}

type Task struct {
	ID          string `json:"taskId" dynamodbav:"taskId"`
	Title       string `json:"title" dynamodbav:"title"`
	Description string `json:"description" dynamodbav:"description"`
	Status      string `json:"status" dynamodbav:"status"`
}

// TaskFields are the mutable attributes of a task.
type TaskFields struct {
	Title       string
	Description string
	Status      string
}

func (t Task) Fields() TaskFields {
	return TaskFields{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
	}
}

func (t Task) WithFields(fields TaskFields) Task {
	t.Title = fields.Title
	t.Description = fields.Description
	t.Status = fields.Status
	return t
}

// Precondition guards a store update. The zero value is not a valid
// precondition.
type Precondition int

const (
	PreconditionMustExist Precondition = iota + 1
)

func (p Precondition) String() string {
	switch p {
	case PreconditionMustExist:
		return "must_exist"
	default:
		return fmt.Sprintf("precondition(%d)", int(p))
	}
}

// ParseTaskInput decodes a create/update body. Every required key must be
// present with a non-null value; the taskId value is only kept when it is a
// JSON string, since create discards it anyway.
func ParseTaskInput(body []byte) (Task, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Task{}, fmt.Errorf("%w: empty body", ErrInvalidBody)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Task{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if raw == nil {
		return Task{}, fmt.Errorf("%w: body is not an object", ErrInvalidBody)
	}

	var missing []string
	for _, field := range RequiredFields {
		value, ok := raw[field]
		if !ok || isJSONNull(value) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return Task{}, &MissingFieldsError{Fields: missing}
	}

	var task Task
	if err := json.Unmarshal(raw[FieldTaskID], &task.ID); err != nil {
		// Non-string IDs are dropped; create ignores the ID and update rejects an empty one.
		task.ID = ""
	}

	targets := []struct {
		field string
		dst   *string
	}{
		{FieldTitle, &task.Title},
		{FieldDescription, &task.Description},
		{FieldStatus, &task.Status},
	}
	for _, target := range targets {
		if err := json.Unmarshal(raw[target.field], target.dst); err != nil {
			return Task{}, fmt.Errorf("%w: %s must be a string", ErrInvalidBody, target.field)
		}
	}

	return task, nil
}

func isJSONNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}
