package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task status values (also the default board column keys).
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

// Task type values.
const (
	TaskTypeEpic  = "epic"
	TaskTypeStory = "story"
	TaskTypeTask  = "task"
	TaskTypeBug   = "bug"
)

// Task priority values.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// TaskStatuses lists the valid statuses in their natural board order.
var TaskStatuses = []string{TaskStatusTodo, TaskStatusInProgress, TaskStatusDone}

// TaskTypes lists the valid task types.
var TaskTypes = []string{TaskTypeEpic, TaskTypeStory, TaskTypeTask, TaskTypeBug}

// TaskPriorities lists the valid priorities, lowest first.
var TaskPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Task is a unit of work. A task counts against its team's board capacity iff
// Labels contains BoardLabel, independent of Status.
type Task struct {
	ID     primitive.ObjectID  `bson:"_id" json:"id"`
	Title  string              `bson:"title" json:"title"`
	Status string              `bson:"status" json:"status"`
	TeamID *primitive.ObjectID `bson:"team_id,omitempty" json:"teamId,omitempty"`

	Type     string              `bson:"type" json:"type"`
	Priority string              `bson:"priority" json:"priority"`
	Order    float64             `bson:"order" json:"order"`
	ParentID *primitive.ObjectID `bson:"parent_id,omitempty" json:"parentId,omitempty"`

	UserID     primitive.ObjectID  `bson:"user_id" json:"userId"` // creator
	AssigneeID *primitive.ObjectID `bson:"assignee_id,omitempty" json:"assigneeId,omitempty"`

	Labels      []string   `bson:"labels" json:"labels"`
	DueDate     *time.Time `bson:"due_date,omitempty" json:"dueDate,omitempty"`
	Estimate    *float64   `bson:"estimate,omitempty" json:"estimate,omitempty"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	ArchivedAt  *time.Time `bson:"archived_at,omitempty" json:"archivedAt,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// OnBoard reports whether the task carries the board label.
func (t Task) OnBoard() bool {
	return HasLabel(t.Labels, BoardLabel)
}

// HasLabel reports whether label is present in labels.
func HasLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
