package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BoardLabel is the task label that places a task on its team's board.
const BoardLabel = "board"

// DefaultBoardMaxTasks is the capacity of a board that has never been configured.
const DefaultBoardMaxTasks = 4

// Board is the single Kanban board of a team (unique on team_id).
//
// MaxTasks bounds how many of the team's tasks may carry the "board" label.
// Column WIP limits are advisory and are reported, not enforced.
type Board struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	TeamID   primitive.ObjectID `bson:"team_id" json:"teamId"`
	MaxTasks int                `bson:"max_tasks" json:"maxTasks"`
	Columns  []BoardColumn      `bson:"columns" json:"columns"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// BoardColumn is one column of a board. Key is stable and matches a task status.
type BoardColumn struct {
	Key      string `bson:"key" json:"key"`
	Name     string `bson:"name" json:"name"`
	WIPLimit *int   `bson:"wip_limit,omitempty" json:"wipLimit,omitempty"`
}

// DefaultBoardColumns returns a fresh copy of the columns a new board starts with.
func DefaultBoardColumns() []BoardColumn {
	return []BoardColumn{
		{Key: TaskStatusTodo, Name: "To Do"},
		{Key: TaskStatusInProgress, Name: "In Progress"},
		{Key: TaskStatusDone, Name: "Done"},
	}
}
