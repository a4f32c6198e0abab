package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sprint status values.
const (
	SprintStatusPlanned   = "planned"
	SprintStatusActive    = "active"
	SprintStatusCompleted = "completed"
)

// SprintStatuses lists the valid sprint statuses.
var SprintStatuses = []string{SprintStatusPlanned, SprintStatusActive, SprintStatusCompleted}

// Sprint is a named, time-boxed set of a team's tasks.
//
// TaskIDs is a set: it is only ever mutated with $addToSet / $pull, so an id
// appears at most once. Membership is independent of board placement.
type Sprint struct {
	ID        primitive.ObjectID   `bson:"_id" json:"id"`
	TeamID    primitive.ObjectID   `bson:"team_id" json:"teamId"`
	Name      string               `bson:"name" json:"name"`
	Goal      string               `bson:"goal,omitempty" json:"goal,omitempty"`
	StartDate *time.Time           `bson:"start_date,omitempty" json:"startDate,omitempty"`
	EndDate   *time.Time           `bson:"end_date,omitempty" json:"endDate,omitempty"`
	Status    string               `bson:"status" json:"status"`
	Order     float64              `bson:"order" json:"order"`
	TaskIDs   []primitive.ObjectID `bson:"task_ids" json:"taskIds"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
