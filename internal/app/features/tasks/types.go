package tasks

import (
	"encoding/json"
	"time"

	"github.com/avattoli/MyTasks/internal/app/placement"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type createRequest struct {
	Title       string              `json:"title"`
	Status      string              `json:"status"`
	Type        string              `json:"type"`
	Priority    string              `json:"priority"`
	Order       float64             `json:"order"`
	ParentID    *primitive.ObjectID `json:"parentId"`
	AssigneeID  *primitive.ObjectID `json:"assigneeId"`
	Labels      []string            `json:"labels"`
	DueDate     *time.Time          `json:"dueDate"`
	Estimate    *float64            `json:"estimate"`
	Description string              `json:"description"`
}

// nullable tells an absent key (Set false) from an explicit null (Null true).
type nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (n *nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Null = true
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

type updateRequest struct {
	Title       *string                      `json:"title"`
	Status      *string                      `json:"status"`
	Type        *string                      `json:"type"`
	Priority    *string                      `json:"priority"`
	Order       *float64                     `json:"order"`
	ParentID    nullable[primitive.ObjectID] `json:"parentId"`
	AssigneeID  nullable[primitive.ObjectID] `json:"assigneeId"`
	Labels      *[]string                    `json:"labels"`
	DueDate     nullable[time.Time]          `json:"dueDate"`
	Estimate    nullable[float64]            `json:"estimate"`
	Description *string                      `json:"description"`
	Archived    *bool                        `json:"archived"`
}

func (u updateRequest) patch() placement.Patch {
	p := placement.Patch{
		Title:       u.Title,
		Status:      u.Status,
		Type:        u.Type,
		Priority:    u.Priority,
		Order:       u.Order,
		Labels:      u.Labels,
		Description: u.Description,
		Archived:    u.Archived,

		ClearParent:   u.ParentID.Null,
		ClearAssignee: u.AssigneeID.Null,
		ClearDueDate:  u.DueDate.Null,
		ClearEstimate: u.Estimate.Null,
	}
	if u.ParentID.Set && !u.ParentID.Null {
		p.ParentID = &u.ParentID.Value
	}
	if u.AssigneeID.Set && !u.AssigneeID.Null {
		p.AssigneeID = &u.AssigneeID.Value
	}
	if u.DueDate.Set && !u.DueDate.Null {
		p.DueDate = &u.DueDate.Value
	}
	if u.Estimate.Set && !u.Estimate.Null {
		p.Estimate = &u.Estimate.Value
	}
	return p
}
