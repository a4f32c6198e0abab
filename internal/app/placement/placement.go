// Package placement is the single entry point for task writes that can change
// board occupancy: creation, updates and deletion.
//
// A task may only gain the board label through admission. A denied admission
// leaves the task exactly as it was, so label updates are all-or-nothing.
package placement

import (
	"context"
	"errors"
	"time"

	"github.com/avattoli/MyTasks/internal/app/capacity"
	sprintstore "github.com/avattoli/MyTasks/internal/app/store/sprints"
	taskstore "github.com/avattoli/MyTasks/internal/app/store/tasks"
	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/app/system/sanitize"
	"github.com/avattoli/MyTasks/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Coordinator struct {
	tasks    *taskstore.Store
	sprints  *sprintstore.Store
	capacity *capacity.Enforcer
	log      *zap.Logger
}

func New(tasks *taskstore.Store, sprints *sprintstore.Store, enf *capacity.Enforcer, logger *zap.Logger) *Coordinator {
	return &Coordinator{tasks: tasks, sprints: sprints, capacity: enf, log: logger}
}

// NewTask is the input for Create. Empty Status, Type and Priority take their defaults.
type NewTask struct {
	Title       string
	Status      string
	TeamID      *primitive.ObjectID
	Type        string
	Priority    string
	Order       float64
	ParentID    *primitive.ObjectID
	UserID      primitive.ObjectID
	AssigneeID  *primitive.ObjectID
	Labels      []string
	DueDate     *time.Time
	Estimate    *float64
	Description string
}

// Create validates in and inserts the task. A task created with the board
// label is admitted first; on denial nothing is written and a
// *apperr.CapacityError is returned.
func (c *Coordinator) Create(ctx context.Context, in NewTask) (models.Task, error) {
	t := models.Task{
		ID:          primitive.NewObjectID(),
		Title:       sanitize.Name(in.Title),
		Status:      orDefault(in.Status, models.TaskStatusTodo),
		TeamID:      in.TeamID,
		Type:        orDefault(in.Type, models.TaskTypeTask),
		Priority:    orDefault(in.Priority, models.PriorityMedium),
		Order:       in.Order,
		ParentID:    in.ParentID,
		UserID:      in.UserID,
		AssigneeID:  in.AssigneeID,
		Labels:      sanitize.Labels(in.Labels),
		DueDate:     in.DueDate,
		Estimate:    in.Estimate,
		Description: sanitize.Description(in.Description),
	}
	if err := validate(t); err != nil {
		return models.Task{}, err
	}
	if err := c.checkParent(ctx, t); err != nil {
		return models.Task{}, err
	}

	if !t.OnBoard() {
		return c.tasks.Create(ctx, t)
	}
	if t.TeamID == nil {
		return models.Task{}, apperr.Invalid("teamId", "is required for board tasks")
	}

	unlock := c.capacity.LockTeam(*t.TeamID)
	defer unlock()

	if err := c.admit(ctx, *t.TeamID, t.ID); err != nil {
		return models.Task{}, err
	}
	return c.tasks.Create(ctx, t)
}

// Patch is a partial task update. Nil fields are left unchanged; the Clear*
// flags remove optional fields.
type Patch struct {
	Title       *string
	Status      *string
	Type        *string
	Priority    *string
	Order       *float64
	ParentID    *primitive.ObjectID
	AssigneeID  *primitive.ObjectID
	Labels      *[]string
	DueDate     *time.Time
	Estimate    *float64
	Description *string
	Archived    *bool

	ClearParent   bool
	ClearAssignee bool
	ClearDueDate  bool
	ClearEstimate bool
}

// Update applies p to the task as one write. When p adds the board label the
// team's capacity is checked first; a denial rejects the whole patch.
// Removing the label, or changing other labels of a board task, is never gated.
func (c *Coordinator) Update(ctx context.Context, taskID primitive.ObjectID, p Patch) (models.Task, error) {
	cur, err := c.tasks.GetByID(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}

	next := cur
	set, unset := bson.M{}, []string{}
	if p.Title != nil {
		next.Title = sanitize.Name(*p.Title)
		set["title"] = next.Title
	}
	if p.Status != nil {
		next.Status = *p.Status
		set["status"] = next.Status
	}
	if p.Type != nil {
		next.Type = *p.Type
		set["type"] = next.Type
	}
	if p.Priority != nil {
		next.Priority = *p.Priority
		set["priority"] = next.Priority
	}
	if p.Order != nil {
		set["order"] = *p.Order
	}
	if p.Description != nil {
		set["description"] = sanitize.Description(*p.Description)
	}
	if p.Labels != nil {
		next.Labels = sanitize.Labels(*p.Labels)
		set["labels"] = next.Labels
	}
	switch {
	case p.ClearParent:
		next.ParentID = nil
		unset = append(unset, "parent_id")
	case p.ParentID != nil:
		next.ParentID = p.ParentID
		set["parent_id"] = *p.ParentID
	}
	switch {
	case p.ClearAssignee:
		unset = append(unset, "assignee_id")
	case p.AssigneeID != nil:
		set["assignee_id"] = *p.AssigneeID
	}
	switch {
	case p.ClearDueDate:
		unset = append(unset, "due_date")
	case p.DueDate != nil:
		set["due_date"] = p.DueDate.UTC()
	}
	switch {
	case p.ClearEstimate:
		unset = append(unset, "estimate")
	case p.Estimate != nil:
		set["estimate"] = *p.Estimate
	}
	if p.Archived != nil {
		if *p.Archived {
			set["archived_at"] = time.Now().UTC()
		} else {
			unset = append(unset, "archived_at")
		}
	}

	if err := validate(next); err != nil {
		return models.Task{}, err
	}
	if p.ParentID != nil {
		if err := c.checkParent(ctx, next); err != nil {
			return models.Task{}, err
		}
	}

	tr := BoardTransition(cur.Labels, next.Labels)
	if !tr.NeedsAdmission() {
		return c.tasks.Update(ctx, taskID, set, unset)
	}
	if cur.TeamID == nil {
		return models.Task{}, apperr.Invalid("teamId", "is required for board tasks")
	}

	unlock := c.capacity.LockTeam(*cur.TeamID)
	defer unlock()

	// re-derive under the lock; a concurrent write may already have placed it
	fresh, err := c.tasks.GetByID(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	after := fresh.Labels
	if p.Labels != nil {
		after = next.Labels
	}
	if BoardTransition(fresh.Labels, after).NeedsAdmission() {
		if err := c.admit(ctx, *cur.TeamID, taskID); err != nil {
			return models.Task{}, err
		}
	}
	return c.tasks.Update(ctx, taskID, set, unset)
}

// Delete removes the task, which frees its board slot, and pulls its id from
// every sprint of its team.
func (c *Coordinator) Delete(ctx context.Context, taskID primitive.ObjectID) (models.Task, error) {
	t, err := c.tasks.Delete(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if t.TeamID == nil {
		return t, nil
	}
	n, err := c.sprints.PullTaskFromTeam(ctx, *t.TeamID, taskID)
	if err != nil {
		// The task is gone; sprint lists skip it and the sweeper retries.
		c.log.Warn("pull deleted task from sprints failed",
			zap.String("task_id", taskID.Hex()),
			zap.Error(err))
		return t, nil
	}
	if n > 0 {
		c.log.Debug("deleted task pulled from sprints",
			zap.String("task_id", taskID.Hex()),
			zap.Int64("sprints", n))
	}
	return t, nil
}

// admit runs the capacity check; the caller holds the team lock.
func (c *Coordinator) admit(ctx context.Context, teamID, taskID primitive.ObjectID) error {
	adm, err := c.capacity.CanAdmit(ctx, teamID)
	if err != nil {
		return err
	}
	if err := adm.Err(); err != nil {
		c.log.Info("board placement denied",
			zap.String("team_id", teamID.Hex()),
			zap.String("task_id", taskID.Hex()),
			zap.Int64("count", adm.Count),
			zap.Int("limit", adm.Limit))
		return err
	}
	return nil
}

func (c *Coordinator) checkParent(ctx context.Context, t models.Task) error {
	if t.ParentID == nil {
		return nil
	}
	if *t.ParentID == t.ID {
		return apperr.Invalid("parentId", "cannot be the task itself")
	}
	parent, err := c.tasks.GetByID(ctx, *t.ParentID)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Invalid("parentId", "does not exist")
	}
	if err != nil {
		return err
	}
	if !sameTeam(parent.TeamID, t.TeamID) {
		return apperr.ErrCrossTeam
	}
	return nil
}

func validate(t models.Task) error {
	if t.Title == "" {
		return apperr.Invalid("title", "is required")
	}
	if !oneOf(t.Status, models.TaskStatuses) {
		return apperr.Invalid("status", "must be one of todo, in_progress, done")
	}
	if !oneOf(t.Type, models.TaskTypes) {
		return apperr.Invalid("type", "must be one of epic, story, task, bug")
	}
	if !oneOf(t.Priority, models.TaskPriorities) {
		return apperr.Invalid("priority", "must be one of low, medium, high, urgent")
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func sameTeam(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
