// Package capacity enforces each team's board limit: a team may have at most
// Board.MaxTasks tasks carrying the board label.
//
// Admission is check-then-act. A per-team lock serializes admissions within
// this process, so sequential and same-instance concurrent admissions never
// exceed the limit. Admissions from other instances can still overshoot
// transiently; the next count reflects the true occupancy.
package capacity

import (
	"context"

	boardstore "github.com/avattoli/MyTasks/internal/app/store/boards"
	taskstore "github.com/avattoli/MyTasks/internal/app/store/tasks"
	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/app/system/keylock"
	"github.com/avattoli/MyTasks/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Enforcer gates board admission.
type Enforcer struct {
	boards *boardstore.Store
	tasks  *taskstore.Store
	locks  *keylock.Map
	log    *zap.Logger
}

// New builds an Enforcer. Enforcers that must serialize against each other
// have to share locks.
func New(boards *boardstore.Store, tasks *taskstore.Store, locks *keylock.Map, logger *zap.Logger) *Enforcer {
	if locks == nil {
		locks = keylock.New()
	}
	return &Enforcer{boards: boards, tasks: tasks, locks: locks, log: logger}
}

// Admission is the outcome of a capacity check.
type Admission struct {
	Admit bool  `json:"admit"`
	Count int64 `json:"currentCount"`
	Limit int   `json:"limit"`
}

// Err returns a *apperr.CapacityError when the admission is denied.
func (a Admission) Err() error {
	if a.Admit {
		return nil
	}
	return &apperr.CapacityError{Count: a.Count, Limit: a.Limit}
}

// LockTeam serializes board admissions for teamID until the returned func is called.
func (e *Enforcer) LockTeam(teamID primitive.ObjectID) (unlock func()) {
	return e.locks.Lock(teamID.Hex())
}

// EnsureBoard returns the team's board, creating it with defaults if needed.
func (e *Enforcer) EnsureBoard(ctx context.Context, teamID primitive.ObjectID) (models.Board, error) {
	b, _, err := e.Ensure(ctx, teamID)
	return b, err
}

// Ensure is EnsureBoard that also reports whether this call created the board.
func (e *Enforcer) Ensure(ctx context.Context, teamID primitive.ObjectID) (models.Board, bool, error) {
	b, created, err := e.boards.Ensure(ctx, teamID)
	if err != nil {
		return models.Board{}, false, err
	}
	if created {
		e.log.Info("board created",
			zap.String("team_id", teamID.Hex()),
			zap.Int("max_tasks", b.MaxTasks))
	}
	return b, created, nil
}

// CanAdmit counts the team's board tasks against its limit.
// Admit is true iff Count < Limit.
func (e *Enforcer) CanAdmit(ctx context.Context, teamID primitive.ObjectID) (Admission, error) {
	b, err := e.EnsureBoard(ctx, teamID)
	if err != nil {
		return Admission{}, err
	}
	n, err := e.tasks.CountOnBoard(ctx, teamID)
	if err != nil {
		return Admission{}, err
	}
	return Admission{Admit: n < int64(b.MaxTasks), Count: n, Limit: b.MaxTasks}, nil
}

// Admit puts an existing task on its team's board.
// A task already on the board is returned unchanged.
func (e *Enforcer) Admit(ctx context.Context, taskID primitive.ObjectID) (models.Task, error) {
	task, err := e.tasks.GetByID(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if task.OnBoard() {
		return task, nil
	}
	if task.TeamID == nil {
		return models.Task{}, apperr.Invalid("teamId", "task has no team and cannot be placed on a board")
	}
	teamID := *task.TeamID

	unlock := e.LockTeam(teamID)
	defer unlock()

	// a concurrent admit may have placed it while we waited
	task, err = e.tasks.GetByID(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if task.OnBoard() {
		return task, nil
	}

	adm, err := e.CanAdmit(ctx, teamID)
	if err != nil {
		return models.Task{}, err
	}
	if err := adm.Err(); err != nil {
		e.log.Info("board admission denied",
			zap.String("team_id", teamID.Hex()),
			zap.String("task_id", taskID.Hex()),
			zap.Int64("count", adm.Count),
			zap.Int("limit", adm.Limit))
		return models.Task{}, err
	}
	return e.tasks.AddLabel(ctx, taskID, models.BoardLabel)
}

// UpdateSettings changes the board's limit and column names/WIP limits,
// creating the board first if the team has none.
func (e *Enforcer) UpdateSettings(ctx context.Context, teamID primitive.ObjectID, in boardstore.Settings) (models.Board, error) {
	if _, err := e.EnsureBoard(ctx, teamID); err != nil {
		return models.Board{}, err
	}
	return e.boards.UpdateSettings(ctx, teamID, in)
}

// ColumnOccupancy is the number of board tasks whose status equals the column key.
type ColumnOccupancy struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	WIPLimit *int   `json:"wipLimit,omitempty"`
	Count    int64  `json:"count"`
	Over     bool   `json:"over"`
}

// Occupancy reports board usage. WIP limits are reported, never enforced.
type Occupancy struct {
	MaxTasks int               `json:"maxTasks"`
	Count    int64             `json:"count"`
	Columns  []ColumnOccupancy `json:"columns"`
	// Unmapped counts board tasks whose status matches no column key.
	Unmapped int64 `json:"unmapped"`
}

// Occupancy reports per-column usage of the team's board.
func (e *Enforcer) Occupancy(ctx context.Context, teamID primitive.ObjectID) (Occupancy, error) {
	b, err := e.EnsureBoard(ctx, teamID)
	if err != nil {
		return Occupancy{}, err
	}
	byStatus, err := e.tasks.CountOnBoardByStatus(ctx, teamID)
	if err != nil {
		return Occupancy{}, err
	}

	occ := Occupancy{MaxTasks: b.MaxTasks, Columns: make([]ColumnOccupancy, 0, len(b.Columns))}
	for _, n := range byStatus {
		occ.Count += n
	}
	mapped := int64(0)
	for _, c := range b.Columns {
		n := byStatus[c.Key]
		mapped += n
		occ.Columns = append(occ.Columns, ColumnOccupancy{
			Key:      c.Key,
			Name:     c.Name,
			WIPLimit: c.WIPLimit,
			Count:    n,
			Over:     c.WIPLimit != nil && n > int64(*c.WIPLimit),
		})
	}
	occ.Unmapped = occ.Count - mapped
	return occ, nil
}
