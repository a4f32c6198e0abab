package sprintset_test

import (
	"errors"
	"testing"

	"github.com/avattoli/MyTasks/internal/app/sprintset"
	sprintstore "github.com/avattoli/MyTasks/internal/app/store/sprints"
	taskstore "github.com/avattoli/MyTasks/internal/app/store/tasks"
	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/domain/models"
	"github.com/avattoli/MyTasks/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newManager(db *mongo.Database) *sprintset.Manager {
	return sprintset.New(sprintstore.New(db), taskstore.New(db), zap.NewNop())
}

func TestAdd_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	mgr := newManager(db)
	teamID := primitive.NewObjectID()
	sp := fx.CreateSprint(ctx, teamID, "S1")
	task := fx.CreateTask(ctx, teamID, "a", models.TaskStatusTodo)

	for i := 0; i < 2; i++ {
		got, err := mgr.Add(ctx, sp.ID, task.ID)
		if err != nil {
			t.Fatalf("Add #%d failed: %v", i+1, err)
		}
		if len(got.TaskIDs) != 1 || got.TaskIDs[0] != task.ID {
			t.Errorf("after Add #%d: got %v", i+1, got.TaskIDs)
		}
	}
}

func TestAdd_DoesNotTouchBoard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	mgr := newManager(db)
	teamID := primitive.NewObjectID()
	sp := fx.CreateSprint(ctx, teamID, "S1")
	task := fx.CreateTask(ctx, teamID, "a", models.TaskStatusTodo)

	if _, err := mgr.Add(ctx, sp.ID, task.ID); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	got, _ := taskstore.New(db).GetByID(ctx, task.ID)
	if got.OnBoard() {
		t.Error("sprint membership must not place the task on the board")
	}
}

func TestAdd_Errors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	mgr := newManager(db)
	teamID := primitive.NewObjectID()
	sp := fx.CreateSprint(ctx, teamID, "S1")
	foreign := fx.CreateTask(ctx, primitive.NewObjectID(), "foreign", models.TaskStatusTodo)
	own := fx.CreateTask(ctx, teamID, "own", models.TaskStatusTodo)

	tests := []struct {
		name   string
		sprint primitive.ObjectID
		task   primitive.ObjectID
		want   error
	}{
		{"cross team", sp.ID, foreign.ID, apperr.ErrCrossTeam},
		{"missing task", sp.ID, primitive.NewObjectID(), apperr.ErrNotFound},
		{"missing sprint", primitive.NewObjectID(), own.ID, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := mgr.Add(ctx, tt.sprint, tt.task); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	got, _ := sprintstore.New(db).GetByID(ctx, sp.ID)
	if len(got.TaskIDs) != 0 {
		t.Errorf("failed adds changed the sprint: %v", got.TaskIDs)
	}
}

func TestRemove_AbsentIsNoop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	mgr := newManager(db)
	teamID := primitive.NewObjectID()
	keep := fx.CreateTask(ctx, teamID, "keep", models.TaskStatusTodo)
	sp := fx.CreateSprint(ctx, teamID, "S1", keep.ID)

	got, err := mgr.Remove(ctx, sp.ID, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Remove of absent id failed: %v", err)
	}
	if len(got.TaskIDs) != 1 || got.TaskIDs[0] != keep.ID {
		t.Errorf("state changed: %v", got.TaskIDs)
	}

	got, err = mgr.Remove(ctx, sp.ID, keep.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if len(got.TaskIDs) != 0 {
		t.Errorf("after Remove: %v", got.TaskIDs)
	}

	if _, err := mgr.Remove(ctx, primitive.NewObjectID(), keep.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing sprint: expected ErrNotFound, got %v", err)
	}
}

func TestList_OrderFilterAndDanglingIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	mgr := newManager(db)
	teamID := primitive.NewObjectID()
	todo := fx.CreateTask(ctx, teamID, "todo", models.TaskStatusTodo)
	doing := fx.CreateTask(ctx, teamID, "doing", models.TaskStatusInProgress)
	gone := primitive.NewObjectID()
	sp := fx.CreateSprint(ctx, teamID, "S1", todo.ID, gone, doing.ID)

	all, err := mgr.List(ctx, sp.ID, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected dangling id to be skipped, got %d tasks", len(all))
	}
	if all[0].ID != doing.ID || all[1].ID != todo.ID {
		t.Errorf("order: got [%s, %s], want [doing, todo]", all[0].Title, all[1].Title)
	}

	filtered, err := mgr.List(ctx, sp.ID, models.TaskStatusTodo)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != todo.ID {
		t.Errorf("status filter: got %v", filtered)
	}

	if _, err := mgr.List(ctx, sp.ID, "blocked"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad status: expected ErrValidation, got %v", err)
	}
}
