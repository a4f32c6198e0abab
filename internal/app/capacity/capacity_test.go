package capacity_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/avattoli/MyTasks/internal/app/capacity"
	boardstore "github.com/avattoli/MyTasks/internal/app/store/boards"
	taskstore "github.com/avattoli/MyTasks/internal/app/store/tasks"
	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/app/system/keylock"
	"github.com/avattoli/MyTasks/internal/domain/models"
	"github.com/avattoli/MyTasks/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func intPtr(n int) *int { return &n }

func newEnforcer(db *mongo.Database) *capacity.Enforcer {
	return capacity.New(boardstore.New(db), taskstore.New(db), keylock.New(), zap.NewNop())
}

func TestCanAdmit_LazyBoardWithDefaultLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	enf := newEnforcer(db)
	teamID := primitive.NewObjectID()

	adm, err := enf.CanAdmit(ctx, teamID)
	if err != nil {
		t.Fatalf("CanAdmit failed: %v", err)
	}
	if !adm.Admit || adm.Count != 0 || adm.Limit != models.DefaultBoardMaxTasks {
		t.Errorf("got %+v, want admit with 0/%d", adm, models.DefaultBoardMaxTasks)
	}
	if _, err := boardstore.New(db).Get(ctx, teamID); err != nil {
		t.Errorf("board not materialized: %v", err)
	}
}

func TestAdmit_SequentialStopsAtLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	enf := newEnforcer(db)
	teamID := primitive.NewObjectID()
	if _, err := enf.UpdateSettings(ctx, teamID, boardstore.Settings{MaxTasks: intPtr(3)}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	var tasks []models.Task
	for i := 0; i < 4; i++ {
		tasks = append(tasks, fx.CreateTask(ctx, teamID, "t", models.TaskStatusTodo))
	}

	for i := 0; i < 3; i++ {
		got, err := enf.Admit(ctx, tasks[i].ID)
		if err != nil {
			t.Fatalf("Admit %d failed: %v", i, err)
		}
		if !got.OnBoard() {
			t.Errorf("task %d not on board after Admit", i)
		}
	}

	_, err := enf.Admit(ctx, tasks[3].ID)
	var capErr *apperr.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("4th Admit: expected *CapacityError, got %v", err)
	}
	if capErr.Count != 3 || capErr.Limit != 3 {
		t.Errorf("CapacityError: got %d/%d, want 3/3", capErr.Count, capErr.Limit)
	}

	n, _ := taskstore.New(db).CountOnBoard(ctx, teamID)
	if n != 3 {
		t.Errorf("occupancy: got %d, want 3", n)
	}
}

func TestAdmit_AlreadyOnBoardIsNoop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	enf := newEnforcer(db)
	teamID := primitive.NewObjectID()
	if _, err := enf.UpdateSettings(ctx, teamID, boardstore.Settings{MaxTasks: intPtr(1)}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	task := fx.CreateBoardTask(ctx, teamID, "full", models.TaskStatusTodo)

	// The board is full, but re-admitting a board task must still succeed.
	if _, err := enf.Admit(ctx, task.ID); err != nil {
		t.Errorf("expected no-op success, got %v", err)
	}
}

func TestAdmit_ConcurrentSameTaskAtLastSlot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	enf := newEnforcer(db)
	teamID := primitive.NewObjectID()
	if _, err := enf.UpdateSettings(ctx, teamID, boardstore.Settings{MaxTasks: intPtr(2)}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	fx.CreateBoardTask(ctx, teamID, "occupant", models.TaskStatusTodo)
	task := fx.CreateTask(ctx, teamID, "last slot", models.TaskStatusTodo)

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = enf.Admit(ctx, task.ID)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("admit %d: expected success for a task already placed, got %v", i, err)
		}
	}
	count, err := taskstore.New(db).CountOnBoard(ctx, teamID)
	if err != nil {
		t.Fatalf("CountOnBoard failed: %v", err)
	}
	if count != 2 {
		t.Errorf("occupancy: got %d, want 2", count)
	}
}

func TestAdmit_Errors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	enf := newEnforcer(db)
	if _, err := enf.Admit(ctx, primitive.NewObjectID()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing task: expected ErrNotFound, got %v", err)
	}

	teamless, err := taskstore.New(db).Create(ctx, models.Task{Title: "loose", Status: models.TaskStatusTodo})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := enf.Admit(ctx, teamless.ID); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("teamless task: expected ErrValidation, got %v", err)
	}
}

func TestAdmit_ConcurrentWithinProcessNeverOvershoots(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	enf := newEnforcer(db)
	teamID := primitive.NewObjectID()
	if _, err := enf.UpdateSettings(ctx, teamID, boardstore.Settings{MaxTasks: intPtr(2)}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	const n = 6
	ids := make([]primitive.ObjectID, n)
	for i := range ids {
		ids[i] = fx.CreateTask(ctx, teamID, "t", models.TaskStatusTodo).ID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = enf.Admit(ctx, ids[i])
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, apperr.ErrCapacity):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if admitted != 2 {
		t.Errorf("admitted: got %d, want 2", admitted)
	}
}

func TestOccupancy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	enf := newEnforcer(db)
	teamID := primitive.NewObjectID()
	_, err := enf.UpdateSettings(ctx, teamID, boardstore.Settings{
		Columns: []boardstore.ColumnPatch{{Key: models.TaskStatusTodo, WIPLimit: intPtr(1)}},
	})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	fx.CreateBoardTask(ctx, teamID, "a", models.TaskStatusTodo)
	fx.CreateBoardTask(ctx, teamID, "b", models.TaskStatusTodo)
	fx.CreateBoardTask(ctx, teamID, "c", models.TaskStatusDone)
	fx.CreateTask(ctx, teamID, "backlog", models.TaskStatusTodo)

	occ, err := enf.Occupancy(ctx, teamID)
	if err != nil {
		t.Fatalf("Occupancy failed: %v", err)
	}
	if occ.Count != 3 || occ.Unmapped != 0 {
		t.Errorf("Count/Unmapped: got %d/%d, want 3/0", occ.Count, occ.Unmapped)
	}
	byKey := map[string]capacity.ColumnOccupancy{}
	for _, c := range occ.Columns {
		byKey[c.Key] = c
	}
	if c := byKey[models.TaskStatusTodo]; c.Count != 2 || !c.Over {
		t.Errorf("todo: got %+v, want count 2 over limit", c)
	}
	if c := byKey[models.TaskStatusDone]; c.Count != 1 || c.Over {
		t.Errorf("done: got %+v", c)
	}
	if c := byKey[models.TaskStatusInProgress]; c.Count != 0 {
		t.Errorf("in_progress: got %+v", c)
	}
}

func TestEnsure_ReportsCreationOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	enf := newEnforcer(db)
	teamID := primitive.NewObjectID()

	first, created, err := enf.Ensure(ctx, teamID)
	if err != nil || !created {
		t.Fatalf("first Ensure: created=%v err=%v", created, err)
	}
	second, created, err := enf.Ensure(ctx, teamID)
	if err != nil || created {
		t.Fatalf("second Ensure: created=%v err=%v", created, err)
	}
	if first.ID != second.ID {
		t.Errorf("board ids differ: %s vs %s", first.ID.Hex(), second.ID.Hex())
	}
}
