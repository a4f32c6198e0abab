package taskstore_test

import (
	"errors"
	"testing"

	taskstore "github.com/avattoli/MyTasks/internal/app/store/tasks"
	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/domain/models"
	"github.com/avattoli/MyTasks/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := taskstore.New(db)
	teamID := primitive.NewObjectID()

	created, err := store.Create(ctx, models.Task{
		Title:  "Write docs",
		Status: models.TaskStatusTodo,
		TeamID: &teamID,
		UserID: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID.IsZero() {
		t.Fatal("expected ID to be assigned")
	}
	if created.Labels == nil {
		t.Error("expected non-nil Labels")
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Write docs" || got.TeamID == nil || *got.TeamID != teamID {
		t.Errorf("got %+v", got)
	}

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCountOnBoard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	store := taskstore.New(db)
	teamID := primitive.NewObjectID()

	fx.CreateBoardTask(ctx, teamID, "a", models.TaskStatusTodo)
	fx.CreateBoardTask(ctx, teamID, "b", models.TaskStatusDone) // done still counts
	fx.CreateBoardTask(ctx, teamID, "c", models.TaskStatusInProgress)
	fx.CreateTask(ctx, teamID, "backlog", models.TaskStatusTodo)
	fx.CreateBoardTask(ctx, primitive.NewObjectID(), "other team", models.TaskStatusTodo)

	n, err := store.CountOnBoard(ctx, teamID)
	if err != nil {
		t.Fatalf("CountOnBoard failed: %v", err)
	}
	if n != 3 {
		t.Errorf("CountOnBoard: got %d, want 3", n)
	}

	by, err := store.CountOnBoardByStatus(ctx, teamID)
	if err != nil {
		t.Fatalf("CountOnBoardByStatus failed: %v", err)
	}
	want := map[string]int64{"todo": 1, "in_progress": 1, "done": 1}
	for k, v := range want {
		if by[k] != v {
			t.Errorf("status %s: got %d, want %d", k, by[k], v)
		}
	}
}

func TestAddLabel_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	store := taskstore.New(db)
	task := fx.CreateTask(ctx, primitive.NewObjectID(), "a", models.TaskStatusTodo, "bug")

	for i := 0; i < 2; i++ {
		got, err := store.AddLabel(ctx, task.ID, models.BoardLabel)
		if err != nil {
			t.Fatalf("AddLabel failed: %v", err)
		}
		if len(got.Labels) != 2 || !got.OnBoard() {
			t.Errorf("labels after AddLabel #%d: %v", i+1, got.Labels)
		}
	}

	got, err := store.RemoveLabel(ctx, task.ID, models.BoardLabel)
	if err != nil {
		t.Fatalf("RemoveLabel failed: %v", err)
	}
	if got.OnBoard() || len(got.Labels) != 1 {
		t.Errorf("labels after RemoveLabel: %v", got.Labels)
	}
}

func TestUpdate_SetAndUnset(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := taskstore.New(db)
	teamID := primitive.NewObjectID()
	assignee := primitive.NewObjectID()
	task, err := store.Create(ctx, models.Task{
		Title:      "a",
		Status:     models.TaskStatusTodo,
		TeamID:     &teamID,
		AssigneeID: &assignee,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Update(ctx, task.ID, bson.M{"status": models.TaskStatusDone}, []string{"assignee_id"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Status != models.TaskStatusDone {
		t.Errorf("Status: got %q", got.Status)
	}
	if got.AssigneeID != nil {
		t.Errorf("AssigneeID should be cleared, got %v", got.AssigneeID)
	}

	if _, err := store.Update(ctx, primitive.NewObjectID(), bson.M{"title": "x"}, nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	store := taskstore.New(db)
	task := fx.CreateBoardTask(ctx, primitive.NewObjectID(), "a", models.TaskStatusTodo)

	deleted, err := store.Delete(ctx, task.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted.ID != task.ID || !deleted.OnBoard() {
		t.Errorf("Delete returned %+v", deleted)
	}
	if _, err := store.Delete(ctx, task.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Delete: expected ErrNotFound, got %v", err)
	}
}

func TestListByIDs_OrderAndFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	store := taskstore.New(db)
	teamID := primitive.NewObjectID()

	todo := fx.CreateTask(ctx, teamID, "todo", models.TaskStatusTodo)
	done := fx.CreateTask(ctx, teamID, "done", models.TaskStatusDone)
	foreign := fx.CreateTask(ctx, primitive.NewObjectID(), "foreign", models.TaskStatusTodo)
	missing := primitive.NewObjectID()

	ids := []primitive.ObjectID{todo.ID, done.ID, foreign.ID, missing}

	all, err := store.ListByIDs(ctx, teamID, ids, "")
	if err != nil {
		t.Fatalf("ListByIDs failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(all))
	}
	// status sorts lexically: done < todo
	if all[0].ID != done.ID || all[1].ID != todo.ID {
		t.Errorf("order: got [%s, %s]", all[0].Title, all[1].Title)
	}

	onlyTodo, err := store.ListByIDs(ctx, teamID, ids, models.TaskStatusTodo)
	if err != nil {
		t.Fatalf("ListByIDs failed: %v", err)
	}
	if len(onlyTodo) != 1 || onlyTodo[0].ID != todo.ID {
		t.Errorf("status filter: got %v", onlyTodo)
	}

	empty, err := store.ListByIDs(ctx, teamID, nil, "")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("empty ids: got (%v, %v)", empty, err)
	}
}

func TestListForTeam_OnBoard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	store := taskstore.New(db)
	teamID := primitive.NewObjectID()

	board := fx.CreateBoardTask(ctx, teamID, "on board", models.TaskStatusTodo)
	fx.CreateTask(ctx, teamID, "backlog", models.TaskStatusTodo)

	all, err := store.ListForTeam(ctx, teamID, taskstore.ListFilter{})
	if err != nil {
		t.Fatalf("ListForTeam failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(all))
	}

	onBoard, err := store.ListForTeam(ctx, teamID, taskstore.ListFilter{OnBoard: true})
	if err != nil {
		t.Fatalf("ListForTeam failed: %v", err)
	}
	if len(onBoard) != 1 || onBoard[0].ID != board.ID {
		t.Errorf("on board: got %v", onBoard)
	}
}

func TestExistingIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	store := taskstore.New(db)
	task := fx.CreateTask(ctx, primitive.NewObjectID(), "a", models.TaskStatusTodo)
	gone := primitive.NewObjectID()

	got, err := store.ExistingIDs(ctx, []primitive.ObjectID{task.ID, gone})
	if err != nil {
		t.Fatalf("ExistingIDs failed: %v", err)
	}
	if !got[task.ID] || got[gone] {
		t.Errorf("got %v", got)
	}
}

func TestDeleteForTeam(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	store := taskstore.New(db)
	teamID, otherID := primitive.NewObjectID(), primitive.NewObjectID()
	fx.CreateTask(ctx, teamID, "a", models.TaskStatusTodo)
	fx.CreateBoardTask(ctx, teamID, "b", models.TaskStatusDone)
	other := fx.CreateTask(ctx, otherID, "c", models.TaskStatusTodo)

	n, err := store.DeleteForTeam(ctx, teamID)
	if err != nil {
		t.Fatalf("DeleteForTeam failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted: got %d, want 2", n)
	}
	if _, err := store.GetByID(ctx, other.ID); err != nil {
		t.Errorf("other team's task: %v", err)
	}
}
