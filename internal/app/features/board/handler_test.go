package board_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avattoli/MyTasks/internal/app/capacity"
	"github.com/avattoli/MyTasks/internal/app/features/board"
	uierrors "github.com/avattoli/MyTasks/internal/app/features/errors"
	boardstore "github.com/avattoli/MyTasks/internal/app/store/boards"
	taskstore "github.com/avattoli/MyTasks/internal/app/store/tasks"
	teamstore "github.com/avattoli/MyTasks/internal/app/store/teams"
	"github.com/avattoli/MyTasks/internal/app/system/keylock"
	"github.com/avattoli/MyTasks/internal/domain/models"
	"github.com/avattoli/MyTasks/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type env struct {
	h      *board.Handler
	fx     *testutil.Fixtures
	team   models.Team
	leader primitive.ObjectID
	admin  primitive.ObjectID
	member primitive.ObjectID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := zap.NewNop()
	boards, tasks := boardstore.New(db), taskstore.New(db)
	enf := capacity.New(boards, tasks, keylock.New(), logger)
	h := board.NewHandler(teamstore.New(db), boards, tasks, enf, uierrors.NewErrorLogger(logger), logger)

	fx := testutil.NewFixtures(t, db)
	e := &env{
		h:      h,
		fx:     fx,
		leader: primitive.NewObjectID(),
		admin:  primitive.NewObjectID(),
		member: primitive.NewObjectID(),
	}
	e.team = fx.CreateTeam(ctx, "Platform", e.leader, e.member)
	fx.AddAdmin(ctx, &e.team, e.admin)
	return e
}

// request builds a request for the team with the caller and URL params set.
func (e *env) request(t *testing.T, method, path string, user primitive.ObjectID, body any, params ...string) *http.Request {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = testutil.NewJSONRequest(t, method, path, body)
	} else {
		req = testutil.NewRequest(method, path)
	}
	req = testutil.WithUser(req, user)
	req = testutil.WithChiURLParam(req, "slug", e.team.Slug)
	for i := 0; i+1 < len(params); i += 2 {
		req = testutil.WithChiURLParam(req, params[i], params[i+1])
	}
	return req
}

type boardBody struct {
	Board struct {
		MaxTasks int `json:"maxTasks"`
		Columns  []struct {
			Key      string `json:"key"`
			Name     string `json:"name"`
			WIPLimit *int   `json:"wipLimit"`
		} `json:"columns"`
	} `json:"board"`
}

func TestServeBoardAndEnsure(t *testing.T) {
	e := newEnv(t)

	rec := httptest.NewRecorder()
	e.h.ServeBoard(rec, e.request(t, "GET", "/", e.member, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("before ensure: got %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.h.HandleEnsure(rec, e.request(t, "POST", "/", e.member, nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("member ensure: got %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.h.HandleEnsure(rec, e.request(t, "POST", "/", e.admin, nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first ensure: got %d, want 201", rec.Code)
	}
	rec = httptest.NewRecorder()
	e.h.HandleEnsure(rec, e.request(t, "POST", "/", e.leader, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("second ensure: got %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.h.ServeBoard(rec, e.request(t, "GET", "/", e.member, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("after ensure: got %d", rec.Code)
	}
	var body boardBody
	testutil.DecodeJSON(t, rec, &body)
	if body.Board.MaxTasks != models.DefaultBoardMaxTasks || len(body.Board.Columns) != 3 {
		t.Errorf("unexpected board: %+v", body.Board)
	}

	rec = httptest.NewRecorder()
	e.h.ServeBoard(rec, e.request(t, "GET", "/", primitive.NewObjectID(), nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("outsider: got %d, want 403", rec.Code)
	}
}

func TestHandleSettings(t *testing.T) {
	e := newEnv(t)

	patch := map[string]any{
		"maxTasks": 2,
		"columns": []map[string]any{
			{"key": "in_progress", "name": "Doing", "wipLimit": 1},
			{"key": "blocked", "name": "Blocked"},
		},
	}
	rec := httptest.NewRecorder()
	e.h.HandleSettings(rec, e.request(t, "PATCH", "/", e.admin, patch))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	var body boardBody
	testutil.DecodeJSON(t, rec, &body)
	if body.Board.MaxTasks != 2 {
		t.Errorf("maxTasks: got %d, want 2", body.Board.MaxTasks)
	}
	if len(body.Board.Columns) != 3 {
		t.Fatalf("unknown column key added: %+v", body.Board.Columns)
	}
	col := body.Board.Columns[1]
	if col.Name != "Doing" || col.WIPLimit == nil || *col.WIPLimit != 1 {
		t.Errorf("in_progress column: got %+v", col)
	}

	rec = httptest.NewRecorder()
	e.h.HandleSettings(rec, e.request(t, "PATCH", "/", e.leader, map[string]any{"maxTasks": -3}))
	testutil.DecodeJSON(t, rec, &body)
	if body.Board.MaxTasks != 0 {
		t.Errorf("negative maxTasks: got %d, want 0", body.Board.MaxTasks)
	}

	rec = httptest.NewRecorder()
	e.h.HandleSettings(rec, e.request(t, "PATCH", "/", e.member, patch))
	if rec.Code != http.StatusForbidden {
		t.Errorf("member: got %d, want 403", rec.Code)
	}
}

func TestHandleAdmit(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := httptest.NewRecorder()
	e.h.HandleSettings(rec, e.request(t, "PATCH", "/", e.leader, map[string]any{"maxTasks": 1}))
	if rec.Code != http.StatusOK {
		t.Fatalf("settings: got %d", rec.Code)
	}

	first := e.fx.CreateTask(ctx, e.team.ID, "first", models.TaskStatusTodo)
	second := e.fx.CreateTask(ctx, e.team.ID, "second", models.TaskStatusTodo)
	foreign := e.fx.CreateTask(ctx, primitive.NewObjectID(), "foreign", models.TaskStatusTodo)

	admit := func(id string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.h.HandleAdmit(rec, e.request(t, "POST", "/tasks/"+id, e.admin, nil, "taskID", id))
		return rec
	}

	if rec := admit(first.ID.Hex()); rec.Code != http.StatusOK {
		t.Fatalf("first admit: got %d, body %s", rec.Code, rec.Body.String())
	}
	if rec := admit(first.ID.Hex()); rec.Code != http.StatusOK {
		t.Errorf("re-admit of board task: got %d, want 200", rec.Code)
	}

	rec = admit(second.ID.Hex())
	if rec.Code != http.StatusConflict {
		t.Fatalf("over capacity: got %d, want 409", rec.Code)
	}
	var errBody map[string]string
	testutil.DecodeJSON(t, rec, &errBody)
	if errBody["error"] != "board capacity reached (1/1)" {
		t.Errorf("error: got %q", errBody["error"])
	}

	if rec := admit(foreign.ID.Hex()); rec.Code != http.StatusNotFound {
		t.Errorf("foreign task: got %d, want 404", rec.Code)
	}
	if rec := admit("bogus"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: got %d, want 400", rec.Code)
	}
}

func TestHandleRemove(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := httptest.NewRecorder()
	e.h.HandleSettings(rec, e.request(t, "PATCH", "/", e.leader, map[string]any{"maxTasks": 1}))
	if rec.Code != http.StatusOK {
		t.Fatalf("settings: got %d", rec.Code)
	}
	onBoard := e.fx.CreateBoardTask(ctx, e.team.ID, "on board", models.TaskStatusTodo)
	waiting := e.fx.CreateTask(ctx, e.team.ID, "waiting", models.TaskStatusTodo)

	call := func(method, id string, user primitive.ObjectID) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := e.request(t, method, "/tasks/"+id, user, nil, "taskID", id)
		if method == "DELETE" {
			e.h.HandleRemove(rec, req)
		} else {
			e.h.HandleAdmit(rec, req)
		}
		return rec
	}

	if rec := call("DELETE", onBoard.ID.Hex(), e.member); rec.Code != http.StatusForbidden {
		t.Errorf("member remove: got %d, want 403", rec.Code)
	}
	rec = call("DELETE", onBoard.ID.Hex(), e.admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove: got %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Task models.Task `json:"task"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if body.Task.OnBoard() {
		t.Error("task still carries the board label")
	}

	// The freed slot admits the waiting task.
	if rec := call("POST", waiting.ID.Hex(), e.admin); rec.Code != http.StatusOK {
		t.Errorf("admit after remove: got %d", rec.Code)
	}
	// Removing a task that is not on the board is a no-op.
	if rec := call("DELETE", onBoard.ID.Hex(), e.admin); rec.Code != http.StatusOK {
		t.Errorf("second remove: got %d", rec.Code)
	}
}

func TestServeOccupancy(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fx.CreateBoardTask(ctx, e.team.ID, "a", models.TaskStatusTodo)
	e.fx.CreateBoardTask(ctx, e.team.ID, "b", models.TaskStatusInProgress)
	e.fx.CreateBoardTask(ctx, e.team.ID, "c", models.TaskStatusInProgress)
	e.fx.CreateTask(ctx, e.team.ID, "backlog", models.TaskStatusTodo)

	rec := httptest.NewRecorder()
	e.h.HandleSettings(rec, e.request(t, "PATCH", "/", e.leader, map[string]any{
		"columns": []map[string]any{{"key": "in_progress", "wipLimit": 1}},
	}))

	rec = httptest.NewRecorder()
	e.h.ServeOccupancy(rec, e.request(t, "GET", "/occupancy", e.member, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var body struct {
		Occupancy capacity.Occupancy `json:"occupancy"`
	}
	testutil.DecodeJSON(t, rec, &body)
	occ := body.Occupancy
	if occ.Count != 3 || occ.MaxTasks != models.DefaultBoardMaxTasks {
		t.Errorf("totals: got %d/%d", occ.Count, occ.MaxTasks)
	}
	if len(occ.Columns) != 3 || occ.Columns[1].Count != 2 || !occ.Columns[1].Over {
		t.Errorf("in_progress column: got %+v", occ.Columns)
	}
}
