package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/avattoli/MyTasks/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that call a handler method directly.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures inserts documents directly, bypassing stores and their checks.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateTeam inserts a team led by leaderID with the given extra members (role MEMBER).
func (f *Fixtures) CreateTeam(ctx context.Context, name string, leaderID primitive.ObjectID, members ...primitive.ObjectID) models.Team {
	f.t.Helper()

	now := time.Now().UTC()
	id := primitive.NewObjectID()
	team := models.Team{
		ID:        id,
		Name:      name,
		NameCI:    text.Fold(name),
		Slug:      "team-" + id.Hex(),
		JoinCode:  "J" + id.Hex()[16:],
		LeaderID:  leaderID,
		Members:   []models.TeamMember{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, m := range members {
		team.Members = append(team.Members, models.TeamMember{
			UserID:   m,
			Role:     models.MemberRoleMember,
			Status:   models.MemberStatusActive,
			JoinedAt: now,
		})
	}

	if _, err := f.db.Collection("teams").InsertOne(ctx, team); err != nil {
		f.t.Fatalf("failed to create fixture team: %v", err)
	}
	return team
}

// AddAdmin appends userID to the team as an ADMIN.
func (f *Fixtures) AddAdmin(ctx context.Context, team *models.Team, userID primitive.ObjectID) {
	f.t.Helper()

	m := models.TeamMember{
		UserID:   userID,
		Role:     models.MemberRoleAdmin,
		Status:   models.MemberStatusActive,
		JoinedAt: time.Now().UTC(),
	}
	_, err := f.db.Collection("teams").UpdateByID(ctx, team.ID, bson.M{
		"$push": bson.M{"members": m},
	})
	if err != nil {
		f.t.Fatalf("failed to add fixture admin: %v", err)
	}
	team.Members = append(team.Members, m)
}

// CreateTask inserts a task for teamID with the given status and labels.
func (f *Fixtures) CreateTask(ctx context.Context, teamID primitive.ObjectID, title, status string, labels ...string) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	if labels == nil {
		labels = []string{}
	}
	tid := teamID
	task := models.Task{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Status:    status,
		TeamID:    &tid,
		Type:      models.TaskTypeTask,
		Priority:  models.PriorityMedium,
		UserID:    primitive.NewObjectID(),
		Labels:    labels,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create fixture task: %v", err)
	}
	return task
}

// CreateBoardTask inserts a task that already carries the board label.
func (f *Fixtures) CreateBoardTask(ctx context.Context, teamID primitive.ObjectID, title, status string) models.Task {
	f.t.Helper()
	return f.CreateTask(ctx, teamID, title, status, models.BoardLabel)
}

// CreateSprint inserts a planned sprint for teamID holding taskIDs.
func (f *Fixtures) CreateSprint(ctx context.Context, teamID primitive.ObjectID, name string, taskIDs ...primitive.ObjectID) models.Sprint {
	f.t.Helper()

	now := time.Now().UTC()
	if taskIDs == nil {
		taskIDs = []primitive.ObjectID{}
	}
	sp := models.Sprint{
		ID:        primitive.NewObjectID(),
		TeamID:    teamID,
		Name:      name,
		Status:    models.SprintStatusPlanned,
		TaskIDs:   taskIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("sprints").InsertOne(ctx, sp); err != nil {
		f.t.Fatalf("failed to create fixture sprint: %v", err)
	}
	return sp
}
