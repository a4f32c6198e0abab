// internal/app/store/tasks/taskstore.go
package taskstore

import (
	"context"
	"errors"
	"time"

	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

// listSort is the order every task listing uses.
var listSort = bson.D{
	{Key: "status", Value: 1},
	{Key: "order", Value: 1},
	{Key: "created_at", Value: 1},
	{Key: "_id", Value: 1},
}

// Create inserts t, assigning an ID and timestamps when missing.
// Labels is stored as an array even when empty so $addToSet/$pull work on it.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if t.Labels == nil {
		t.Labels = []string{}
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Task{}, apperr.NotFound("task")
		}
		return models.Task{}, err
	}
	return t, nil
}

// CountOnBoard counts the team's tasks carrying the board label, whatever their status.
func (s *Store) CountOnBoard(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"team_id": teamID, "labels": models.BoardLabel})
}

// CountOnBoardByStatus groups the team's board tasks by status.
func (s *Store) CountOnBoardByStatus(ctx context.Context, teamID primitive.ObjectID) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"team_id": teamID, "labels": models.BoardLabel}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		N      int64  `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

// Update applies set and unset to the task in one write and returns the result.
// updated_at is always refreshed.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, set bson.M, unset []string) (models.Task, error) {
	if set == nil {
		set = bson.M{}
	}
	set["updated_at"] = time.Now().UTC()
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		u := bson.M{}
		for _, f := range unset {
			u[f] = ""
		}
		update["$unset"] = u
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, update)
}

// AddLabel adds label to the task's label set; adding a present label is a no-op.
func (s *Store) AddLabel(ctx context.Context, id primitive.ObjectID, label string) (models.Task, error) {
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$addToSet": bson.M{"labels": label},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
}

// RemoveLabel removes label from the task's label set.
func (s *Store) RemoveLabel(ctx context.Context, id primitive.ObjectID, label string) (models.Task, error) {
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$pull": bson.M{"labels": label},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

// Delete removes the task and returns the document as it was.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	var t models.Task
	if err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Task{}, apperr.NotFound("task")
		}
		return models.Task{}, err
	}
	return t, nil
}

// DeleteForTeam removes every task of the team and returns how many were deleted.
func (s *Store) DeleteForTeam(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByIDs returns the team's tasks among ids, optionally restricted to status.
// Ids that resolve to no task (or a task of another team) are skipped.
func (s *Store) ListByIDs(ctx context.Context, teamID primitive.ObjectID, ids []primitive.ObjectID, status string) ([]models.Task, error) {
	if len(ids) == 0 {
		return []models.Task{}, nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}, "team_id": teamID}
	if status != "" {
		filter["status"] = status
	}
	return s.find(ctx, filter)
}

// ListFilter narrows ListForTeam.
type ListFilter struct {
	OnBoard bool
	Status  string
}

// ListForTeam returns the team's tasks in board order.
func (s *Store) ListForTeam(ctx context.Context, teamID primitive.ObjectID, f ListFilter) ([]models.Task, error) {
	filter := bson.M{"team_id": teamID}
	if f.OnBoard {
		filter["labels"] = models.BoardLabel
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return s.find(ctx, filter)
}

// ExistingIDs reports which of ids still have a task document.
func (s *Store) ExistingIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	out := make(map[primitive.ObjectID]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = true
	}
	return out, cur.Err()
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Task, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(listSort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	tasks := []models.Task{}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Store) findOneAndUpdate(ctx context.Context, filter, update bson.M) (models.Task, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t models.Task
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Task{}, apperr.NotFound("task")
		}
		return models.Task{}, err
	}
	return t, nil
}
