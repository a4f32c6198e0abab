// internal/app/store/sprints/sprintstore.go
package sprintstore

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
	return &Store{c: db.Collection("sprints")}
}

// Create inserts sp. Status defaults to planned; TaskIDs is stored as an
// array even when empty so $addToSet/$pull work on it.
func (s *Store) Create(ctx context.Context, sp models.Sprint) (models.Sprint, error) {
	if sp.ID.IsZero() {
		sp.ID = primitive.NewObjectID()
	}
	if sp.Status == "" {
		sp.Status = models.SprintStatusPlanned
	}
	if sp.TaskIDs == nil {
		sp.TaskIDs = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	sp.CreatedAt = now
	sp.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, sp); err != nil {
		return models.Sprint{}, err
	}
	return sp, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Sprint, error) {
	var sp models.Sprint
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Sprint{}, apperr.NotFound("sprint")
		}
		return models.Sprint{}, err
	}
	return sp, nil
}

// GetForTeam returns the sprint only if it belongs to teamID.
func (s *Store) GetForTeam(ctx context.Context, teamID, id primitive.ObjectID) (models.Sprint, error) {
	var sp models.Sprint
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "team_id": teamID}).Decode(&sp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Sprint{}, apperr.NotFound("sprint")
		}
		return models.Sprint{}, err
	}
	return sp, nil
}

// ListForTeam returns the team's sprints by (status, order, created_at),
// optionally restricted to status.
func (s *Store) ListForTeam(ctx context.Context, teamID primitive.ObjectID, status string) ([]models.Sprint, error) {
	filter := bson.M{"team_id": teamID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "status", Value: 1},
		{Key: "order", Value: 1},
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Sprint{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies set and unset to the team's sprint in one write and returns the result.
func (s *Store) Update(ctx context.Context, teamID, id primitive.ObjectID, set bson.M, unset []string) (models.Sprint, error) {
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
	return s.findOneAndUpdate(ctx, bson.M{"_id": id, "team_id": teamID}, update)
}

// Delete removes the team's sprint. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, teamID, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "team_id": teamID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteForTeam removes every sprint of the team.
func (s *Store) DeleteForTeam(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// AddTask adds taskID to the sprint's set; an id already present is left alone.
func (s *Store) AddTask(ctx context.Context, sprintID, taskID primitive.ObjectID) (models.Sprint, error) {
	return s.findOneAndUpdate(ctx, bson.M{"_id": sprintID}, bson.M{
		"$addToSet": bson.M{"task_ids": taskID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
}

// RemoveTask pulls taskID from the sprint's set; an absent id is a no-op.
func (s *Store) RemoveTask(ctx context.Context, sprintID, taskID primitive.ObjectID) (models.Sprint, error) {
	return s.findOneAndUpdate(ctx, bson.M{"_id": sprintID}, bson.M{
		"$pull": bson.M{"task_ids": taskID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

// PullTaskFromTeam removes taskID from every sprint of teamID that holds it.
// Returns the number of sprints modified.
func (s *Store) PullTaskFromTeam(ctx context.Context, teamID, taskID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"team_id": teamID, "task_ids": taskID},
		bson.M{
			"$pull": bson.M{"task_ids": taskID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// PullTasks removes all of taskIDs from one sprint.
func (s *Store) PullTasks(ctx context.Context, sprintID primitive.ObjectID, taskIDs []primitive.ObjectID) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": sprintID},
		bson.M{
			"$pull": bson.M{"task_ids": bson.M{"$in": taskIDs}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// EachWithTasks calls fn for every sprint holding at least one task id.
// Only _id, team_id and task_ids are loaded.
func (s *Store) EachWithTasks(ctx context.Context, fn func(models.Sprint) error) error {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "team_id": 1, "task_ids": 1}).
		SetBatchSize(200)
	cur, err := s.c.Find(ctx, bson.M{"task_ids.0": bson.M{"$exists": true}}, opts)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var sp models.Sprint
		if err := cur.Decode(&sp); err != nil {
			return err
		}
		if err := fn(sp); err != nil {
			return err
		}
	}
	return cur.Err()
}

func (s *Store) findOneAndUpdate(ctx context.Context, filter, update bson.M) (models.Sprint, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var sp models.Sprint
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&sp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Sprint{}, apperr.NotFound("sprint")
		}
		return models.Sprint{}, err
	}
	return sp, nil
}
