// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Names of the unique indexes the stores depend on for correctness.
// The team store classifies duplicate-key errors by these names.
const (
	TeamsSlug       = "uniq_teams_slug"
	TeamsJoinCode   = "uniq_teams_join_code"
	TeamsLeaderName = "uniq_teams_leader_nameci"
	BoardsTeam      = "uniq_boards_team"
)

/*
EnsureAll is called at startup and by `mytasksctl ensure-indexes`.
Each ensure* function is idempotent. Errors are aggregated so every problem
is visible at once and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureTeams(ctx, db); err != nil {
		problems = append(problems, "teams: "+err.Error())
	}
	if err := ensureBoards(ctx, db); err != nil {
		problems = append(problems, "kanban_boards: "+err.Error())
	}
	if err := ensureTasks(ctx, db); err != nil {
		problems = append(problems, "tasks: "+err.Error())
	}
	if err := ensureSprints(ctx, db); err != nil {
		problems = append(problems, "sprints: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconciler                                                                 */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

type desiredIndex struct {
	model  mongo.IndexModel
	name   string
	unique bool
	sig    string
}

func describe(m mongo.IndexModel) desiredIndex {
	d := desiredIndex{model: m, sig: keySig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		if m.Options.Unique != nil {
			d.unique = *m.Options.Unique
		}
	}
	return d
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(p *bool) bool { return p != nil && *p }

// Mongo and DocumentDB return IndexOptionsConflict when an index with the same
// keys exists under a different name or options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listBySig(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

// ensureIndexSet reconciles each desired index against what the collection has:
// same keys and options under another name are renamed, same keys with other
// options are dropped and recreated, missing ones are created.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	for _, m := range models {
		d := describe(m)
		start := time.Now()
		action, err := reconcile(ctx, coll, d)
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Bool("unique", d.unique),
			zap.Duration("took", time.Since(start)),
		}
		if err != nil {
			zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), d.name, err))
			continue
		}
		zap.L().Info("index "+action, fields...)
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func reconcile(ctx context.Context, coll *mongo.Collection, d desiredIndex) (string, error) {
	if ex, ok := listBySig(ctx, coll)[d.sig]; ok {
		return replaceIfDifferent(ctx, coll, d, ex)
	}

	_, err := coll.Indexes().CreateOne(ctx, d.model)
	if err == nil {
		return "created", nil
	}
	if !isOptionsConflictErr(err) {
		return "", createErr(d, err)
	}
	// Lost a race or the server matched on something we did not list; look again.
	if ex, ok := listBySig(ctx, coll)[d.sig]; ok {
		return replaceIfDifferent(ctx, coll, d, ex)
	}
	return "", err
}

func replaceIfDifferent(ctx context.Context, coll *mongo.Collection, d desiredIndex, ex existingIndex) (string, error) {
	sameOpts := d.unique == isUnique(ex.Unique)
	if sameOpts && (d.name == "" || ex.Name == d.name) {
		return "reused", nil
	}
	if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
		return "", fmt.Errorf("drop %s: %w", ex.Name, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, d.model); err != nil {
		return "", createErr(d, err)
	}
	if sameOpts {
		return "renamed", nil
	}
	return "recreated", nil
}

func createErr(d desiredIndex, err error) error {
	if d.unique && wafflemongo.IsDup(err) {
		return fmt.Errorf("cannot create unique index (duplicates present on %s)", d.sig)
	}
	return err
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                             */
/* -------------------------------------------------------------------------- */

func ensureTeams(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("teams")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(TeamsSlug),
		},
		{
			Keys:    bson.D{{Key: "join_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(TeamsJoinCode),
		},
		// A leader cannot lead two teams whose names fold to the same value.
		{
			Keys:    bson.D{{Key: "leader_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(TeamsLeaderName),
		},
		// "my teams" as member
		{
			Keys:    bson.D{{Key: "members.user_id", Value: 1}},
			Options: options.Index().SetName("idx_teams_member"),
		},
	})
}

func ensureBoards(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("kanban_boards")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One board per team; lazy creation relies on this.
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(BoardsTeam),
		},
	})
}

func ensureTasks(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("tasks")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Occupancy counts
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}, {Key: "labels", Value: 1}},
			Options: options.Index().SetName("idx_tasks_team_labels"),
		},
		// Team and sprint listings sort by (status, order, created_at)
		{
			Keys: bson.D{
				{Key: "team_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "order", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("idx_tasks_team_status_order"),
		},
		{
			Keys:    bson.D{{Key: "assignee_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_tasks_assignee_status"),
		},
		{
			Keys:    bson.D{{Key: "parent_id", Value: 1}},
			Options: options.Index().SetName("idx_tasks_parent"),
		},
	})
}

func ensureSprints(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("sprints")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}, {Key: "status", Value: 1}, {Key: "order", Value: 1}},
			Options: options.Index().SetName("idx_sprints_team_status_order"),
		},
		// Eager removal of a deleted task from its team's sprints
		{
			Keys:    bson.D{{Key: "task_ids", Value: 1}},
			Options: options.Index().SetName("idx_sprints_task_ids"),
		},
	})
}
