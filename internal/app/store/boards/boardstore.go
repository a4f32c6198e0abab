// internal/app/store/boards/boardstore.go
package boardstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/app/system/sanitize"
	"github.com/avattoli/MyTasks/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the kanban_boards collection (one document per team_id).
type Store struct {
	c               *mongo.Collection
	defaultMaxTasks int
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("kanban_boards"), defaultMaxTasks: models.DefaultBoardMaxTasks}
}

// WithDefaultMaxTasks returns a copy of s that creates boards with capacity n.
func (s *Store) WithDefaultMaxTasks(n int) *Store {
	cp := *s
	if n >= 0 {
		cp.defaultMaxTasks = n
	}
	return &cp
}

// Get returns the team's board or an apperr.ErrNotFound.
func (s *Store) Get(ctx context.Context, teamID primitive.ObjectID) (models.Board, error) {
	var b models.Board
	if err := s.c.FindOne(ctx, bson.M{"team_id": teamID}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Board{}, apperr.NotFound("board")
		}
		return models.Board{}, err
	}
	return b, nil
}

// Ensure returns the team's board, creating it with defaults when absent.
//
// Concurrent callers all end up with the same document: the unique team_id
// index rejects every insert but one, and the losers re-read the winner.
// created is true only for the caller whose insert succeeded.
func (s *Store) Ensure(ctx context.Context, teamID primitive.ObjectID) (b models.Board, created bool, err error) {
	b, err = s.Get(ctx, teamID)
	if err == nil {
		return b, false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return models.Board{}, false, err
	}

	now := time.Now().UTC()
	b = models.Board{
		ID:        primitive.NewObjectID(),
		TeamID:    teamID,
		MaxTasks:  s.defaultMaxTasks,
		Columns:   models.DefaultBoardColumns(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, b); err != nil {
		if wafflemongo.IsDup(err) {
			b, err = s.Get(ctx, teamID)
			return b, false, err
		}
		return models.Board{}, false, err
	}
	return b, true, nil
}

// ColumnPatch updates one column, matched by Key. Nil fields are left alone.
type ColumnPatch struct {
	Key      string  `json:"key"`
	Name     *string `json:"name,omitempty"`
	WIPLimit *int    `json:"wipLimit,omitempty"`
}

// Settings is a partial update of a board.
type Settings struct {
	MaxTasks *int          `json:"maxTasks,omitempty"`
	Columns  []ColumnPatch `json:"columns,omitempty"`
}

// UpdateSettings applies s to the team's board in one atomic update.
//
// MaxTasks and WIP limits are clamped to >= 0. Column patches address columns
// by key through array filters, so a key that matches no column changes
// nothing and is not an error. Only name and wip limit are mutable.
func (s *Store) UpdateSettings(ctx context.Context, teamID primitive.ObjectID, in Settings) (models.Board, error) {
	set := bson.M{}
	if in.MaxTasks != nil {
		set["max_tasks"] = clamp(*in.MaxTasks)
	}

	var filters []interface{}
	for i, p := range mergeColumnPatches(in.Columns) {
		if p.Name == nil && p.WIPLimit == nil {
			continue
		}
		ident := fmt.Sprintf("c%d", i)
		used := false
		if p.Name != nil {
			if name := sanitize.Name(*p.Name); name != "" {
				set["columns.$["+ident+"].name"] = name
				used = true
			}
		}
		if p.WIPLimit != nil {
			set["columns.$["+ident+"].wip_limit"] = clamp(*p.WIPLimit)
			used = true
		}
		// Mongo rejects array filters whose identifier is unused.
		if used {
			filters = append(filters, bson.M{ident + ".key": p.Key})
		}
	}

	if len(set) == 0 {
		return s.Get(ctx, teamID)
	}
	set["updated_at"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if len(filters) > 0 {
		opts.SetArrayFilters(options.ArrayFilters{Filters: filters})
	}

	var b models.Board
	err := s.c.FindOneAndUpdate(ctx, bson.M{"team_id": teamID}, bson.M{"$set": set}, opts).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Board{}, apperr.NotFound("board")
		}
		return models.Board{}, err
	}
	return b, nil
}

// DeleteByTeam removes the team's board, if any.
func (s *Store) DeleteByTeam(ctx context.Context, teamID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// mergeColumnPatches folds repeated keys into one patch (later fields win) so
// no two array filters target the same element, and drops blank keys.
func mergeColumnPatches(in []ColumnPatch) []ColumnPatch {
	out := make([]ColumnPatch, 0, len(in))
	pos := make(map[string]int, len(in))
	for _, p := range in {
		if p.Key == "" {
			continue
		}
		i, ok := pos[p.Key]
		if !ok {
			pos[p.Key] = len(out)
			out = append(out, p)
			continue
		}
		if p.Name != nil {
			out[i].Name = p.Name
		}
		if p.WIPLimit != nil {
			out[i].WIPLimit = p.WIPLimit
		}
	}
	return out
}
