// internal/app/store/teams/teamstore.go
package teamstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/app/system/identity"
	"github.com/avattoli/MyTasks/internal/app/system/indexes"
	"github.com/avattoli/MyTasks/internal/app/system/sanitize"
	"github.com/avattoli/MyTasks/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IndexLeaderName is the unique (leader_id, name_ci) index; a duplicate on it
// means DuplicateName rather than a slug/join code collision.
const IndexLeaderName = indexes.TeamsLeaderName

// MaxCreateAttempts bounds how many times Create regenerates slug and join code
// after losing an insert race on either unique index.
const MaxCreateAttempts = 3

type Store struct {
	c          *mongo.Collection
	codeLength int

	// pre-insert checks used by Create; the unique indexes have the final say
	slugTaken identity.ExistsFunc
	codeTaken identity.ExistsFunc
	nameTaken func(ctx context.Context, leaderID primitive.ObjectID, nameCI string) (bool, error)
}

func New(db *mongo.Database) *Store {
	s := &Store{c: db.Collection("teams"), codeLength: identity.JoinCodeLength}
	s.slugTaken = s.SlugExists
	s.codeTaken = s.JoinCodeExists
	s.nameTaken = s.LeaderHasName
	return s
}

// WithJoinCodeLength returns a copy of s drawing join codes of length n first.
func (s *Store) WithJoinCodeLength(n int) *Store {
	cp := *s
	if n > 0 {
		cp.codeLength = n
	}
	return &cp
}

// Create inserts a team led by leaderID.
//
// Slug and join code are generated against the collection, but the insert is
// what decides: a duplicate on either index regenerates both and tries again,
// up to MaxCreateAttempts, before reporting apperr.ErrConflict.
func (s *Store) Create(ctx context.Context, name string, leaderID primitive.ObjectID) (models.Team, error) {
	name = sanitize.Name(name)
	if name == "" {
		return models.Team{}, apperr.Invalid("teamName", "is required")
	}
	nameCI := text.Fold(name)

	dup, err := s.nameTaken(ctx, leaderID, nameCI)
	if err != nil {
		return models.Team{}, err
	}
	if dup {
		return models.Team{}, apperr.ErrDuplicateName
	}

	for attempt := 1; attempt <= MaxCreateAttempts; attempt++ {
		slug, err := identity.GenerateSlug(ctx, name, s.slugTaken)
		if err != nil {
			return models.Team{}, fmt.Errorf("generate slug: %w", err)
		}
		code, err := identity.PickJoinCode(ctx, s.codeLength, s.codeTaken)
		if err != nil {
			return models.Team{}, fmt.Errorf("generate join code: %w", err)
		}

		now := time.Now().UTC()
		t := models.Team{
			ID:        primitive.NewObjectID(),
			Name:      name,
			NameCI:    nameCI,
			Slug:      slug,
			JoinCode:  code,
			LeaderID:  leaderID,
			Members:   []models.TeamMember{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err = s.c.InsertOne(ctx, t)
		if err == nil {
			return t, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.Team{}, err
		}
		if dupOn(err, IndexLeaderName) {
			return models.Team{}, apperr.ErrDuplicateName
		}
		// slug or join code taken between check and insert; regenerate both
	}
	return models.Team{}, fmt.Errorf("slug or join code already exists, try again: %w", apperr.ErrConflict)
}

// Join admits userID to the team owning joinCode as an ACTIVE MEMBER.
//
// The append is one conditional update ("push only if no member has this
// user_id"), so concurrent joins by the same user yield exactly one entry.
// When the update matches nothing the team is re-read to tell an existing
// membership apart from a team deleted in between.
func (s *Store) Join(ctx context.Context, joinCode string, userID primitive.ObjectID) (models.Team, error) {
	code := identity.NormalizeJoinCode(joinCode)
	if code == "" {
		return models.Team{}, apperr.Invalid("joinCode", "is required")
	}

	team, err := s.GetByJoinCode(ctx, code)
	if err != nil {
		return models.Team{}, err
	}
	if team.LeaderID == userID {
		return models.Team{}, apperr.ErrAlreadyLeader
	}

	now := time.Now().UTC()
	member := models.TeamMember{
		UserID:   userID,
		Role:     models.MemberRoleMember,
		Status:   models.MemberStatusActive,
		JoinedAt: now,
	}
	filter := bson.M{"_id": team.ID, "members.user_id": bson.M{"$ne": userID}}
	update := bson.M{
		"$push": bson.M{"members": member},
		"$set":  bson.M{"updated_at": now},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Team
	err = s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Team{}, err
	}

	in, err := s.IsMember(ctx, team.ID, userID)
	if err != nil {
		return models.Team{}, err
	}
	if in {
		return models.Team{}, apperr.ErrAlreadyMember
	}
	return models.Team{}, apperr.NotFound("team")
}

// SetMemberRole changes the role of an existing member entry in place.
func (s *Store) SetMemberRole(ctx context.Context, teamID, userID primitive.ObjectID, role string) (models.Team, error) {
	if role != models.MemberRoleMember && role != models.MemberRoleAdmin {
		return models.Team{}, apperr.Invalid("role", `must be "MEMBER" or "ADMIN"`)
	}
	filter := bson.M{"_id": teamID, "members.user_id": userID}
	update := bson.M{"$set": bson.M{
		"members.$.role": role,
		"updated_at":     time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Team
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Team{}, apperr.NotFound("member")
		}
		return models.Team{}, err
	}
	return updated, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Team, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetBySlug(ctx context.Context, slug string) (models.Team, error) {
	return s.findOne(ctx, bson.M{"slug": strings.ToLower(strings.TrimSpace(slug))})
}

func (s *Store) GetByJoinCode(ctx context.Context, code string) (models.Team, error) {
	return s.findOne(ctx, bson.M{"join_code": identity.NormalizeJoinCode(code)})
}

// SlugExists is the identity.ExistsFunc used for slug generation.
func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	return s.exists(ctx, bson.M{"slug": strings.ToLower(slug)})
}

// JoinCodeExists is the identity.ExistsFunc used for join code generation.
func (s *Store) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	return s.exists(ctx, bson.M{"join_code": code})
}

// LeaderHasName reports whether leaderID already leads a team whose folded name is nameCI.
func (s *Store) LeaderHasName(ctx context.Context, leaderID primitive.ObjectID, nameCI string) (bool, error) {
	return s.exists(ctx, bson.M{"leader_id": leaderID, "name_ci": nameCI})
}

// IsMember reports whether userID has a member entry on the team.
func (s *Store) IsMember(ctx context.Context, teamID, userID primitive.ObjectID) (bool, error) {
	return s.exists(ctx, bson.M{"_id": teamID, "members.user_id": userID})
}

// ListForUser returns the teams userID leads or belongs to, by folded name.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Team, error) {
	filter := bson.M{"$or": []bson.M{
		{"leader_id": userID},
		{"members.user_id": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	teams := []models.Team{}
	if err := cur.All(ctx, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// Delete removes a team by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Team, error) {
	var t models.Team
	if err := s.c.FindOne(ctx, filter).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Team{}, apperr.NotFound("team")
		}
		return models.Team{}, err
	}
	return t, nil
}

func (s *Store) exists(ctx context.Context, filter bson.M) (bool, error) {
	err := s.c.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// dupOn reports whether a duplicate-key error names the given index.
func dupOn(err error, index string) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 && strings.Contains(e.Message, index) {
				return true
			}
		}
	}
	return strings.Contains(err.Error(), index)
}
