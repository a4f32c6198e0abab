package teamstore

import (
	"context"

	"github.com/avattoli/MyTasks/internal/app/system/identity"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithLookups returns a copy of s whose Create uses the given pre-insert
// checks. A nil argument keeps the current check.
func (s *Store) WithLookups(slug, code identity.ExistsFunc, name func(context.Context, primitive.ObjectID, string) (bool, error)) *Store {
	cp := *s
	if slug != nil {
		cp.slugTaken = slug
	}
	if code != nil {
		cp.codeTaken = code
	}
	if name != nil {
		cp.nameTaken = name
	}
	return &cp
}
