// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the caller's ObjectID and a found flag.
// ok=true means an authenticated user with a non-zero id.
func UserCtx(r *http.Request) (userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || user.ID.IsZero() {
		return primitive.NilObjectID, false
	}
	return user.ID, true
}

// RequireUser is UserCtx for handlers that return errors: a missing caller is
// apperr.ErrUnauthorized.
func RequireUser(r *http.Request) (primitive.ObjectID, error) {
	id, ok := UserCtx(r)
	if !ok {
		return primitive.NilObjectID, apperr.ErrUnauthorized
	}
	return id, nil
}
