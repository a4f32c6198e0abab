// internal/app/policy/teampolicy/teampolicy.go
package teampolicy

import (
	"context"
	"net/http"

	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/app/system/authz"
	"github.com/avattoli/MyTasks/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is a user's effective role on one team.
type Role string

const (
	RoleLeader Role = "LEADER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
	RoleNone   Role = "NONE"
)

// Access is the level an operation needs.
type Access int

const (
	// Read covers listing and viewing team data.
	Read Access = iota
	// Write covers creating and changing boards, sprints and tasks.
	Write
	// Lead covers managing member roles.
	Lead
)

// RoleOf derives userID's role on team. The leader is LEADER regardless of any
// member entry; otherwise the member entry's role applies.
func RoleOf(userID primitive.ObjectID, team models.Team) Role {
	if userID.IsZero() {
		return RoleNone
	}
	if team.LeaderID == userID {
		return RoleLeader
	}
	m, ok := team.Member(userID)
	if !ok {
		return RoleNone
	}
	if m.Role == models.MemberRoleAdmin {
		return RoleAdmin
	}
	return RoleMember
}

// Allows reports whether role grants access.
func (r Role) Allows(access Access) bool {
	switch access {
	case Read:
		return r == RoleLeader || r == RoleAdmin || r == RoleMember
	case Write:
		return r == RoleLeader || r == RoleAdmin
	case Lead:
		return r == RoleLeader
	default:
		return false
	}
}

// Require returns nil when userID has access on team, apperr.ErrUnauthorized
// for a missing user and apperr.ErrForbidden otherwise.
func Require(userID primitive.ObjectID, team models.Team, access Access) error {
	if userID.IsZero() {
		return apperr.ErrUnauthorized
	}
	if !RoleOf(userID, team).Allows(access) {
		return apperr.ErrForbidden
	}
	return nil
}

func RequireRead(userID primitive.ObjectID, team models.Team) error {
	return Require(userID, team, Read)
}

func RequireWrite(userID primitive.ObjectID, team models.Team) error {
	return Require(userID, team, Write)
}

func RequireLeader(userID primitive.ObjectID, team models.Team) error {
	return Require(userID, team, Lead)
}

// TeamGetter is the slice of the team store the request helper needs.
type TeamGetter interface {
	GetBySlug(ctx context.Context, slug string) (models.Team, error)
}

// ForRequest resolves the caller and the team named by slug and checks access.
// A missing caller is reported before the team lookup.
func ForRequest(ctx context.Context, r *http.Request, teams TeamGetter, slug string, access Access) (models.Team, primitive.ObjectID, error) {
	userID, err := authz.RequireUser(r)
	if err != nil {
		return models.Team{}, primitive.NilObjectID, err
	}
	team, err := teams.GetBySlug(ctx, slug)
	if err != nil {
		return models.Team{}, primitive.NilObjectID, err
	}
	if err := Require(userID, team, access); err != nil {
		return models.Team{}, primitive.NilObjectID, err
	}
	return team, userID, nil
}
