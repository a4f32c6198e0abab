package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member roles stored on a team's members array. The leader is never a member entry.
const (
	MemberRoleMember = "MEMBER"
	MemberRoleAdmin  = "ADMIN"

	MemberStatusActive = "ACTIVE"
)

// Team is a group of users led by exactly one leader.
//
// Slug and JoinCode are globally unique (enforced by indexes). LeaderID is set at
// creation and never changes. Members holds at most one entry per user and never
// contains the leader.
type Team struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	NameCI   string             `bson:"name_ci" json:"-"`
	Slug     string             `bson:"slug" json:"slug"`
	JoinCode string             `bson:"join_code" json:"joinCode"`
	LeaderID primitive.ObjectID `bson:"leader_id" json:"leaderId"`
	Members  []TeamMember       `bson:"members" json:"members"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// TeamMember is one entry in Team.Members.
type TeamMember struct {
	UserID   primitive.ObjectID `bson:"user_id" json:"userId"`
	Role     string             `bson:"role" json:"role"`     // "MEMBER" | "ADMIN"
	Status   string             `bson:"status" json:"status"` // "ACTIVE"
	JoinedAt time.Time          `bson:"joined_at" json:"joinedAt"`
}

// Member returns the member entry for userID, if any.
func (t Team) Member(userID primitive.ObjectID) (TeamMember, bool) {
	for _, m := range t.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return TeamMember{}, false
}
