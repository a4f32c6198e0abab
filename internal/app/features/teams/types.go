package teams

import (
	"time"

	"github.com/avattoli/MyTasks/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type createRequest struct {
	TeamName string `json:"teamName"`
}

type joinRequest struct {
	JoinCode string `json:"joinCode"`
}

type roleRequest struct {
	Role string `json:"role"`
}

// teamSummary is a team without its member list.
type teamSummary struct {
	ID        primitive.ObjectID `json:"id"`
	Name      string             `json:"name"`
	Slug      string             `json:"slug"`
	JoinCode  string             `json:"joinCode"`
	LeaderID  primitive.ObjectID `json:"leaderId"`
	CreatedAt time.Time          `json:"createdAt"`
}

func summarize(t models.Team) teamSummary {
	return teamSummary{
		ID:        t.ID,
		Name:      t.Name,
		Slug:      t.Slug,
		JoinCode:  t.JoinCode,
		LeaderID:  t.LeaderID,
		CreatedAt: t.CreatedAt,
	}
}

// teamDetail adds the member list; the leader is reported separately.
type teamDetail struct {
	teamSummary
	Members []models.TeamMember `json:"members"`
}

func detail(t models.Team) teamDetail {
	members := t.Members
	if members == nil {
		members = []models.TeamMember{}
	}
	return teamDetail{teamSummary: summarize(t), Members: members}
}
