package sprints

import (
	"encoding/json"
	"time"

	"github.com/avattoli/MyTasks/internal/app/system/apperr"
	"github.com/avattoli/MyTasks/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type createRequest struct {
	Name      string     `json:"name"`
	Goal      string     `json:"goal"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	Status    string     `json:"status"`
	Order     float64    `json:"order"`
}

// optionalTime tells an absent key (Set false) from an explicit null.
type optionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *optionalTime) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

type updateRequest struct {
	Name      *string      `json:"name"`
	Goal      *string      `json:"goal"`
	StartDate optionalTime `json:"startDate"`
	EndDate   optionalTime `json:"endDate"`
	Status    *string      `json:"status"`
	Order     *float64     `json:"order"`
}

type addTaskRequest struct {
	TaskID primitive.ObjectID `json:"taskId"`
}

func validStatus(s string) bool {
	for _, v := range models.SprintStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func checkSprint(sp models.Sprint) error {
	if sp.Name == "" {
		return apperr.Invalid("name", "is required")
	}
	if !validStatus(sp.Status) {
		return apperr.Invalid("status", "must be one of planned, active, completed")
	}
	if sp.StartDate != nil && sp.EndDate != nil && sp.EndDate.Before(*sp.StartDate) {
		return apperr.Invalid("endDate", "must not be before startDate")
	}
	return nil
}
