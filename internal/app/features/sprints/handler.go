// internal/app/features/sprints/handler.go
package sprints

import (
	uierrors "github.com/avattoli/MyTasks/internal/app/features/errors"
	"github.com/avattoli/MyTasks/internal/app/sprintset"
	sprintstore "github.com/avattoli/MyTasks/internal/app/store/sprints"
	teamstore "github.com/avattoli/MyTasks/internal/app/store/teams"
	"go.uber.org/zap"
)

// Handler serves a team's sprints and their task sets.
type Handler struct {
	Teams   *teamstore.Store
	Sprints *sprintstore.Store
	Members *sprintset.Manager
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

// NewHandler creates a new sprints Handler.
func NewHandler(teams *teamstore.Store, sprints *sprintstore.Store, members *sprintset.Manager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Teams:   teams,
		Sprints: sprints,
		Members: members,
		ErrLog:  errLog,
		Log:     logger,
	}
}
