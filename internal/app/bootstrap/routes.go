// internal/app/bootstrap/routes.go
package bootstrap

import (
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/avattoli/MyTasks/internal/app/capacity"
	boardfeature "github.com/avattoli/MyTasks/internal/app/features/board"
	errorsfeature "github.com/avattoli/MyTasks/internal/app/features/errors"
	healthfeature "github.com/avattoli/MyTasks/internal/app/features/health"
	sprintsfeature "github.com/avattoli/MyTasks/internal/app/features/sprints"
	tasksfeature "github.com/avattoli/MyTasks/internal/app/features/tasks"
	teamsfeature "github.com/avattoli/MyTasks/internal/app/features/teams"
	"github.com/avattoli/MyTasks/internal/app/placement"
	"github.com/avattoli/MyTasks/internal/app/sprintset"
	boardstore "github.com/avattoli/MyTasks/internal/app/store/boards"
	sprintstore "github.com/avattoli/MyTasks/internal/app/store/sprints"
	taskstore "github.com/avattoli/MyTasks/internal/app/store/tasks"
	teamstore "github.com/avattoli/MyTasks/internal/app/store/teams"
	"github.com/avattoli/MyTasks/internal/app/system/auth"
	"github.com/avattoli/MyTasks/internal/app/system/keylock"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. The router loads the caller from a Bearer token or
// session cookie on every request; everything except /health requires one.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secret := appCfg.JWTSecret
	if secret == "" {
		key := securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, errors.New("generate dev jwt secret: no randomness available")
		}
		secret = hex.EncodeToString(key)
		logger.Warn("jwt_secret not set; using a random secret, tokens will not survive restarts")
	}

	authMgr, err := auth.NewManager(auth.Config{
		JWTSecret:     secret,
		TokenTTL:      appCfg.TokenTTL,
		SessionKey:    appCfg.SessionKey,
		SessionName:   appCfg.SessionName,
		SessionDomain: appCfg.SessionDomain,
		Secure:        coreCfg.Env == "prod",
	}, logger)
	if err != nil {
		logger.Error("auth manager init failed", zap.Error(err))
		return nil, err
	}

	return NewRouter(deps.MongoClient, deps.MongoDatabase, authMgr, appCfg, logger), nil
}

// NewRouter wires stores, board and sprint components, and feature handlers
// onto a chi router.
func NewRouter(client *mongo.Client, db *mongo.Database, authMgr *auth.Manager, appCfg AppConfig, logger *zap.Logger) chi.Router {
	// Stores
	teams := teamstore.New(db).WithJoinCodeLength(appCfg.JoinCodeLength)
	boards := boardstore.New(db).WithDefaultMaxTasks(appCfg.BoardDefaultMaxTasks)
	tasks := taskstore.New(db)
	sprints := sprintstore.New(db)

	// Components
	enf := capacity.New(boards, tasks, keylock.New(), logger)
	coord := placement.New(tasks, sprints, enf, logger)
	members := sprintset.New(sprints, tasks, logger)

	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	// Global identity middleware: puts the caller in context when a token or
	// session is present. Handlers read it via auth.CurrentUser(r).
	r.Use(authMgr.LoadUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(client, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Route("/teams", func(r chi.Router) {
		r.Use(auth.RequireSignedIn)

		boardHandler := boardfeature.NewHandler(teams, boards, tasks, enf, errLog, logger)
		r.Mount("/{slug}/board", boardfeature.Routes(boardHandler))

		sprintsHandler := sprintsfeature.NewHandler(teams, sprints, members, errLog, logger)
		r.Mount("/{slug}/sprints", sprintsfeature.Routes(sprintsHandler))

		tasksHandler := tasksfeature.NewHandler(teams, tasks, coord, errLog, logger)
		r.Mount("/{slug}/tasks", tasksfeature.Routes(tasksHandler))

		teamsHandler := teamsfeature.NewHandler(teams, boards, tasks, sprints, enf, errLog, logger)
		teamsHandler.Joins = newJoinLimiter(appCfg.JoinAttemptsPerMin)
		r.Mount("/", teamsfeature.Routes(teamsHandler))
	})

	return r
}
