// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/avattoli/MyTasks/internal/app/system/auth"
	"github.com/avattoli/MyTasks/internal/app/system/identity"
	"github.com/avattoli/MyTasks/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for MyTasks.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: MYTASKS_MONGO_URI, MYTASKS_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "mytasks", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Identity
	{Name: "jwt_secret", Default: "", Desc: "HS256 secret for Bearer tokens (required outside dev)"},
	{Name: "token_ttl", Default: "24h", Desc: "Lifetime of issued tokens"},
	{Name: "session_key", Default: "", Desc: "Session signing key (random per process when blank)"},
	{Name: "session_name", Default: auth.DefaultSessionName, Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Teams and boards
	{Name: "board_default_max_tasks", Default: models.DefaultBoardMaxTasks, Desc: "Capacity of a newly created board"},
	{Name: "join_code_length", Default: identity.JoinCodeLength, Desc: "Join code length"},
	{Name: "join_attempts_per_min", Default: 10, Desc: "Join attempts per user per minute (0 disables)"},

	// Background work
	{Name: "sprint_sweep_interval", Default: "1h", Desc: "How often to drop deleted tasks from sprints (0 disables)"},

	// Request budgets
	{Name: "timeout_short", Default: "", Desc: "Budget for single-document operations (e.g., 5s)"},
	{Name: "timeout_medium", Default: "", Desc: "Budget for multi-step operations (e.g., 10s)"},
	{Name: "timeout_long", Default: "", Desc: "Budget for sweeps and index builds (e.g., 30s)"},
}

// Shorter codes make guessing a team's code practical.
const minJoinCodeLength = 4

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges, with precedence
// flags > env > files > defaults:
//   - .env files
//   - config.yaml/json/toml files
//   - environment variables (WAFFLE_* for core, MYTASKS_* for app)
//   - command-line flags
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MYTASKS", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:     appValues.String("jwt_secret"),
		TokenTTL:      appValues.Duration("token_ttl", auth.DefaultTokenTTL),
		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		BoardDefaultMaxTasks: appValues.Int("board_default_max_tasks"),
		JoinCodeLength:       appValues.Int("join_code_length"),
		JoinAttemptsPerMin:   appValues.Int("join_attempts_per_min"),

		SprintSweepInterval: appValues.Duration("sprint_sweep_interval", time.Hour),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Only dev may run without a JWT secret; it then gets a random one per process.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must not be empty")
	}
	if appCfg.JWTSecret == "" && coreCfg.Env != "dev" {
		return fmt.Errorf("jwt_secret is required when env is %q", coreCfg.Env)
	}
	if appCfg.BoardDefaultMaxTasks < 0 {
		return fmt.Errorf("board_default_max_tasks must be >= 0, got %d", appCfg.BoardDefaultMaxTasks)
	}
	if appCfg.JoinCodeLength < minJoinCodeLength {
		return fmt.Errorf("join_code_length must be >= %d, got %d", minJoinCodeLength, appCfg.JoinCodeLength)
	}
	if appCfg.SprintSweepInterval < 0 {
		return fmt.Errorf("sprint_sweep_interval must not be negative")
	}
	return nil
}
