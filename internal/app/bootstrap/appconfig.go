// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). Framework-level settings such as
// ports, TLS, log level and CORS live in WAFFLE's CoreConfig instead.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Identity: Bearer tokens first, then the cookie session
	JWTSecret     string        // HS256 signing secret for Bearer tokens (required outside dev)
	TokenTTL      time.Duration // Lifetime of tokens issued by mytasksctl token
	SessionKey    string        // Secret key for signing session cookies
	SessionName   string        // Cookie name for sessions (default: mytasks-session)
	SessionDomain string        // Cookie domain (blank means current host)

	// Teams and boards
	BoardDefaultMaxTasks int // Capacity of a newly created board
	JoinCodeLength       int // Base join code length; the last attempt adds two
	JoinAttemptsPerMin   int // Join attempts per user per minute; 0 disables throttling

	// Background work
	SprintSweepInterval time.Duration // 0 disables the dangling sprint task sweeper

	// Request budgets; zero keeps the package defaults
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
