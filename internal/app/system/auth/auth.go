// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avattoli/MyTasks/internal/app/system/httpjson"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Identity sources                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// Sources a request identity can come from.
const (
	SourceToken   = "token"
	SourceSession = "session"
	SourceTest    = "test"
)

const (
	DefaultSessionName = "mytasks-session"
	DefaultTokenTTL    = 24 * time.Hour

	userIDKey   = "user_id"
	userIDClaim = "userId"
)

// User is the authenticated caller injected into r.Context().
// Credentials are checked upstream; this service only trusts the id.
type User struct {
	ID     primitive.ObjectID
	Source string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*User)
	return u, ok
}

// WithTestUser injects userID into the request as if it had been authenticated.
func WithTestUser(r *http.Request, userID primitive.ObjectID) *http.Request {
	return withUser(r, &User{ID: userID, Source: SourceTest})
}

func withUser(r *http.Request, u *User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Manager                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// Config configures a Manager.
type Config struct {
	JWTSecret     string
	TokenTTL      time.Duration
	SessionKey    string
	SessionName   string
	SessionDomain string
	Secure        bool
}

// Manager resolves the caller from a Bearer JWT or, failing that, a cookie session.
type Manager struct {
	secret   []byte
	tokenTTL time.Duration
	store    *sessions.CookieStore
	name     string
	log      *zap.Logger
}

// NewManager builds a Manager. An empty session key gets a random one, which
// means sessions do not survive a restart; that is only acceptable in dev.
func NewManager(cfg Config, logger *zap.Logger) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is empty")
	}

	key := []byte(cfg.SessionKey)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, errors.New("generate session key: no randomness available")
		}
		logger.Warn("session_key not set; using a random key, sessions will not survive restarts")
	} else if len(key) < 32 {
		logger.Warn("session key is short; 32+ chars recommended", zap.Int("length", len(key)))
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Domain:   cfg.SessionDomain,
		Path:     "/",
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if cfg.Secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}

	name := cfg.SessionName
	if name == "" {
		name = DefaultSessionName
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	logger.Info("auth manager initialized",
		zap.Bool("secure", cfg.Secure),
		zap.String("session_name", name),
		zap.Duration("token_ttl", ttl))

	return &Manager{
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: ttl,
		store:    store,
		name:     name,
		log:      logger,
	}, nil
}

// LoadUser injects the caller into context when a valid token or session is present.
// An invalid Bearer token is ignored here and leaves the request anonymous.
func (m *Manager) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok, ok := bearer(r); ok {
			id, err := m.ParseToken(tok)
			if err == nil {
				next.ServeHTTP(w, withUser(r, &User{ID: id, Source: SourceToken}))
				return
			}
			m.log.Debug("rejected bearer token", zap.Error(err))
		}

		if sess, err := m.store.Get(r, m.name); err == nil {
			if hex, ok := sess.Values[userIDKey].(string); ok {
				if id, err := primitive.ObjectIDFromHex(hex); err == nil {
					r = withUser(r, &User{ID: id, Source: SourceSession})
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn answers 401 with a JSON message when no user is in context.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := CurrentUser(r); ok && !u.ID.IsZero() {
			next.ServeHTTP(w, r)
			return
		}
		httpjson.Error(w, http.StatusUnauthorized, "Unauthorized")
	})
}

// SignIn stores userID in the cookie session. Sessions are normally written by
// the sign-in service that shares session_key; this service only reads them.
func (m *Manager) SignIn(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values[userIDKey] = userID.Hex()
	return sess.Save(r, w)
}

// IssueToken signs an HS256 token for userID valid for the configured TTL.
func (m *Manager) IssueToken(userID primitive.ObjectID) (string, error) {
	return IssueToken(m.secret, userID, m.tokenTTL)
}

// ParseToken validates tok and returns the user id it names.
func (m *Manager) ParseToken(tok string) (primitive.ObjectID, error) {
	return ParseToken(m.secret, tok)
}

// IssueToken signs an HS256 token carrying userID in the userId claim.
func IssueToken(secret []byte, userID primitive.ObjectID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		userIDClaim: userID.Hex(),
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken verifies an HS256 token and extracts the userId claim.
func ParseToken(secret []byte, tok string) (primitive.ObjectID, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("parse token: %w", err)
	}
	hex, _ := claims[userIDClaim].(string)
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("token %s claim: %w", userIDClaim, err)
	}
	return id, nil
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[7:])
	return tok, tok != ""
}
