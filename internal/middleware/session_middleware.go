package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/neonmart/storefront-backend/config"
	"github.com/neonmart/storefront-backend/pkg/util"
)

// SessionIDKey is the gin context key holding the shopping session id
const SessionIDKey = "session_id"

// SessionMiddleware assigns every visitor an anonymous shopping session via a
// signed cookie. Carts are keyed by this id; there is no login.
type SessionMiddleware struct {
	secret     string
	cookieName string
	expiry     time.Duration
}

// NewSessionMiddleware creates the session middleware
func NewSessionMiddleware(cfg config.SessionConfig) *SessionMiddleware {
	return &SessionMiddleware{
		secret:     cfg.Secret,
		cookieName: cfg.CookieName,
		expiry:     cfg.Expiry,
	}
}

// Ensure resolves the request's session, minting a fresh one when the cookie
// is missing, expired or tampered with. It never rejects a request; a broken
// cookie just means a new empty session.
func (m *SessionMiddleware) Ensure() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		sessionID := ""
		if token, err := c.Cookie(m.cookieName); err == nil && token != "" {
			claims, err := util.ValidateSessionToken(token, m.secret)
			if err == nil {
				sessionID = claims.SessionID
			} else {
				log.Debug("Session cookie rejected, issuing a new session", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}

		if sessionID == "" {
			sessionID = uuid.NewString()
			token, err := util.GenerateSessionToken(sessionID, m.secret, m.expiry)
			if err != nil {
				log.Error("Failed to sign session token", err, nil)
			} else {
				c.SetCookie(m.cookieName, token, int(m.expiry.Seconds()), "/", "", false, true)
			}
			log.Debug("New shopping session issued", map[string]interface{}{
				"session_id": sessionID,
			})
		}

		c.Set(SessionIDKey, sessionID)
		c.Next()
	}
}

// GetSessionID returns the request's session id set by Ensure
func GetSessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
