package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/indiancoinstore/coinstore-backend/internal/errors"
	"github.com/indiancoinstore/coinstore-backend/internal/session"
)

const (
	SessionHeader = "X-Session-Token"
	sessionKey    = "session"
)

// SessionMiddleware attaches the caller's guest session, starting a new one
// when the request carries no valid token.
type SessionMiddleware struct {
	tokens     *session.TokenIssuer
	registry   *session.Registry
	cookieName string
	maxAge     time.Duration
}

func NewSessionMiddleware(tokens *session.TokenIssuer, registry *session.Registry, cookieName string, maxAge time.Duration) *SessionMiddleware {
	return &SessionMiddleware{
		tokens:     tokens,
		registry:   registry,
		cookieName: cookieName,
		maxAge:     maxAge,
	}
}

// tokenFrom checks the header, then the cookie, then the query string used
// by websocket clients
func (m *SessionMiddleware) tokenFrom(c *gin.Context) string {
	if token := c.GetHeader(SessionHeader); token != "" {
		return token
	}
	if token, err := c.Cookie(m.cookieName); err == nil && token != "" {
		return token
	}
	return c.Query("token")
}

func (m *SessionMiddleware) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token := m.tokenFrom(c)
		id := ""
		if token != "" {
			parsed, err := m.tokens.Parse(token)
			if err != nil {
				log.Warn("Discarding invalid session token", map[string]interface{}{
					"error": err.Error(),
				})
			} else {
				id = parsed
			}
		}

		if id == "" {
			var err error
			token, id, err = m.tokens.Issue()
			if err != nil {
				log.Error("Failed to issue session token", err)
				errors.InternalError(c, "")
				c.Abort()
				return
			}
			log.Info("Guest session started", map[string]interface{}{
				"session_id": id,
			})
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(m.cookieName, token, int(m.maxAge.Seconds()), "/", "", false, true)
		c.Header(SessionHeader, token)

		c.Set(sessionKey, m.registry.Get(c.Request.Context(), id))
		c.Next()
	}
}

// GetSession returns the session attached by SessionMiddleware
func GetSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*session.Session)
	return s, ok
}
