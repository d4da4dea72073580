package http

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/domain"
)

const (
	// HeaderUserID carries the identity asserted by the upstream auth layer.
	HeaderUserID = "X-User-ID"

	clientTokenCookie = "ct"
	sessionUserKey    = "user_id"
	ctxUserKey        = "user_id"
	ctxAnonymousKey   = "anonymous"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

// IdentityMiddleware resolves the caller: upstream header first, then the
// identity remembered in the cookie session, then an anonymous client token.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		remembered, _ := sess.Get(sessionUserKey).(string)

		uid := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if uid == "" {
			uid = remembered
		}
		// Anonymous callers are rate limited by client IP.
		anonymous := uid == ""
		if anonymous {
			token, _ := c.Cookie(clientTokenCookie)
			if token == "" {
				token = genClientToken()
				c.SetCookie(clientTokenCookie, token, 3600*24*7, "/", "", false, true)
			}
			uid = token
		}
		if uid != remembered {
			sess.Set(sessionUserKey, uid)
			if err := sess.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save cookie session")
			}
		}
		c.Set(ctxUserKey, uid)
		c.Set(ctxAnonymousKey, anonymous)
		c.Next()
	}
}

func callerID(c *gin.Context) domain.UserID {
	return domain.UserID(c.GetString(ctxUserKey))
}

// actingUser is the user a join or end acts for. An upstream header always
// wins; otherwise a user_id in the body is taken as given.
func actingUser(c *gin.Context, body domain.UserID) domain.UserID {
	if strings.TrimSpace(c.GetHeader(HeaderUserID)) == "" && body != "" {
		return body
	}
	return callerID(c)
}
