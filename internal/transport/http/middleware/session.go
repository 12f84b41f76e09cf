package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"gopherblog/internal/app"
	"gopherblog/internal/model"
	"gopherblog/internal/pkg/sessiontoken"
)

const (
	// SessionCookie carries the signed session token.
	SessionCookie = "blog_session"

	ContextUserKey = "current_user"
)

// CurrentUser resolves the session cookie to a user and stores it in the
// request context. Any failure (missing cookie, bad signature, expired
// token, deleted account) leaves the request anonymous; it is never an
// error.
func CurrentUser(secret string, authService *app.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(SessionCookie)
		if err != nil || tokenString == "" {
			c.Next()
			return
		}

		claims, err := sessiontoken.Parse(secret, tokenString)
		if err != nil {
			clearSessionCookie(c)
			c.Next()
			return
		}

		user, err := authService.GetUserByID(claims.UserID)
		if err != nil || user == nil {
			clearSessionCookie(c)
			c.Next()
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// RequireAuth redirects anonymous requests to the login page, remembering
// the originally requested path so login can resume it.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserFrom(c) != nil {
			c.Next()
			return
		}

		next := url.QueryEscape(c.Request.URL.RequestURI())
		c.Redirect(http.StatusFound, "/login?next="+next)
		c.Abort()
	}
}

// UserFrom returns the authenticated user for this request, or nil.
func UserFrom(c *gin.Context) *model.User {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*model.User)
	if !ok {
		return nil
	}
	return user
}

func clearSessionCookie(c *gin.Context) {
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
}
