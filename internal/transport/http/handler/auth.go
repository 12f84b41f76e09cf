package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gopherblog/internal/app"
	"gopherblog/internal/config"
	"gopherblog/internal/pkg/sessiontoken"
	"gopherblog/internal/transport/http/middleware"
)

type AuthHandler struct {
	authService *app.AuthService
	authConfig  config.AuthConfig
}

type SignupForm struct {
	Username string `form:"username" binding:"required,max=60"`
	Email    string `form:"email" binding:"required,email,max=120"`
	Password string `form:"password" binding:"required,min=6"`
	Confirm  string `form:"confirm" binding:"required,eqfield=Password"`
}

type LoginForm struct {
	Identifier string `form:"identifier" binding:"required"`
	Password   string `form:"password" binding:"required"`
	Remember   bool   `form:"remember"`
}

func NewAuthHandler(authService *app.AuthService, authConfig config.AuthConfig) *AuthHandler {
	return &AuthHandler{authService: authService, authConfig: authConfig}
}

func (h *AuthHandler) SignupForm(c *gin.Context) {
	if middleware.UserFrom(c) != nil {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	render(c, http.StatusOK, "signup.html", gin.H{"Form": SignupForm{}})
}

func (h *AuthHandler) Signup(c *gin.Context) {
	if middleware.UserFrom(c) != nil {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}

	var form SignupForm
	if err := c.ShouldBind(&form); err != nil {
		render(c, http.StatusBadRequest, "signup.html", gin.H{
			"Form":  form,
			"Error": formErrorMessage(err),
		})
		return
	}

	_, err := h.authService.Register(app.RegisterInput{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		var message string
		switch {
		case errors.Is(err, app.ErrUsernameExists):
			message = "Username already taken."
		case errors.Is(err, app.ErrEmailExists):
			message = "Email already registered."
		case errors.Is(err, app.ErrInvalidInput):
			message = "All fields are required."
		default:
			RenderError(c, http.StatusInternalServerError)
			return
		}
		render(c, http.StatusBadRequest, "signup.html", gin.H{
			"Form":  form,
			"Error": message,
		})
		return
	}

	setFlash(c, "success", "Account created. Please log in.")
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *AuthHandler) LoginForm(c *gin.Context) {
	if middleware.UserFrom(c) != nil {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	render(c, http.StatusOK, "login.html", gin.H{
		"Form": LoginForm{},
		"Next": c.Query("next"),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	if middleware.UserFrom(c) != nil {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}

	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		render(c, http.StatusBadRequest, "login.html", gin.H{
			"Form":  form,
			"Next":  c.Query("next"),
			"Error": formErrorMessage(err),
		})
		return
	}

	user, err := h.authService.Verify(form.Identifier, form.Password)
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredential) {
			render(c, http.StatusUnauthorized, "login.html", gin.H{
				"Form":  form,
				"Next":  c.Query("next"),
				"Error": "Invalid username or password.",
			})
			return
		}
		RenderError(c, http.StatusInternalServerError)
		return
	}

	ttl := time.Duration(h.authConfig.SessionTTLMinute) * time.Minute
	maxAge := 0 // session cookie, discarded when the browser closes
	if form.Remember {
		ttl = time.Duration(h.authConfig.RememberTTLHour) * time.Hour
		maxAge = int(ttl.Seconds())
	}

	token, err := sessiontoken.Issue(h.authConfig.SessionSecret, ttl, user.ID, user.Username)
	if err != nil {
		RenderError(c, http.StatusInternalServerError)
		return
	}
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", false, true)

	setFlash(c, "success", "Logged in successfully.")
	c.Redirect(http.StatusSeeOther, safeNext(c.Query("next")))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	setFlash(c, "success", "Logged out.")
	c.Redirect(http.StatusFound, "/")
}

// safeNext keeps post-login redirects on this site: only local paths are
// honored.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return "/dashboard"
}
