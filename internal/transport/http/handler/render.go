package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherblog/internal/transport/http/middleware"
)

// render draws a template with the ambient page context (current user and
// any pending flash message) merged in.
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["CurrentUser"] = middleware.UserFrom(c)
	if _, ok := data["Flash"]; !ok {
		data["Flash"] = popFlash(c)
	}
	c.HTML(status, name, data)
}

// RenderError draws the dedicated 403/404/500 page for the given status.
func RenderError(c *gin.Context, status int) {
	var name string
	switch status {
	case http.StatusForbidden:
		name = "403.html"
	case http.StatusNotFound:
		name = "404.html"
	default:
		status = http.StatusInternalServerError
		name = "500.html"
	}
	render(c, status, name, nil)
	c.Abort()
}
