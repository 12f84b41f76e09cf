package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gopherblog/internal/bootstrap"
)

type HealthHandler struct {
	app *bootstrap.App
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"app":            h.app.Config.App.Name,
		"env":            h.app.Config.App.Env,
		"uptime_seconds": int(time.Since(h.app.StartedAt).Seconds()),
	})
}
