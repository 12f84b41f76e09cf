package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appsvc "gopherblog/internal/app"
	"gopherblog/internal/bootstrap"
	"gopherblog/internal/repository"
	"gopherblog/internal/transport/http/handler"
	"gopherblog/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.CustomRecovery(func(c *gin.Context, _ any) {
		handler.RenderError(c, http.StatusInternalServerError)
	}))
	router.LoadHTMLGlob(app.Config.App.TemplatesGlob)

	userRepo := repository.NewUserRepository(app.DB)
	postRepo := repository.NewPostRepository(app.DB)
	authService := appsvc.NewAuthService(app.DB, userRepo, postRepo)
	postService := appsvc.NewPostService(app.DB, postRepo)

	authHandler := handler.NewAuthHandler(authService, app.Config.Auth)
	postHandler := handler.NewPostHandler(postService)
	healthHandler := handler.NewHealthHandler(app)

	router.Use(middleware.CurrentUser(app.Config.Auth.SessionSecret, authService))
	router.NoRoute(func(c *gin.Context) {
		handler.RenderError(c, http.StatusNotFound)
	})

	router.GET("/healthz", healthHandler.Check)

	router.GET("/", postHandler.Index)
	router.GET("/post/:id", postHandler.View)
	router.GET("/signup", authHandler.SignupForm)
	router.POST("/signup", authHandler.Signup)
	router.GET("/login", authHandler.LoginForm)
	router.POST("/login", authHandler.Login)

	authenticated := router.Group("", middleware.RequireAuth())
	authenticated.GET("/logout", authHandler.Logout)
	authenticated.GET("/dashboard", postHandler.Dashboard)
	authenticated.GET("/add", postHandler.AddForm)
	authenticated.POST("/add", postHandler.Add)
	authenticated.GET("/edit/:id", postHandler.EditForm)
	authenticated.POST("/edit/:id", postHandler.Edit)
	authenticated.POST("/delete/:id", postHandler.Delete)

	return router
}
