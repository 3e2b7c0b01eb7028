package router

import (
	"net/http"
	"path/filepath"

	"cityideas/internal/config"
	"cityideas/internal/handlers"
	"cityideas/internal/middleware"
	"cityideas/internal/services"
	"cityideas/internal/utils"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const sessionName = "cityideas_session"

// formOverhead leaves room for the text fields next to a maximal upload.
const formOverhead = 1 << 20

// New builds the engine with every service, middleware and route. webDir
// holds templates/ and static/.
func New(cfg *config.Config, conn *gorm.DB, webDir string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{services.UploadURLPrefix})))
	r.MaxMultipartMemory = cfg.MaxUploadBytes
	r.Use(middleware.BodyLimit(cfg.MaxUploadBytes + formOverhead))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.HTMLRender = LoadTemplates(filepath.Join(webDir, "templates"))
	r.Static("/static", filepath.Join(webDir, "static"))
	r.Static(services.UploadURLPrefix, cfg.UploadDir)

	cache := utils.NewCache(256)
	images := services.NewImageStore(cfg.UploadDir, cfg.MaxUploadBytes)
	authService := services.NewAuthService(conn)
	tokenService := services.NewTokenService(cfg.JWTSecret)
	ideaService := services.NewIdeaService(conn, images)
	cityService := services.NewCityService(conn, cache)
	statsService := services.NewStatsService(conn, cache)
	mailService := services.NewMailService(cfg.SMTP, cfg.SiteURL, filepath.Join(webDir, "templates"))
	notificationService := services.NewNotificationService(conn)

	r.Use(middleware.LoadUser(authService, tokenService))

	RegisterRoutes(r,
		handlers.NewAuthHandler(authService, services.NewCaptchaService()),
		handlers.NewIdeaHandler(ideaService, cityService),
		handlers.NewUserHandler(ideaService, statsService, notificationService),
		handlers.NewNotificationHandler(notificationService),
		handlers.NewAdminHandler(ideaService, cityService, statsService, mailService),
		handlers.NewAPIHandler(authService, tokenService, ideaService, cityService),
		handlers.NewSEOHandler(ideaService, cfg.SiteURL),
	)

	r.NoRoute(func(c *gin.Context) {
		handlers.RenderError(c, http.StatusNotFound, "Страница не найдена")
	})
	return r
}

func RegisterRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	ideaHandler *handlers.IdeaHandler,
	userHandler *handlers.UserHandler,
	notificationHandler *handlers.NotificationHandler,
	adminHandler *handlers.AdminHandler,
	apiHandler *handlers.APIHandler,
	seoHandler *handlers.SEOHandler,
) {
	// Public Routes
	r.GET("/", ideaHandler.Home)
	r.GET("/map", ideaHandler.Map)
	r.GET("/ideas", ideaHandler.List)
	r.GET("/implemented", ideaHandler.Implemented)
	r.GET("/robots.txt", seoHandler.RobotsTxt)
	r.GET("/sitemap.xml", seoHandler.SitemapXML)

	r.GET("/signup", authHandler.ShowRegister)
	r.POST("/signup", authHandler.Register)
	r.GET("/login", authHandler.ShowLogin)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)

	// Protected Routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/ideas/new", ideaHandler.ShowCreate)
		authorized.POST("/ideas/new", ideaHandler.Create)
		authorized.POST("/ideas/:id/vote", ideaHandler.Vote)
		authorized.POST("/ideas/:id/comments", ideaHandler.Comment)
		authorized.POST("/ideas/:id/delete", ideaHandler.Delete)
		authorized.GET("/profile", userHandler.Profile)

		authorized.GET("/notifications", notificationHandler.List)
		authorized.POST("/notifications/:id/read", notificationHandler.Read)
		authorized.DELETE("/notifications/:id", notificationHandler.Delete)
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll)
	}
	r.GET("/ideas/:id", ideaHandler.Detail)

	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("", adminHandler.Panel)
		admin.POST("/ideas/:id/status", adminHandler.UpdateStatus)
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/cities", adminHandler.Cities)
		admin.GET("/cities/new", adminHandler.ShowCreateCity)
		admin.POST("/cities/new", adminHandler.CreateCity)
		admin.GET("/cities/:id/edit", adminHandler.ShowEditCity)
		admin.POST("/cities/:id/edit", adminHandler.UpdateCity)
		admin.POST("/cities/:id/delete", adminHandler.DeleteCity)
	}

	api := r.Group("/api")
	{
		api.GET("/ideas", apiHandler.Ideas)
		api.GET("/cities", apiHandler.Cities)
		api.POST("/token", apiHandler.Token)
	}
	apiAuth := r.Group("/api")
	apiAuth.Use(middleware.APIAuthRequired())
	{
		apiAuth.POST("/ideas", apiHandler.CreateIdea)
		apiAuth.POST("/ideas/:id/vote", apiHandler.Vote)
	}
}
