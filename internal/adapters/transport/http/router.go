package http

import (
	"net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/notes-service/internal/adapters/transport/http/middleware"
	authsvc "github.com/Miraines/MoonyAndStarry/notes-service/internal/app/auth/service"
	notessvc "github.com/Miraines/MoonyAndStarry/notes-service/internal/app/notes/service"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/infra/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	rateLimitCacheSize = 10_000
	rateLimitIdleTTL   = time.Hour
)

type Deps struct {
	Auth   authsvc.Service
	Notes  notessvc.Service
	Config *config.Config
	Log    *zap.Logger
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	_ = router.SetTrustedProxies(nil)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(d.Log))
	router.Use(middleware.Metrics())
	if d.Config.RateLimit > 0 {
		router.Use(middleware.NewRateLimitPerIP(d.Config.RateLimit, d.Config.RateBurst, rateLimitCacheSize, rateLimitIdleTTL))
	}
	if len(d.Config.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: d.Config.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders: []string{
				"Origin", "Content-Type", "Accept",
				"Authorization",
				"X-Requested-With",
				middleware.RequestIDHeader,
			},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: d.Config.AllowCredentials,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authH := NewAuthHandler(d.Auth, d.Log)
	auth := router.Group("/auth")
	{
		auth.POST("/login", authH.Login)
		auth.POST("/register", authH.Register)
		auth.POST("/refresh", authH.Refresh)
		auth.POST("/logout", authH.Logout)
		auth.POST("/verifyaccess", authH.VerifyAccess)
		auth.POST("/verifyrefresh", authH.VerifyRefresh)
	}

	authenticated := router.Group("/",
		middleware.Authenticate(d.Auth, d.Log),
		middleware.RequireAuth(),
	)

	notesH := NewNotesHandler(d.Notes, d.Log)
	notes := authenticated.Group("/notes", middleware.RequireRole(d.Config.DefaultRole))
	{
		notes.GET("", notesH.List)
		notes.POST("", notesH.Create)
		notes.GET("/:id", notesH.Get)
		notes.PUT("/:id", notesH.Update)
		notes.DELETE("/:id", notesH.Delete)
	}

	usersH := NewUsersHandler(d.Auth, d.Log)
	users := authenticated.Group("/users")
	{
		users.GET("/me", usersH.Me)
		users.DELETE("/me", usersH.DeleteMe)
	}

	return router
}
