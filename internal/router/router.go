package router

import (
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/config"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/handlers"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(http.StatusTooManyRequests, "Too many requests. Try again later.")
}

// Setup builds the gin engine with the full middleware chain and the JSON API
// routes.
func Setup(log *zap.Logger, registry *handlers.Registry, protocol *models.Protocol) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	store := cookie.NewStore([]byte(config.Conf.Server.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400,
	})
	router.Use(sessions.Sessions("saccadesync", store))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
	})

	// Handlers and routes
	sessionHandler := handlers.NewSessionHandler(log, registry, protocol)
	calibrationHandler := handlers.NewCalibrationHandler(log, registry)
	framesHandler := handlers.NewFramesHandler(log, registry)
	resultsHandler := handlers.NewResultsHandler(log)

	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 10,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	api := router.Group("/api")
	{
		api.POST("/sessions", limiter, sessionHandler.Start)

		sessionRoutes := api.Group("/sessions/:id")
		sessionRoutes.Use(SessionLoader(log))
		{
			sessionRoutes.GET("", sessionHandler.Get)
			sessionRoutes.POST("/end", sessionHandler.End)

			sessionRoutes.POST("/calibration", calibrationHandler.Submit)
			sessionRoutes.POST("/frames", framesHandler.Ingest)
			sessionRoutes.POST("/trials/start", framesHandler.StartTrial)
			sessionRoutes.POST("/trials/:trial/complete", framesHandler.CompleteTrial)

			sessionRoutes.GET("/results", resultsHandler.Show)
			sessionRoutes.GET("/charts/velocity", resultsHandler.VelocityChart)
			sessionRoutes.GET("/charts/residuals", resultsHandler.ResidualChart)
			sessionRoutes.GET("/export", resultsHandler.ExportCSV)
		}
	}

	return router
}
