package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Routes
	setupRoutes(r, handler)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/health", handler.GetHealth)

	api := r.Group("/api")
	{
		api.POST("/jobs", handler.CreateJob)
		api.GET("/jobs", handler.ListJobs)
		api.GET("/jobs/:id", handler.GetJob)

		api.GET("/articles", handler.ListArticles)
		api.POST("/articles/from-url", handler.AddArticleFromURL)
		api.PATCH("/articles/:id", handler.UpdateArticleReview)
		api.PATCH("/articles/:id/classification", handler.UpdateArticleClassification)

		api.GET("/companies", handler.ListCompanies)
		api.POST("/companies", handler.CreateCompany)
		api.PUT("/companies/:id", handler.UpdateCompany)
		api.DELETE("/companies/:id", handler.DeleteCompany)
		api.GET("/companies/:id/urls", handler.ListSourceURLs)
		api.POST("/companies/:id/urls", handler.AddSourceURL)
		api.DELETE("/companies/:id/urls/:urlID", handler.DeleteSourceURL)
		api.GET("/companies/:id/search-settings", handler.GetCompanySearchSettings)
		api.PUT("/companies/:id/search-settings", handler.UpdateCompanySearchSettings)

		api.GET("/settings/schedule", handler.GetScheduleSettings)
		api.PUT("/settings/schedule", handler.UpdateScheduleSettings)

		api.GET("/report", handler.GetReport)
	}

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "CaseScout",
			"description": "Automated research of company AI initiatives",
			"endpoints": map[string]string{
				"health":   "/health",
				"jobs":     "/api/jobs",
				"articles": "/api/articles",
				"report":   "/api/report",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
