package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schoolattend/internal/attendance"
	"schoolattend/internal/auth"
	"schoolattend/internal/cloudinary"
	"schoolattend/internal/config"
	"schoolattend/internal/facematch"
	"schoolattend/internal/faceclient"
	"schoolattend/internal/handler"
	"schoolattend/internal/httpmiddleware"
	"schoolattend/internal/queue"
	"schoolattend/internal/roster"
	"schoolattend/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var jobs queue.Queue
	if cfg.QueueBackend == "memory" {
		jobs = queue.NewInMemory(64)
	} else {
		jobs = queue.NewRedisQueue(redisClient.Client, "schoolattend:jobs")
	}

	rosterRepo := roster.NewRepository(db.Client)
	attRepo := attendance.NewRepository(db.Client)
	reconciler := attendance.NewService(attRepo)
	users := auth.NewRepository(db.Client)
	matcher := facematch.New(cfg.MatchThreshold, cfg.EmbeddingDim)
	face := faceclient.New(cfg.FaceServiceURL, cfg.FaceTimeout, cfg.FaceSkip)

	var cdnClient *cloudinary.Client
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cdnClient = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	h := handler.New(cfg, db, redisClient, rosterRepo, attRepo, reconciler, users, matcher, face, jobs, cdnClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.Healthz)
	r.POST("/v1/auth/login", h.Login)

	v1 := r.Group("/v1", auth.UserAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	v1.POST("/auth/logout", h.Logout)
	v1.POST("/users", auth.RequireRoles(auth.RoleManager), h.CreateUser)

	// Face attendance can be driven by a teacher's device or a kiosk signed
	// in as a teacher account.
	v1.POST("/attendance/face", auth.RequireRoles(auth.RoleManager, auth.RoleTeacher), h.FaceAttendance)

	sessions := v1.Group("/sessions", auth.RequireRoles(auth.RoleManager, auth.RoleTeacher))
	sessions.GET("/:id/attendance", h.SessionAttendance)
	sessions.POST("/:id/attendance", h.MarkRoster)
	sessions.GET("/:id/info", h.SessionInfo)

	students := v1.Group("/students", auth.RequireRoles(auth.RoleManager))
	students.GET("", h.ListStudents)
	students.POST("", h.CreateStudent)
	students.GET("/:id", h.GetStudent)
	students.PUT("/:id", h.UpdateStudent)
	students.DELETE("/:id", h.DeleteStudent)
	students.GET("/:id/classes", h.StudentClasses)

	v1.GET("/classes/:id/sessions", auth.RequireRoles(auth.RoleManager, auth.RoleTeacher), h.ClassSessions)
	v1.POST("/classes/:id/students", auth.RequireRoles(auth.RoleManager), h.ClassAddStudent)
	v1.POST("/uploads", auth.RequireRoles(auth.RoleManager), h.Upload)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
