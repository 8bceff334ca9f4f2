package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/config"
	"classattend/internal/httpmiddleware"
	"classattend/internal/queue"
	"classattend/internal/store"
)

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
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
		log.Printf("warning: db not reachable: %v", err)
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)
	statsCache := store.NewStatsCache(redisClient, cfg.StatsCacheTTL)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "classattend:absences")
	}

	repo := attendance.NewRepository(db.Client)
	svc := attendance.NewService(repo, queue.NewAbsencePublisher(q))

	r := gin.New()

	// Recovery middleware
	r.Use(gin.Recovery())

	// Custom logger
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	// CORS middleware
	r.Use(corsMiddleware())

	// Security headers
	r.Use(securityHeaders())

	// Rate limiting
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db != nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/auth/faculty/login", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		fac, hash, err := repo.FacultyByEmail(c.Request.Context(), req.Email)
		if err != nil {
			if !errors.Is(err, attendance.ErrNotFound) {
				log.Printf("faculty lookup failed: %v", err)
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		tokens, err := auth.Issue(fac.ID, auth.RoleFaculty, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
			"faculty":       fac,
		})
	})

	r.POST("/v1/auth/student/login", func(c *gin.Context) {
		var req struct {
			RollNumber string `json:"roll_number" binding:"required"`
			Password   string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		st, hash, err := repo.StudentByRoll(c.Request.Context(), req.RollNumber)
		if err != nil {
			if !errors.Is(err, attendance.ErrNotFound) {
				log.Printf("student lookup failed: %v", err)
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid roll number or password"})
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid roll number or password"})
			return
		}

		tokens, err := auth.Issue(st.ID, auth.RoleStudent, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}

		st.ParentPhone = "" // not the student's business
		c.JSON(http.StatusOK, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
			"student":       st,
		})
	})

	facultyAPI := r.Group("/v1", auth.Require(cfg.JWTSigningKey, cfg.JWTIssuer), auth.RequireRole(auth.RoleFaculty))

	facultyAPI.GET("/periods", func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		periods, err := repo.PeriodsByFaculty(c.Request.Context(), claims.Subject)
		if err != nil {
			log.Printf("timetable fetch failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load timetable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"periods": periods})
	})

	facultyAPI.GET("/classes/:id/students", func(c *gin.Context) {
		students, err := repo.StudentsByClass(c.Request.Context(), c.Param("id"))
		if err != nil {
			log.Printf("roster fetch failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load roster"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"students": students})
	})

	facultyAPI.GET("/attendance/:periodID/status", func(c *gin.Context) {
		submitted := svc.CheckSubmissionStatus(c.Request.Context(), c.Param("periodID"))
		c.JSON(http.StatusOK, gin.H{"submitted": submitted})
	})

	facultyAPI.POST("/attendance/:periodID/init", func(c *gin.Context) {
		var req struct {
			ClassID string `json:"class_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		sess, err := svc.InitializeAttendance(c.Request.Context(), c.Param("periodID"), req.ClassID)
		if err != nil {
			if errors.Is(err, attendance.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "period or class not found"})
				return
			}
			log.Printf("attendance init failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initialize attendance"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"date":      sess.Date,
			"submitted": sess.Submitted,
			"records":   sess.Records(),
		})
	})

	facultyAPI.POST("/attendance/:periodID/mark", func(c *gin.Context) {
		var req struct {
			StudentID string `json:"student_id" binding:"required"`
			Status    string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err := svc.MarkAttendance(c.Request.Context(), c.Param("periodID"), req.StudentID, attendance.Status(req.Status))
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"marked": true})
		case errors.Is(err, attendance.ErrAlreadySubmitted):
			// Normal flow, not a failure: the period is read-only now.
			c.JSON(http.StatusOK, gin.H{"marked": false, "reason": err.Error()})
		case errors.Is(err, attendance.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, attendance.ErrNotInitialized):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, attendance.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "student not in this class"})
		default:
			log.Printf("mark failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark attendance"})
		}
	})

	facultyAPI.POST("/attendance/:periodID/submit", func(c *gin.Context) {
		ok, err := svc.SubmitAttendance(c.Request.Context(), c.Param("periodID"))
		switch {
		case ok:
			c.JSON(http.StatusOK, gin.H{"submitted": true})
		case errors.Is(err, attendance.ErrAlreadySubmitted):
			c.JSON(http.StatusOK, gin.H{"submitted": false, "reason": err.Error()})
		case errors.Is(err, attendance.ErrNotInitialized):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.Printf("submit failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save attendance"})
		}
	})

	facultyAPI.GET("/attendance/:periodID/students/:studentID/stats", func(c *gin.Context) {
		stats := svc.StudentStats(c.Request.Context(), c.Param("periodID"), c.Param("studentID"))
		c.JSON(http.StatusOK, stats)
	})

	studentAPI := r.Group("/v1", auth.Require(cfg.JWTSigningKey, cfg.JWTIssuer), auth.RequireRole(auth.RoleStudent))

	studentAPI.GET("/students/:id/analytics", func(c *gin.Context) {
		studentID := c.Param("id")
		claims, _ := auth.FromContext(c)
		if claims.Subject != studentID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your dashboard"})
			return
		}

		cacheKey := store.AnalyticsKey(studentID)
		var analytics attendance.Analytics
		if statsCache.Get(c.Request.Context(), cacheKey, &analytics) {
			c.JSON(http.StatusOK, analytics)
			return
		}

		analytics, err := svc.StudentAnalytics(c.Request.Context(), studentID)
		if err != nil {
			log.Printf("analytics failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch attendance data"})
			return
		}

		statsCache.Set(c.Request.Context(), cacheKey, analytics)
		c.JSON(http.StatusOK, analytics)
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
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

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
