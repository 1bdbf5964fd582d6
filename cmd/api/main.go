package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sims-platform/sims-api/api/swagger"
	"github.com/sims-platform/sims-api/internal/handler"
	"github.com/sims-platform/sims-api/internal/middleware"
	"github.com/sims-platform/sims-api/internal/models"
	"github.com/sims-platform/sims-api/internal/repository"
	"github.com/sims-platform/sims-api/internal/service"
	"github.com/sims-platform/sims-api/pkg/cache"
	"github.com/sims-platform/sims-api/pkg/config"
	"github.com/sims-platform/sims-api/pkg/database"
	"github.com/sims-platform/sims-api/pkg/logger"
	corsmiddleware "github.com/sims-platform/sims-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sims-platform/sims-api/pkg/middleware/requestid"
)

// @title SIMS API
// @version 1.0.0
// @description Student information management backend
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var cacheRepo service.CacheRepository
	cacheEnabled := cfg.Dashboard.CacheEnabled
	if cacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
			cacheEnabled = false
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient)
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	classRepo := repository.NewClassRoomRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	verifier := service.BcryptVerifier{}

	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, cacheEnabled)

	authService := service.NewAuthService(userRepo, teacherRepo, studentRepo, verifier, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "sims-api",
	})
	userService := service.NewUserService(userRepo, verifier, validate, logr)
	teacherService := service.NewTeacherService(teacherRepo, userRepo, verifier, validate, logr)
	studentService := service.NewStudentService(studentRepo, userRepo, classRepo, verifier, validate, logr)
	courseService := service.NewCourseService(courseRepo, assignmentRepo, validate, logr)
	classService := service.NewClassRoomService(classRepo, studentRepo, validate, logr)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, classRepo, validate, logr)
	gradeService := service.NewGradeService(gradeRepo, enrollmentRepo, assignmentRepo, studentRepo, classRepo, validate, logr)
	attendanceService := service.NewAttendanceService(attendanceRepo, enrollmentRepo, assignmentRepo, validate, logr)
	dashboardService := service.NewDashboardService(dashboardRepo, cacheService, cfg.Dashboard.CacheTTL, logr)
	reportService := service.NewReportService(studentRepo, enrollmentRepo, gradeRepo, courseRepo, logr)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	teacherHandler := handler.NewTeacherHandler(teacherService)
	studentHandler := handler.NewStudentHandler(studentService)
	courseHandler := handler.NewCourseHandler(courseService)
	classHandler := handler.NewClassRoomHandler(classService)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService)
	gradeHandler := handler.NewGradeHandler(gradeService)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	reportHandler := handler.NewReportHandler(reportService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.PUT("/auth/password", authHandler.ChangePassword)
	authed.GET("/auth/me", authHandler.Me)

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	teacherOnly := middleware.RequireRoles(models.RoleTeacher)
	staffOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	users := authed.Group("/users", adminOnly)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.POST("", userHandler.Create)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	teachers := authed.Group("/teachers")
	teachers.GET("", staffOnly, teacherHandler.List)
	teachers.GET("/:id", staffOnly, teacherHandler.Get)
	teachers.POST("", adminOnly, teacherHandler.Create)
	teachers.PUT("/:id", adminOnly, teacherHandler.Update)
	teachers.DELETE("/:id", adminOnly, teacherHandler.Delete)

	students := authed.Group("/students")
	students.GET("", staffOnly, studentHandler.List)
	students.GET("/:id", staffOnly, studentHandler.Get)
	students.POST("", adminOnly, studentHandler.Create)
	students.PUT("/:id", adminOnly, studentHandler.Update)
	students.DELETE("/:id", adminOnly, studentHandler.Delete)

	courses := authed.Group("/courses")
	courses.GET("", courseHandler.List)
	courses.GET("/mine", courseHandler.MyCourses)
	courses.GET("/assignments", staffOnly, courseHandler.ListAssignments)
	courses.POST("/assignments", adminOnly, courseHandler.AssignTeacher)
	courses.DELETE("/assignments/:id", adminOnly, courseHandler.RevokeAssignment)
	courses.GET("/:id", courseHandler.Get)
	courses.POST("", adminOnly, courseHandler.Create)
	courses.PUT("/:id", adminOnly, courseHandler.Update)
	courses.DELETE("/:id", adminOnly, courseHandler.Delete)

	classes := authed.Group("/classes")
	classes.GET("", classHandler.List)
	classes.GET("/:id", classHandler.Get)
	classes.POST("", adminOnly, classHandler.Create)
	classes.PUT("/:id", adminOnly, classHandler.Update)
	classes.DELETE("/:id", adminOnly, classHandler.Delete)

	enrollments := authed.Group("/enrollments")
	enrollments.GET("", enrollmentHandler.List)
	enrollments.GET("/:id", enrollmentHandler.Get)
	enrollments.POST("", adminOnly, enrollmentHandler.Enroll)
	enrollments.POST("/class", adminOnly, enrollmentHandler.EnrollClass)
	enrollments.PUT("/:id/status", adminOnly, enrollmentHandler.UpdateStatus)
	enrollments.PUT("/:id/notes", staffOnly, enrollmentHandler.UpdateNotes)
	enrollments.DELETE("/:id", adminOnly, enrollmentHandler.Deactivate)

	grades := authed.Group("/grades")
	grades.GET("", gradeHandler.List)
	grades.POST("", teacherOnly, gradeHandler.Record)
	grades.GET("/students/:id/average", gradeHandler.Average)

	attendance := authed.Group("/attendance")
	attendance.GET("", attendanceHandler.List)
	attendance.POST("", teacherOnly, attendanceHandler.Record)

	dashboard := authed.Group("/dashboard")
	dashboard.GET("", dashboardHandler.Get)
	dashboard.DELETE("/cache", adminOnly, dashboardHandler.InvalidateCache)

	reports := authed.Group("/reports")
	reports.GET("/transcripts/:id", reportHandler.Transcript)
	reports.GET("/transcripts/:id/pdf", reportHandler.TranscriptPDF)
	reports.GET("/transcripts/:id/csv", reportHandler.TranscriptCSV)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
		return
	}
	logr.Sugar().Infow("server stopped")
}
