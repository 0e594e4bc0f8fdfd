package main

import (
	"context"
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

	_ "github.com/lnjng/courselog-api/api/swagger"
	"github.com/lnjng/courselog-api/internal/handler"
	"github.com/lnjng/courselog-api/internal/middleware"
	"github.com/lnjng/courselog-api/internal/repository"
	"github.com/lnjng/courselog-api/internal/service"
	"github.com/lnjng/courselog-api/internal/translator"
	"github.com/lnjng/courselog-api/pkg/cache"
	"github.com/lnjng/courselog-api/pkg/config"
	"github.com/lnjng/courselog-api/pkg/database"
	"github.com/lnjng/courselog-api/pkg/jobs"
	"github.com/lnjng/courselog-api/pkg/logger"
	corsmiddleware "github.com/lnjng/courselog-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lnjng/courselog-api/pkg/middleware/requestid"
	"github.com/lnjng/courselog-api/pkg/storage"
)

// @title Course Log API
// @version 1.0.0
// @description Course logging, study tracking and public course calendars
// @BasePath /
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The app degrades gracefully without Redis: translation lookups
		// fall through to Postgres and public payloads are rebuilt per
		// request.
		logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		redisClient = nil
	}

	uploadStorage, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	logItemRepo := repository.NewLogItemRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	examRepo := repository.NewExamRepository(db)
	problemRepo := repository.NewProblemRepository(db)
	translationRepo := repository.NewTranslationRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Services.
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "courselog-api",
	})
	translationSvc := service.NewTranslationService(
		translationRepo,
		cacheRepo,
		translator.NewOpenRouterClient(cfg.Translation),
		metricsSvc,
		service.TranslationOptions{
			MaxRetries: cfg.Translation.MaxRetries,
			RetryDelay: cfg.Translation.RetryDelay,
			HotTierTTL: cfg.Translation.CacheTTL,
		},
		logr,
	)
	calendarSvc := service.NewCalendarService(logr)
	semesterSvc := service.NewSemesterService(semesterRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, cacheRepo, validate, logr)
	logItemSvc := service.NewLogItemService(logItemRepo, courseSvc, validate, logr)
	examSvc := service.NewExamService(examRepo, validate, logr)
	problemSvc := service.NewProblemService(problemRepo, categoryRepo, logItemRepo, examRepo, uploadStorage, courseSvc, validate, logr)
	publicSvc := service.NewPublicService(courseRepo, logItemRepo, problemRepo, translationSvc, calendarSvc, cacheRepo, service.PublicConfig{
		FirstPartyDomain:  cfg.Public.FirstPartyDomain,
		LectureLinkDomain: cfg.Public.LectureLinkDomain,
		CacheTTL:          cfg.Public.CalendarCacheTTL,
	}, logr)
	courseTranslationSvc := service.NewCourseTranslationService(courseRepo, logItemRepo, categoryRepo, problemRepo, examRepo, translationSvc, logr)
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(exportJobRepo, problemRepo, courseRepo, exportStorage, signer, logr)

	// Background queue shared by translation pre-warming and exports.
	queue := jobs.NewQueue("background", func(ctx context.Context, job jobs.Job) error {
		switch job.Type {
		case service.JobTypeTranslateCourse:
			payload, ok := job.Payload.(service.TranslateCoursePayload)
			if !ok {
				return fmt.Errorf("unexpected payload for %s job %s", job.Type, job.ID)
			}
			count, err := courseTranslationSvc.Run(ctx, payload.CourseID)
			if err != nil {
				return err
			}
			logr.Sugar().Infow("course translation finished", "course_id", payload.CourseID, "texts", count)
			return nil
		case service.JobTypeExportProblems:
			payload, ok := job.Payload.(service.ExportProblemsPayload)
			if !ok {
				return fmt.Errorf("unexpected payload for %s job %s", job.Type, job.ID)
			}
			return exportSvc.Run(ctx, payload)
		default:
			return fmt.Errorf("unknown job type %q", job.Type)
		}
	}, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	courseTranslationSvc.SetQueue(queue)
	exportSvc.SetQueue(queue)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	queue.Start(ctx)
	defer queue.Stop()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	semesterHandler := handler.NewSemesterHandler(semesterSvc)
	courseHandler := handler.NewCourseHandler(courseSvc, courseTranslationSvc)
	logItemHandler := handler.NewLogItemHandler(logItemSvc)
	examHandler := handler.NewExamHandler(examSvc)
	problemHandler := handler.NewProblemHandler(problemSvc)
	publicHandler := handler.NewPublicHandler(publicSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	r.Static("/uploads", uploadStorage.BaseDir())

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Public course pages, no authentication.
	public := r.Group("/p")
	{
		public.GET("/:slug", publicHandler.Calendar)
		public.GET("/:slug/zh", publicHandler.CalendarZH)
		public.GET("/:slug/problems", publicHandler.Problems)
		public.GET("/:slug/zh/problems", publicHandler.ProblemsZH)
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		}

		// Signed token is the only credential for downloads; the link has
		// to work from a plain browser navigation.
		api.GET("/exports/download", exportHandler.Download)

		protected := api.Group("", middleware.JWT(authSvc))
		{
			protected.GET("/semesters", semesterHandler.List)
			protected.POST("/semesters", semesterHandler.Create)
			protected.DELETE("/semesters/:id", semesterHandler.Delete)
			protected.GET("/semesters/:id/courses", courseHandler.ListBySemester)

			protected.POST("/courses", courseHandler.Create)
			protected.GET("/courses/:id", courseHandler.Get)
			protected.PATCH("/courses/:id", courseHandler.Update)
			protected.DELETE("/courses/:id", courseHandler.Delete)
			protected.POST("/courses/:id/translate", courseHandler.Translate)
			protected.GET("/courses/:id/log-items", logItemHandler.ListByCourse)
			protected.POST("/courses/:id/log-items", logItemHandler.Create)
			protected.GET("/courses/:id/exams", examHandler.ListByCourse)
			protected.POST("/courses/:id/exams", examHandler.Create)
			protected.GET("/courses/:id/study", problemHandler.Study)
			protected.GET("/courses/:id/categories", problemHandler.Categories)
			protected.POST("/courses/:id/export", exportHandler.Enqueue)

			protected.GET("/log-items/:id", logItemHandler.Get)
			protected.PUT("/log-items/:id", logItemHandler.Update)
			protected.DELETE("/log-items/:id", logItemHandler.Delete)
			protected.GET("/log-items/:id/problems", problemHandler.ListByLogItem)

			protected.GET("/exams/:id", examHandler.Get)
			protected.PUT("/exams/:id", examHandler.Update)
			protected.DELETE("/exams/:id", examHandler.Delete)
			protected.GET("/exams/:id/problems", problemHandler.ListByExam)

			protected.POST("/problems", problemHandler.Create)
			protected.GET("/problems/:id", problemHandler.Get)
			protected.PUT("/problems/:id", problemHandler.Update)
			protected.DELETE("/problems/:id", problemHandler.Delete)

			protected.GET("/exports/:id", exportHandler.Status)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}
