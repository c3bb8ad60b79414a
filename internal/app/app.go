package app

import (
	"context"
	"course_gen_backend/internal/config"
	"course_gen_backend/internal/controller"
	"course_gen_backend/internal/repository"
	"course_gen_backend/internal/service"
	"course_gen_backend/pkg/database"
	"course_gen_backend/pkg/logger"
	"course_gen_backend/pkg/monitoring"
	"course_gen_backend/pkg/security"
	"course_gen_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user            *repository.UserRepository
	course          *repository.CourseRepository
	generationState *repository.GenerationStateRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	ai         *service.AIService
	lookup     *service.LookupService
	outline    *service.OutlineService
	chapter    *service.ChapterService
	image      *service.ImageService
	course     *service.CourseService
	generation *service.CourseGenerationService
}

type controllers struct {
	auth   *controller.AuthController
	course *controller.CourseController
	health *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:            repository.NewUserRepository(db),
		course:          repository.NewCourseRepository(db),
		generationState: repository.NewGenerationStateRepository(rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)

	s.ai = service.NewAIService(cfg.AI)
	s.lookup = service.NewLookupService(cfg.YouTube, cfg.Unsplash)
	s.outline = service.NewOutlineService(s.ai)
	s.chapter = service.NewChapterService(s.ai, s.lookup, cfg.Generation)
	s.image = service.NewImageService(s.lookup, s.storage, cfg.Generation)

	s.course = service.NewCourseService(repos.course)
	s.generation = service.NewCourseGenerationService(
		s.outline,
		s.chapter,
		s.image,
		repos.course,
		repos.generationState,
		cfg.Generation,
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:   controller.NewAuthController(s.auth),
		course: controller.NewCourseController(s.course, s.generation),
		health: controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(
		cfg.RateLimit.MaxRequests,
		time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute,
	))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	if cfg.MigrateOnly {
		logger.Log.Info("Migration finished, exiting")
		os.Exit(0)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("course-gen-backend", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

// ApplyConfig 配置热更新入口，目前只有 AI 服务的凭据和模型支持运行时替换
func (a *App) ApplyConfig(cfg *config.Config) {
	a.services.ai.UpdateConfig(cfg.AI)
	logger.Log.Info("configuration reloaded",
		zap.String("ai_model", cfg.AI.Model),
	)
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
