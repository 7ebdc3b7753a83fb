package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"quiz_duel_backend/internal/config"
	"quiz_duel_backend/internal/controller"
	"quiz_duel_backend/internal/repository"
	"quiz_duel_backend/internal/service"
	"quiz_duel_backend/pkg/database"
	"quiz_duel_backend/pkg/logger"
	"quiz_duel_backend/pkg/monitoring"
	"quiz_duel_backend/pkg/security"
	"quiz_duel_backend/pkg/tracing"
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
	user      *repository.UserRepository
	challenge *repository.ChallengeRepository
	bot       *repository.BotRepository
}

type services struct {
	auth      *service.AuthService
	user      *service.UserService
	challenge *service.ChallengeService
	reward    *service.RewardService
	bot       *service.BotService
	notifier  *service.RedisNotifier
}

type controllers struct {
	auth   *controller.AuthController
	duel   *controller.DuelController
	health *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:      repository.NewUserRepository(db, rdb),
		challenge: repository.NewChallengeRepository(db),
		bot:       repository.NewBotRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.notifier = service.NewRedisNotifier(rdb, cfg.Duel.NotifyChannelPrefix)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.challenge = service.NewChallengeService(repos.challenge, repos.user, repos.bot, s.notifier, cfg.Duel.ExpiryWindow)
	s.reward = service.NewRewardService(repos.challenge, repos.user)

	s.bot = service.NewBotService(repos.challenge, repos.bot, s.challenge)
	s.challenge.SetBotScheduler(s.bot)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB) *controllers {
	return &controllers{
		auth:   controller.NewAuthController(s.auth, s.user),
		duel:   controller.NewDuelController(s.challenge, s.reward, s.user, repos.bot),
		health: controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 后台巡检：过期清扫是懒惰超时的兜底，
// 脚本对手补交覆盖内存定时器丢失的情况
func (a *App) startBackgroundTasks(s *services, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		for range ticker.C {
			if swept, err := s.challenge.SweepExpired(); err != nil {
				logger.Log.Error("expiry sweep pass failed", zap.Error(err))
			} else if swept > 0 {
				logger.Log.Info("expiry sweep pass", zap.Int("swept", swept))
			}
			s.bot.FireDue()
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, repos, db)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("quiz-duel", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, repos, cfg)

	// 重启恢复：重建所有未执行的脚本对手交卷计划
	services.bot.Recover()

	app.startBackgroundTasks(services, cfg.Duel.SweepInterval)

	return app
}

// ReloadConfig 应用配置热更新。只接管改了立即生效且不需要重建连接的项：
// 对战响应窗口和 JWT 密钥。数据库/redis/端口等仍需重启。
func (a *App) ReloadConfig(cfg *config.Config) {
	a.Config.JWT = cfg.JWT
	a.Config.Duel = cfg.Duel
	if a.services != nil && a.services.challenge != nil {
		a.services.challenge.ExpiryWindow = cfg.Duel.ExpiryWindow
	}
	logger.Log.Info("config reloaded",
		zap.Duration("expiryWindow", cfg.Duel.ExpiryWindow),
		zap.Duration("sweepInterval", cfg.Duel.SweepInterval))
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

	// 停掉脚本对手的内存定时器；计划仍在库里，下次启动恢复
	if a.services != nil && a.services.bot != nil {
		a.services.bot.Stop()
	}

	// 关闭服务
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
