package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"HealthAssist/controllers"
	"HealthAssist/middleware"
	"HealthAssist/pkg/auth"
	"HealthAssist/pkg/config"
	"HealthAssist/pkg/database"
	"HealthAssist/pkg/logger"
	"HealthAssist/pkg/services"
	"HealthAssist/pkg/store"
	tokenstore "HealthAssist/pkg/token"
	"HealthAssist/routes"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}

	revoked, err := newRevocationStore(cfg, log)
	if err != nil {
		return err
	}

	users := store.NewUserStore(db, log)
	convs := store.NewConversationStore(db, log)
	metrics := store.NewMetricStore(db, log)
	meds := store.NewMedicationStore(db, log)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	llm := services.NewLLMService(services.LLMConfig{
		Endpoint: cfg.LLMEndpoint,
		Model:    cfg.LLMModel,
		APIKey:   cfg.LLMAPIKey,
	}, nil, log)

	deps := &controllers.Deps{
		Log:           log,
		Users:         users,
		Conversations: convs,
		Metrics:       metrics,
		Medications:   meds,
		Issuer:        issuer,
		Authenticator: auth.NewAuthenticator(issuer, revoked, users),
		Relay:         services.NewChatRelay(convs, llm, cfg.FallbackTokenDelay, log),
		Seeder:        services.NewSeeder(metrics, meds, convs, log),
		RateLimiter:   middleware.NewRateLimiter(cfg.RateLimitWindow(), cfg.RateLimitCapacity),
		Ping:          sqlDB.PingContext,
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log, routes.StreamingPaths...))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, deps)

	log.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv, "db", cfg.DBDriver, "llm", cfg.LLMEndpoint, "rateLimit", deps.RateLimiter.Enabled())
	if err := r.Run(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// newRevocationStore uses Redis when REDIS_ADDRESS is set, memory otherwise.
func newRevocationStore(cfg *config.Config, log *logger.Logger) (tokenstore.Store, error) {
	if cfg.RedisAddress == "" {
		log.Info("using in-memory token revocation")
		return tokenstore.NewMemoryStore(), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddress, err)
	}
	log.Info("using redis token revocation", "address", cfg.RedisAddress)
	return tokenstore.NewRedisStore(rdb), nil
}
