package main

import (
	"context"
	"flag"
	"hash/fnv"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"poker-service/ai"
	"poker-service/feed"
	"poker-service/game"
	"poker-service/internal/config"
	"poker-service/ledger"
	"poker-service/locks"
	"poker-service/models"
	"poker-service/pkg/logger"
	"poker-service/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		zlog.Fatal("connect database", zap.Error(err))
	}

	st := store.New(db, zlog)
	if err := st.AutoMigrate(); err != nil {
		zlog.Fatal("migrate", zap.Error(err))
	}

	var redisClient *redis.Client
	var pub feed.Publisher = feed.NopPublisher{}
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			zlog.Fatal("connect redis", zap.Error(err))
		}
		pub = feed.NewRedisFeed(redisClient, zlog)
	}

	lockTTL := time.Duration(cfg.Game.LockTTLSec) * time.Second
	lk := locks.NewManager(redisClient, lockTTL, zlog)
	lg := ledger.New(db, zlog)
	ctrl := game.NewController(st, lg, lk, pub, zlog, cfg.Game.RakePercent)

	factory := func(difficulty models.AIDifficulty, playerID string) ai.Adapter {
		h := fnv.New64a()
		_, _ = h.Write([]byte(playerID))
		return ai.NewBasicAdapter(difficulty, int64(h.Sum64()))
	}
	driver := game.NewDriver(ctrl, st, factory, game.DriverConfig{
		ThinkDelay:   time.Duration(cfg.Game.ThinkDelayMs) * time.Millisecond,
		SettleDelay:  time.Duration(cfg.Game.SettleDelaySec) * time.Second,
		PollInterval: time.Duration(cfg.Game.PollIntervalMs) * time.Millisecond,
	}, zlog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zlog.Info("ai driver running",
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Int("rake_percent", cfg.Game.RakePercent))
	if err := driver.Run(ctx); err != nil && err != context.Canceled {
		zlog.Fatal("driver stopped", zap.Error(err))
	}
	zlog.Info("shutdown complete")
}
