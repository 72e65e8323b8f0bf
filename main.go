package main

import (
	"context"
	"log"
	"os"
	"time"

	"docanalyze/internal/analysis"
	"docanalyze/internal/api"
	"docanalyze/internal/auth"
	"docanalyze/internal/cache"
	"docanalyze/internal/config"
	"docanalyze/internal/logger"
	"docanalyze/internal/redis"
	"docanalyze/internal/storage"
	"docanalyze/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("DOCANALYZE_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.Init(cfg.BasicConfig.LogLevel)

	dbType := os.Getenv("DOCANALYZE_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	// Redis only caches auth tokens; run without it when unavailable.
	rdb, err := redis.NewRedisClient(cfg)
	if err != nil {
		log.Printf("redis unavailable, token caching disabled: %v", err)
		rdb = nil
	}
	defer rdb.Close()

	// Create necessary tables: users, user_tokens, analyses
	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	analyzer, err := analysis.NewClient(context.Background(), cfg.Gemini)
	if err != nil {
		log.Fatalf("init analysis client: %v", err)
	}

	authService := auth.NewService(db, rdb, 24*time.Hour)
	resultCache := cache.New(time.Duration(cfg.BasicConfig.CacheTTLMinutes) * time.Minute)
	maxUpload := int64(cfg.BasicConfig.MaxUploadMB) << 20
	handlers := api.NewHandler(store.New(db), authService, analyzer, resultCache, maxUpload)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
