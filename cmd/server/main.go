package main

import (
	"log"

	"github.com/dailyquest/internal/config"
	"github.com/dailyquest/internal/db"
	"github.com/dailyquest/internal/logger"
	"github.com/dailyquest/internal/router"
)

func main() {
	cfg := config.Load()

	appLogger, err := logger.New(cfg.GinMode)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	// 初始化数据库并写入成就种子
	if err := db.Init(cfg.DatabasePath); err != nil {
		appLogger.Fatal("failed to initialize database", "error", err)
	}

	r, _ := router.Setup(db.DB, appLogger, cfg)

	appLogger.Info("server starting", "addr", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		appLogger.Fatal("failed to run server", "error", err)
	}
}
