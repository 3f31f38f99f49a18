package handler

import (
	"time"

	"github.com/dailyquest/internal/config"
	"github.com/dailyquest/internal/logger"
	"github.com/dailyquest/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db           *gorm.DB
	log          *logger.Logger
	users        *service.UserService
	tasks        *service.TaskService
	tags         *service.TagService
	completions  *service.CompletionService
	achievements *service.AchievementService
	dashboard    *service.DashboardService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, log *logger.Logger, cfg config.AppConfig) *API {
	if log == nil {
		log = logger.NewNop()
	}

	achievementService := service.NewAchievementService(db, log)
	tokenTTL := time.Duration(cfg.TokenExpireMinutes) * time.Minute

	return &API{
		db:           db,
		log:          log,
		users:        service.NewUserService(db, achievementService, log, cfg.JWTSecret, tokenTTL),
		tasks:        service.NewTaskService(db),
		tags:         service.NewTagService(db),
		completions:  service.NewCompletionService(db, achievementService, log),
		achievements: achievementService,
		dashboard:    service.NewDashboardService(db),
	}
}

// DB exposes the underlying gorm instance for legacy paths.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Completions 暴露打卡服务，便于测试替换时钟。
func (a *API) Completions() *service.CompletionService {
	return a.completions
}
