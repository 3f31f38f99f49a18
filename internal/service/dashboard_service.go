package service

import (
	"fmt"

	"github.com/dailyquest/internal/db"
	"gorm.io/gorm"
)

// DashboardStats 汇总仪表盘的基础统计数据
type DashboardStats struct {
	TotalXP              int   `json:"total_xp"`
	CurrentLevel         int   `json:"current_level"`
	XPToNextLevel        int   `json:"xp_to_next_level"`
	TotalTasksCompleted  int64 `json:"total_tasks_completed"`
	LongestActiveStreak  int   `json:"current_streak"`
	AchievementsUnlocked int64 `json:"achievements_unlocked"`
}

// DashboardService 负责历史与统计类只读查询
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService 构造 DashboardService
func NewDashboardService(gdb *gorm.DB) *DashboardService {
	return &DashboardService{db: gdb}
}

// CompletionHistory 返回用户的打卡历史，最新的在前
func (s *DashboardService) CompletionHistory(userID uint) ([]db.TaskCompletion, error) {
	var completions []db.TaskCompletion
	if err := s.db.Where("user_id = ?", userID).
		Order("completed_date DESC").
		Find(&completions).Error; err != nil {
		return nil, fmt.Errorf("list completion history: %w", err)
	}
	return completions, nil
}

// Stats 计算仪表盘统计
func (s *DashboardService) Stats(user *db.User) (*DashboardStats, error) {
	var totalCompletions int64
	if err := s.db.Model(&db.TaskCompletion{}).
		Where("user_id = ?", user.ID).
		Count(&totalCompletions).Error; err != nil {
		return nil, fmt.Errorf("count completions: %w", err)
	}

	// 活跃习惯中的最长连胜
	var longestStreak int
	row := s.db.Model(&db.Task{}).
		Select("COALESCE(MAX(current_streak), 0)").
		Where("user_id = ? AND task_type = ? AND is_active = ?", user.ID, db.TaskTypeHabit, true).
		Row()
	if err := row.Scan(&longestStreak); err != nil {
		return nil, fmt.Errorf("max active streak: %w", err)
	}

	var unlockCount int64
	if err := s.db.Model(&db.UserAchievement{}).
		Where("user_id = ?", user.ID).
		Count(&unlockCount).Error; err != nil {
		return nil, fmt.Errorf("count unlocks: %w", err)
	}

	return &DashboardStats{
		TotalXP:              user.XP,
		CurrentLevel:         user.Level,
		XPToNextLevel:        XPNeededForNextLevel(user.XP),
		TotalTasksCompleted:  totalCompletions,
		LongestActiveStreak:  longestStreak,
		AchievementsUnlocked: unlockCount,
	}, nil
}
