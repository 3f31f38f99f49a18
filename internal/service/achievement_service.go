package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/dailyquest/internal/db"
	"github.com/dailyquest/internal/logger"
	"gorm.io/gorm"
)

// ErrAchievementNotFound 在成就定义缺失时返回，视为基础设施错误
var ErrAchievementNotFound = errors.New("achievement definition not found")

// AchievementService 是成就规则的评估器
// 每次打卡后以最新的用户/任务状态运行一遍，所有解锁操作幂等，可安全重复执行
type AchievementService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewAchievementService 构造 AchievementService
func NewAchievementService(gdb *gorm.DB, log *logger.Logger) *AchievementService {
	if log == nil {
		log = logger.NewNop()
	}
	return &AchievementService{db: gdb, log: log}
}

// ListDefinitions 返回全部成就定义
func (s *AchievementService) ListDefinitions() ([]db.Achievement, error) {
	var achievements []db.Achievement
	if err := s.db.Order("category ASC, id ASC").Find(&achievements).Error; err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return achievements, nil
}

// ListForUser 返回用户已解锁的成就，按解锁时间倒序，附带成就定义
func (s *AchievementService) ListForUser(userID uint) ([]db.UserAchievement, error) {
	var unlocks []db.UserAchievement
	if err := s.db.Preload("Achievement").
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&unlocks).Error; err != nil {
		return nil, fmt.Errorf("list user achievements: %w", err)
	}
	return unlocks, nil
}

// Unlock 为用户解锁指定 key 的成就。已解锁时为 no-op，保证幂等。
// 成就定义缺失会返回 ErrAchievementNotFound，由调用方决定是否中断。
func (s *AchievementService) Unlock(tx *gorm.DB, userID uint, key db.AchievementKey) error {
	var achievement db.Achievement
	if err := tx.Where("requirement_key = ?", key).First(&achievement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrAchievementNotFound, key)
		}
		return fmt.Errorf("lookup achievement %s: %w", key, err)
	}

	var count int64
	if err := tx.Model(&db.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ?", userID, achievement.ID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check unlock %s: %w", key, err)
	}
	if count > 0 {
		return nil
	}

	unlock := db.UserAchievement{
		UserID:        userID,
		AchievementID: achievement.ID,
		UnlockedAt:    time.Now(),
	}
	if err := tx.Create(&unlock).Error; err != nil {
		return fmt.Errorf("unlock achievement %s: %w", key, err)
	}

	s.log.Info("achievement unlocked", "user_id", userID, "key", key, "name", achievement.Name)
	return nil
}

// CheckAndUnlock 在一次打卡之后评估所有相关成就规则。
// user 必须已经带上最新的 XP/Level，task 必须带上最新的连胜值。
// 规则不满足时静默跳过；查询失败或定义缺失则向上传播，由外层事务整体回滚。
func (s *AchievementService) CheckAndUnlock(tx *gorm.DB, user *db.User, task *db.Task) error {
	// 1. 等级阈值
	levelKeys := []struct {
		threshold int
		key       db.AchievementKey
	}{
		{5, db.KeyLevel5},
		{10, db.KeyLevel10},
		{20, db.KeyLevel20},
		{50, db.KeyLevel50},
	}
	for _, rule := range levelKeys {
		if user.Level >= rule.threshold {
			if err := s.Unlock(tx, user.ID, rule.key); err != nil {
				return err
			}
		}
	}

	// 2. 首次完成某类任务
	if task.IsHabit() || task.IsTodo() {
		var typeCount int64
		if err := tx.Model(&db.TaskCompletion{}).
			Joins("JOIN tasks ON tasks.id = task_completions.task_id").
			Where("tasks.user_id = ? AND tasks.task_type = ?", user.ID, task.TaskType).
			Count(&typeCount).Error; err != nil {
			return fmt.Errorf("count %s completions: %w", task.TaskType, err)
		}

		if typeCount == 1 {
			key := db.KeyFirstHabit
			if task.IsTodo() {
				key = db.KeyFirstTodo
			}
			if err := s.Unlock(tx, user.ID, key); err != nil {
				return err
			}
		}
	}

	// 3. 连胜阈值，仅对习惯评估
	if task.IsHabit() {
		streakKeys := []struct {
			threshold int
			key       db.AchievementKey
		}{
			{3, db.KeyStreak3},
			{7, db.KeyStreak7},
			{30, db.KeyStreak30},
			{100, db.KeyStreak100},
		}
		for _, rule := range streakKeys {
			if task.CurrentStreak >= rule.threshold {
				if err := s.Unlock(tx, user.ID, rule.key); err != nil {
					return err
				}
			}
		}
	}

	// 4. 累计完成次数阈值
	var totalCompletions int64
	if err := tx.Model(&db.TaskCompletion{}).
		Where("user_id = ?", user.ID).
		Count(&totalCompletions).Error; err != nil {
		return fmt.Errorf("count total completions: %w", err)
	}

	totalKeys := []struct {
		threshold int64
		key       db.AchievementKey
	}{
		{10, db.KeyComplete10Tasks},
		{50, db.KeyComplete50Tasks},
		{100, db.KeyComplete100Tasks},
		{500, db.KeyComplete500Tasks},
	}
	for _, rule := range totalKeys {
		if totalCompletions >= rule.threshold {
			if err := s.Unlock(tx, user.ID, rule.key); err != nil {
				return err
			}
		}
	}

	// 5. 创建习惯数量阈值
	var habitCount int64
	if err := tx.Model(&db.Task{}).
		Where("user_id = ? AND task_type = ?", user.ID, db.TaskTypeHabit).
		Count(&habitCount).Error; err != nil {
		return fmt.Errorf("count habits: %w", err)
	}
	if habitCount >= 5 {
		if err := s.Unlock(tx, user.ID, db.KeyCreate5Habits); err != nil {
			return err
		}
	}

	return nil
}

// UnlockFirstLogin 在用户登录成功时解锁 FIRST_LOGIN。
// 与打卡链路不同，这里的失败不应阻断登录，由调用方记录日志后继续。
func (s *AchievementService) UnlockFirstLogin(userID uint) error {
	return s.Unlock(s.db, userID, db.KeyFirstLogin)
}
