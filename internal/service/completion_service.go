package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/dailyquest/internal/db"
	"github.com/dailyquest/internal/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrTaskNotFound 在任务不存在或不属于当前用户时返回
	ErrTaskNotFound = errors.New("task not found")
	// ErrUserNotFound 在用户缺失时返回，属于数据完整性问题
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyCompleted 在重复打卡时返回：todo 已完成，或习惯当天已打过卡
	ErrAlreadyCompleted = errors.New("task already completed")
	// ErrNotCompletedToday 在撤销打卡但当天没有打卡记录时返回
	ErrNotCompletedToday = errors.New("task has no completion today")
)

// GamificationSummary 描述一次打卡的成长明细
type GamificationSummary struct {
	XPEarned        int  `json:"xp_earned"`
	XPBefore        int  `json:"xp_before"`
	XPAfter         int  `json:"xp_after"`
	LevelBefore     int  `json:"level_before"`
	LevelAfter      int  `json:"level_after"`
	LevelUpOccurred bool `json:"level_up_occurred"`
	LevelsGained    int  `json:"levels_gained"`
}

// TaskInfo 摘要被完成任务的关键信息
type TaskInfo struct {
	TaskID     uint          `json:"task_id"`
	TaskType   db.TaskType   `json:"task_type"`
	TaskTitle  string        `json:"task_title"`
	Difficulty db.Difficulty `json:"difficulty"`
}

// CompletionResult 是打卡操作的完整响应
type CompletionResult struct {
	Message        string              `json:"message"`
	TaskCompletion db.TaskCompletion   `json:"task_completion"`
	User           db.User             `json:"user"`
	StreakUpdated  bool                `json:"streak_updated"`
	NewStreak      int                 `json:"new_streak"`
	Gamification   GamificationSummary `json:"gamification"`
	TaskInfo       TaskInfo            `json:"task_info"`
}

// UndoResult 是撤销打卡的响应
type UndoResult struct {
	Message   string  `json:"message"`
	User      db.User `json:"user"`
	XPRemoved int     `json:"xp_removed"`
}

// CompletionService 负责打卡的完整编排：
// 资格校验 → 写入打卡记录 → 结算 XP/连胜/等级 → 评估成就 → 汇总响应。
// 所有写入在同一个事务内提交，任一步失败整体回滚，不留下部分状态。
type CompletionService struct {
	db           *gorm.DB
	achievements *AchievementService
	log          *logger.Logger
	now          func() time.Time
}

// NewCompletionService 构造 CompletionService
func NewCompletionService(gdb *gorm.DB, achievements *AchievementService, log *logger.Logger) *CompletionService {
	if log == nil {
		log = logger.NewNop()
	}
	return &CompletionService{
		db:           gdb,
		achievements: achievements,
		log:          log,
		now:          time.Now,
	}
}

// WithClock 允许在测试中替换时钟。
func (s *CompletionService) WithClock(now func() time.Time) *CompletionService {
	if now != nil {
		s.now = now
	}
	return s
}

// Complete 执行一次打卡。
// 校验失败（ErrTaskNotFound / ErrAlreadyCompleted）发生在任何写入之前；
// 之后的任何错误都会让整个事务回滚。
func (s *CompletionService) Complete(taskID, userID uint) (*CompletionResult, error) {
	var result *CompletionResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := s.now()

		// 1. 加载任务并校验归属，行锁串行化同一任务上的并发打卡
		var task db.Task
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", taskID, userID).
			First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("load task: %w", err)
		}

		var user db.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}

		// 2. 资格校验：先失败，避免任何写入
		if task.IsTodo() && task.Completed {
			return ErrAlreadyCompleted
		}
		if task.IsHabit() {
			completed, err := s.completedToday(tx, task.ID, userID, now)
			if err != nil {
				return err
			}
			if completed {
				return ErrAlreadyCompleted
			}
		}

		xpBefore := user.XP
		levelBefore := user.Level

		// 3. 计算 XP 并写入打卡台账
		xpEarned := XPForDifficulty(task.Difficulty)
		completion := db.TaskCompletion{
			TaskID:        task.ID,
			UserID:        userID,
			CompletedDate: now,
			XPEarned:      xpEarned,
		}
		if err := tx.Create(&completion).Error; err != nil {
			return fmt.Errorf("insert completion: %w", err)
		}

		// 4. 用户 XP 与任务变体状态
		user.XP += xpEarned

		streakUpdated := false
		newStreak := 0
		if task.IsHabit() {
			newStreak = NextStreak(task.LastCompleted, task.CurrentStreak, now)
			task.CurrentStreak = newStreak
			task.LastCompleted = &now
			streakUpdated = true
		} else {
			task.Completed = true
			task.CompletedAt = &now
		}
		if err := tx.Save(&task).Error; err != nil {
			return fmt.Errorf("update task: %w", err)
		}

		// 5. 等级只升不降，支持一次打卡连跳多级
		levelUpOccurred := false
		levelsGained := 0
		if newLevel := LevelFromXP(user.XP); newLevel > user.Level {
			levelsGained = newLevel - user.Level
			user.Level = newLevel
			levelUpOccurred = true
		}
		if err := tx.Save(&user).Error; err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		// 6. 成就评估：失败向上传播，整体回滚，不做 log-and-continue
		if err := s.achievements.CheckAndUnlock(tx, &user, &task); err != nil {
			return err
		}

		result = &CompletionResult{
			Message:        buildCompletionMessage(xpEarned, &task, streakUpdated, newStreak, levelUpOccurred, levelsGained, user.Level),
			TaskCompletion: completion,
			User:           user,
			StreakUpdated:  streakUpdated,
			NewStreak:      newStreak,
			Gamification: GamificationSummary{
				XPEarned:        xpEarned,
				XPBefore:        xpBefore,
				XPAfter:         user.XP,
				LevelBefore:     levelBefore,
				LevelAfter:      user.Level,
				LevelUpOccurred: levelUpOccurred,
				LevelsGained:    levelsGained,
			},
			TaskInfo: TaskInfo{
				TaskID:     task.ID,
				TaskType:   task.TaskType,
				TaskTitle:  task.Title,
				Difficulty: task.Difficulty,
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("task completed",
		"task_id", taskID,
		"user_id", userID,
		"xp_earned", result.Gamification.XPEarned,
		"level_after", result.Gamification.LevelAfter,
	)
	return result, nil
}

// Uncomplete 撤销当天的打卡：删除台账行并回退其副作用。
// 成就解锁不会被收回，保持只进不退。
func (s *CompletionService) Uncomplete(taskID, userID uint) (*UndoResult, error) {
	var result *UndoResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := s.now()

		var task db.Task
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", taskID, userID).
			First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("load task: %w", err)
		}

		var user db.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}

		dayStart := startOfDay(now)
		dayEnd := dayStart.AddDate(0, 0, 1)

		var completion db.TaskCompletion
		if err := tx.Where(
			"task_id = ? AND user_id = ? AND completed_date >= ? AND completed_date < ?",
			task.ID, userID, dayStart, dayEnd,
		).First(&completion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotCompletedToday
			}
			return fmt.Errorf("load completion: %w", err)
		}

		if err := tx.Unscoped().Delete(&completion).Error; err != nil {
			return fmt.Errorf("delete completion: %w", err)
		}

		// XP 回退并重算等级，均不低于下限
		user.XP -= completion.XPEarned
		if user.XP < 0 {
			user.XP = 0
		}
		user.Level = LevelFromXP(user.XP)
		if err := tx.Save(&user).Error; err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		if task.IsHabit() {
			task.CurrentStreak--
			if task.CurrentStreak < 0 {
				task.CurrentStreak = 0
			}
			task.LastCompleted = nil
		} else {
			task.Completed = false
			task.CompletedAt = nil
		}
		if err := tx.Save(&task).Error; err != nil {
			return fmt.Errorf("update task: %w", err)
		}

		result = &UndoResult{
			Message:   fmt.Sprintf("Completion undone. %d XP removed.", completion.XPEarned),
			User:      user,
			XPRemoved: completion.XPEarned,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("task completion undone", "task_id", taskID, "user_id", userID, "xp_removed", result.XPRemoved)
	return result, nil
}

// completedToday 检查任务当天是否已有打卡记录
func (s *CompletionService) completedToday(tx *gorm.DB, taskID, userID uint, now time.Time) (bool, error) {
	dayStart := startOfDay(now)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int64
	if err := tx.Model(&db.TaskCompletion{}).
		Where("task_id = ? AND user_id = ? AND completed_date >= ? AND completed_date < ?",
			taskID, userID, dayStart, dayEnd).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check today's completion: %w", err)
	}

	return count > 0, nil
}

func buildCompletionMessage(xpEarned int, task *db.Task, streakUpdated bool, newStreak int, levelUp bool, levelsGained, levelAfter int) string {
	message := fmt.Sprintf("Task completed! XP earned: %d", xpEarned)

	if task.IsHabit() && streakUpdated {
		message += fmt.Sprintf(" Current streak: %d days!", newStreak)
	}

	if levelUp {
		if levelsGained == 1 {
			message += fmt.Sprintf(" 🎉 Level up! You reached level %d!", levelAfter)
		} else {
			message += fmt.Sprintf(" 🎉 Multiple level ups! You jumped %d levels to level %d!", levelsGained, levelAfter)
		}
	}

	return message
}
