package db

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// AchievementKey 标识成就的解锁规则
type AchievementKey string

const (
	KeyLevel5           AchievementKey = "LEVEL_5"
	KeyLevel10          AchievementKey = "LEVEL_10"
	KeyLevel20          AchievementKey = "LEVEL_20"
	KeyLevel50          AchievementKey = "LEVEL_50"
	KeyFirstHabit       AchievementKey = "FIRST_HABIT"
	KeyFirstTodo        AchievementKey = "FIRST_TODO"
	KeyStreak3          AchievementKey = "STREAK_3_DAYS"
	KeyStreak7          AchievementKey = "STREAK_7_DAYS"
	KeyStreak30         AchievementKey = "STREAK_30_DAYS"
	KeyStreak100        AchievementKey = "STREAK_100_DAYS"
	KeyComplete10Tasks  AchievementKey = "COMPLETE_10_TASKS"
	KeyComplete50Tasks  AchievementKey = "COMPLETE_50_TASKS"
	KeyComplete100Tasks AchievementKey = "COMPLETE_100_TASKS"
	KeyComplete500Tasks AchievementKey = "COMPLETE_500_TASKS"
	KeyCreate5Habits    AchievementKey = "CREATE_5_HABITS"
	KeyFirstLogin       AchievementKey = "FIRST_LOGIN"
)

// Achievement 定义了成就模型，属于静态参考数据，由种子写入后不再变更
type Achievement struct {
	gorm.Model
	Name           string         `gorm:"size:100;not null" json:"name"`
	Description    string         `gorm:"type:text;not null" json:"description"`
	Icon           string         `gorm:"size:10;not null" json:"icon"`
	Category       string         `gorm:"size:50;not null" json:"category"`
	RequirementKey AchievementKey `gorm:"size:50;uniqueIndex;not null" json:"requirement_key"`
}

// UserAchievement 记录用户已解锁的成就
// user_id + achievement_id 唯一索引保证每对至多一行，解锁因此天然幂等
type UserAchievement struct {
	gorm.Model
	UserID        uint        `gorm:"index:idx_user_achievement,unique;not null" json:"user_id"`
	AchievementID uint        `gorm:"index:idx_user_achievement,unique;not null" json:"achievement_id"`
	Achievement   Achievement `json:"achievement"`
	UnlockedAt    time.Time   `gorm:"not null" json:"unlocked_at"`
}

// achievementSeeds 是内置的成就定义集合
var achievementSeeds = []Achievement{
	{Name: "Level 5", Description: "Reach level 5.", Icon: "🏆", Category: "Progression", RequirementKey: KeyLevel5},
	{Name: "Level 10", Description: "Reach level 10.", Icon: "⭐", Category: "Progression", RequirementKey: KeyLevel10},
	{Name: "Level 20", Description: "Reach level 20.", Icon: "💎", Category: "Progression", RequirementKey: KeyLevel20},
	{Name: "Level 50", Description: "Reach level 50.", Icon: "👑", Category: "Progression", RequirementKey: KeyLevel50},
	{Name: "Habit Builder", Description: "Complete a habit for the first time.", Icon: "🎯", Category: "First Steps", RequirementKey: KeyFirstHabit},
	{Name: "First Task", Description: "Complete a todo for the first time.", Icon: "✅", Category: "First Steps", RequirementKey: KeyFirstTodo},
	{Name: "On Fire!", Description: "Reach a 3 day streak on any habit.", Icon: "🔥", Category: "Streaks", RequirementKey: KeyStreak3},
	{Name: "Relentless", Description: "Reach a 7 day streak on any habit.", Icon: "🚀", Category: "Streaks", RequirementKey: KeyStreak7},
	{Name: "Iron Will", Description: "Reach a 30 day streak on any habit.", Icon: "🛡️", Category: "Streaks", RequirementKey: KeyStreak30},
	{Name: "Unstoppable", Description: "Reach a 100 day streak on any habit.", Icon: "⚡", Category: "Streaks", RequirementKey: KeyStreak100},
	{Name: "Getting Started", Description: "Complete 10 tasks in total.", Icon: "📈", Category: "Milestones", RequirementKey: KeyComplete10Tasks},
	{Name: "Task Machine", Description: "Complete 50 tasks in total.", Icon: "⚙️", Category: "Milestones", RequirementKey: KeyComplete50Tasks},
	{Name: "Centurion", Description: "Complete 100 tasks in total.", Icon: "💯", Category: "Milestones", RequirementKey: KeyComplete100Tasks},
	{Name: "Legend", Description: "Complete 500 tasks in total.", Icon: "🌟", Category: "Milestones", RequirementKey: KeyComplete500Tasks},
	{Name: "Collector", Description: "Create 5 habits.", Icon: "🗂️", Category: "Milestones", RequirementKey: KeyCreate5Habits},
	{Name: "Welcome!", Description: "Log in for the first time.", Icon: "👋", Category: "First Steps", RequirementKey: KeyFirstLogin},
}

// SeedAchievements 将内置成就定义写入数据库，可安全重复执行。
func SeedAchievements(gdb *gorm.DB) error {
	if gdb == nil {
		return errors.New("database not initialized")
	}

	for _, seed := range achievementSeeds {
		var existing Achievement
		err := gdb.Where("requirement_key = ?", seed.RequirementKey).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := gdb.Create(&seed).Error; err != nil {
			return err
		}
	}

	return nil
}
