package db

import (
	"time"

	"gorm.io/gorm"
)

// Difficulty 表示任务难度档位，直接决定打卡获得的 XP
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// IsValid 校验难度取值
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// TaskType 是单表多态的判别字段，habit 与 todo 共用 tasks 表
type TaskType string

const (
	TaskTypeHabit TaskType = "habit"
	TaskTypeTodo  TaskType = "todo"
)

// HabitFrequencyType 表示习惯的频率类型
// WEEKLY_TIMES/SPECIFIC_DAYS 目前仅做数据建模，连胜判定只按 DAILY 基线执行
type HabitFrequencyType string

const (
	FrequencyDaily        HabitFrequencyType = "DAILY"
	FrequencyWeeklyTimes  HabitFrequencyType = "WEEKLY_TIMES"
	FrequencySpecificDays HabitFrequencyType = "SPECIFIC_DAYS"
)

// IsValid 校验频率类型取值
func (f HabitFrequencyType) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeeklyTimes, FrequencySpecificDays:
		return true
	}
	return false
}

// Task 定义了任务模型，habit 与 todo 的变体字段互为 NULL
// 不变式：Completed 为 true 时 CompletedAt 非空；CurrentStreak>0 时 LastCompleted 非空
type Task struct {
	gorm.Model
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	UserID      uint       `gorm:"index;not null" json:"user_id"`
	User        User       `json:"-"`
	Difficulty  Difficulty `gorm:"size:16;not null" json:"difficulty"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	TaskType    TaskType   `gorm:"size:50;index" json:"task_type"`

	// Habit 专属字段
	FrequencyType        *HabitFrequencyType `gorm:"size:32" json:"frequency_type,omitempty"`
	FrequencyTargetTimes *int                `json:"frequency_target_times,omitempty"`
	FrequencyDaysOfWeek  *int                `json:"frequency_days_of_week,omitempty"`
	CurrentStreak        int                 `gorm:"default:0" json:"current_streak"`
	LastCompleted        *time.Time          `json:"last_completed,omitempty"`

	// ToDo 专属字段
	Deadline    *time.Time `json:"deadline,omitempty"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Tags []Tag `gorm:"many2many:task_tags;" json:"tags,omitempty"`
}

// IsHabit 判断任务是否为习惯
func (t *Task) IsHabit() bool {
	return t.TaskType == TaskTypeHabit
}

// IsTodo 判断任务是否为待办
func (t *Task) IsTodo() bool {
	return t.TaskType == TaskTypeTodo
}

// WeekdaysToBitmask 将星期列表转换为 7 位掩码，bit 0 对应周一。
// 越界的下标会被忽略。
func WeekdaysToBitmask(days []int) int {
	mask := 0
	for _, day := range days {
		if day >= 0 && day <= 6 {
			mask |= 1 << day
		}
	}
	return mask
}

// BitmaskToWeekdays 将 7 位掩码还原为递增的星期列表。
func BitmaskToWeekdays(mask int) []int {
	days := make([]int, 0, 7)
	for i := 0; i < 7; i++ {
		if mask&(1<<i) != 0 {
			days = append(days, i)
		}
	}
	return days
}
