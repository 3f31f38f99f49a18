package db

import (
	"time"

	"gorm.io/gorm"
)

// TaskCompletion 记录一次打卡事件，是历史与防重复判定的事实来源
// XPEarned 在创建时固化，之后不再重算；除撤销打卡外不做任何更新
type TaskCompletion struct {
	gorm.Model
	TaskID        uint      `gorm:"index;not null" json:"task_id"`
	Task          Task      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID        uint      `gorm:"index;not null" json:"user_id"`
	CompletedDate time.Time `gorm:"index;not null" json:"completed_date"`
	XPEarned      int       `gorm:"not null" json:"xp_earned"`
}
