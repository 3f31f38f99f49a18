package db

import "gorm.io/gorm"

// User 定义了用户模型
// XP/Level/Coins 构成成长体系，XP 只增不减（撤销打卡时才会回退）
// Level 始终由 XP 推导，持久化只是为了查询方便
type User struct {
	gorm.Model
	Username  string `gorm:"uniqueIndex;not null" json:"username"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"`
	XP        int    `gorm:"default:0" json:"xp"`
	Level     int    `gorm:"default:1" json:"level"`
	Coins     int    `gorm:"default:0" json:"coins"`
	AvatarURL string `json:"avatar_url"`
	Theme     string `gorm:"default:light" json:"theme"`
}
