package db

import "gorm.io/gorm"

// Tag 定义了标签模型，按用户隔离，用于任务分类
type Tag struct {
	gorm.Model
	UserID uint   `gorm:"index;not null" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`
	Color  string `json:"color"`
	Tasks  []Task `gorm:"many2many:task_tags;" json:"-"`
}
