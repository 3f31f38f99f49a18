package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dailyquest/internal/db"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

var (
	// ErrTagExists 在同名标签已存在时返回
	ErrTagExists = errors.New("tag already exists")
	// ErrTagNotFound 在标签不存在或不属于当前用户时返回
	ErrTagNotFound = errors.New("tag not found")
	// ErrTagNameRequired 在标签名为空时返回
	ErrTagNameRequired = errors.New("tag name is required")
)

// TagService 负责标签的增删改查，数据按用户隔离
type TagService struct {
	db        *gorm.DB
	sanitizer *bluemonday.Policy
}

// NewTagService 构造 TagService
func NewTagService(gdb *gorm.DB) *TagService {
	return &TagService{db: gdb, sanitizer: bluemonday.StrictPolicy()}
}

// List 返回用户的全部标签
func (s *TagService) List(userID uint) ([]db.Tag, error) {
	var tags []db.Tag
	if err := s.db.Where("user_id = ?", userID).
		Order("name ASC").
		Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// Get 按 ID 与归属获取标签
func (s *TagService) Get(tagID, userID uint) (*db.Tag, error) {
	var tag db.Tag
	if err := s.db.Where("id = ? AND user_id = ?", tagID, userID).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return &tag, nil
}

// Create 为用户新建标签，同名去重
func (s *TagService) Create(userID uint, name, color string) (*db.Tag, error) {
	name = strings.TrimSpace(s.sanitizer.Sanitize(name))
	if name == "" {
		return nil, ErrTagNameRequired
	}

	var existing db.Tag
	if err := s.db.Where("user_id = ? AND name = ?", userID, name).First(&existing).Error; err == nil {
		return nil, ErrTagExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check tag: %w", err)
	}

	tag := db.Tag{UserID: userID, Name: name, Color: strings.TrimSpace(color)}
	if err := s.db.Create(&tag).Error; err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return &tag, nil
}

// Update 重命名标签或修改颜色
func (s *TagService) Update(tagID, userID uint, name, color string) (*db.Tag, error) {
	tag, err := s.Get(tagID, userID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(s.sanitizer.Sanitize(name))
	if name == "" {
		return nil, ErrTagNameRequired
	}

	var duplicate db.Tag
	if err := s.db.Where("user_id = ? AND name = ? AND id <> ?", userID, name, tagID).
		First(&duplicate).Error; err == nil {
		return nil, ErrTagExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check tag: %w", err)
	}

	tag.Name = name
	tag.Color = strings.TrimSpace(color)
	if err := s.db.Save(tag).Error; err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}
	return tag, nil
}

// Delete 删除标签并清理任务关联
func (s *TagService) Delete(tagID, userID uint) error {
	tag, err := s.Get(tagID, userID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(tag).Association("Tasks").Clear(); err != nil {
			return fmt.Errorf("clear tag associations: %w", err)
		}
		if err := tx.Delete(tag).Error; err != nil {
			return fmt.Errorf("delete tag: %w", err)
		}
		return nil
	})
}
