package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dailyquest/internal/db"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

var (
	// ErrTaskInvalidDifficulty 当难度取值非法时返回
	ErrTaskInvalidDifficulty = errors.New("invalid task difficulty")
	// ErrTaskInvalidFrequency 当习惯频率配置异常时返回
	ErrTaskInvalidFrequency = errors.New("invalid habit frequency configuration")
	// ErrTaskTitleRequired 当标题为空时返回
	ErrTaskTitleRequired = errors.New("task title is required")
)

// HabitInput 定义创建/更新习惯时可配置字段
type HabitInput struct {
	Title                string
	Description          string
	Difficulty           db.Difficulty
	FrequencyType        db.HabitFrequencyType
	FrequencyTargetTimes *int
	FrequencyDays        []int
}

// TodoInput 定义创建/更新待办时可配置字段
type TodoInput struct {
	Title       string
	Description string
	Difficulty  db.Difficulty
	Deadline    *time.Time
}

// TaskService 负责任务数据的增删改查与标签关联
// 打卡相关的状态变更全部归 CompletionService，这里不触碰连胜与完成标记
type TaskService struct {
	db        *gorm.DB
	sanitizer *bluemonday.Policy
}

// NewTaskService 构造 TaskService
func NewTaskService(gdb *gorm.DB) *TaskService {
	// 标题与描述按纯文本处理，剥掉所有 HTML
	return &TaskService{db: gdb, sanitizer: bluemonday.StrictPolicy()}
}

// CreateHabit 为用户新建习惯
func (s *TaskService) CreateHabit(userID uint, input HabitInput) (*db.Task, error) {
	title, description, err := s.sanitizeTexts(input.Title, input.Description)
	if err != nil {
		return nil, err
	}
	if !input.Difficulty.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrTaskInvalidDifficulty, input.Difficulty)
	}
	if err := validateFrequency(input); err != nil {
		return nil, err
	}

	frequencyType := input.FrequencyType
	task := db.Task{
		Title:         title,
		Description:   description,
		UserID:        userID,
		Difficulty:    input.Difficulty,
		IsActive:      true,
		TaskType:      db.TaskTypeHabit,
		FrequencyType: &frequencyType,
	}

	if frequencyType == db.FrequencyWeeklyTimes {
		task.FrequencyTargetTimes = input.FrequencyTargetTimes
	}
	if frequencyType == db.FrequencySpecificDays {
		mask := db.WeekdaysToBitmask(input.FrequencyDays)
		task.FrequencyDaysOfWeek = &mask
	}

	if err := s.db.Create(&task).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return &task, nil
}

// CreateTodo 为用户新建待办
func (s *TaskService) CreateTodo(userID uint, input TodoInput) (*db.Task, error) {
	title, description, err := s.sanitizeTexts(input.Title, input.Description)
	if err != nil {
		return nil, err
	}
	if !input.Difficulty.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrTaskInvalidDifficulty, input.Difficulty)
	}

	task := db.Task{
		Title:       title,
		Description: description,
		UserID:      userID,
		Difficulty:  input.Difficulty,
		IsActive:    true,
		TaskType:    db.TaskTypeTodo,
		Deadline:    input.Deadline,
	}

	if err := s.db.Create(&task).Error; err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}
	return &task, nil
}

// Get 按 ID 与归属获取任务
func (s *TaskService) Get(taskID, userID uint) (*db.Task, error) {
	var task db.Task
	if err := s.db.Preload("Tags").
		Where("id = ? AND user_id = ?", taskID, userID).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &task, nil
}

// ListByUser 返回用户的全部任务（习惯与待办）
func (s *TaskService) ListByUser(userID uint) ([]db.Task, error) {
	var tasks []db.Task
	if err := s.db.Preload("Tags").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListByTag 返回用户关联到指定标签的任务
func (s *TaskService) ListByTag(userID, tagID uint) ([]db.Task, error) {
	var tasks []db.Task
	if err := s.db.Preload("Tags").
		Joins("JOIN task_tags ON task_tags.task_id = tasks.id").
		Where("tasks.user_id = ? AND task_tags.tag_id = ?", userID, tagID).
		Order("tasks.created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks by tag: %w", err)
	}
	return tasks, nil
}

// UpdateHabit 更新习惯的可配置字段
func (s *TaskService) UpdateHabit(taskID, userID uint, input HabitInput) (*db.Task, error) {
	title, description, err := s.sanitizeTexts(input.Title, input.Description)
	if err != nil {
		return nil, err
	}
	if !input.Difficulty.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrTaskInvalidDifficulty, input.Difficulty)
	}
	if err := validateFrequency(input); err != nil {
		return nil, err
	}

	var task db.Task
	if err := s.db.Where("id = ? AND user_id = ? AND task_type = ?", taskID, userID, db.TaskTypeHabit).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("find habit: %w", err)
	}

	frequencyType := input.FrequencyType
	task.Title = title
	task.Description = description
	task.Difficulty = input.Difficulty
	task.FrequencyType = &frequencyType
	task.FrequencyTargetTimes = nil
	task.FrequencyDaysOfWeek = nil

	if frequencyType == db.FrequencyWeeklyTimes {
		task.FrequencyTargetTimes = input.FrequencyTargetTimes
	}
	if frequencyType == db.FrequencySpecificDays {
		mask := db.WeekdaysToBitmask(input.FrequencyDays)
		task.FrequencyDaysOfWeek = &mask
	}

	if err := s.db.Save(&task).Error; err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return &task, nil
}

// UpdateTodo 更新待办的可配置字段
func (s *TaskService) UpdateTodo(taskID, userID uint, input TodoInput) (*db.Task, error) {
	title, description, err := s.sanitizeTexts(input.Title, input.Description)
	if err != nil {
		return nil, err
	}
	if !input.Difficulty.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrTaskInvalidDifficulty, input.Difficulty)
	}

	var task db.Task
	if err := s.db.Where("id = ? AND user_id = ? AND task_type = ?", taskID, userID, db.TaskTypeTodo).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("find todo: %w", err)
	}

	task.Title = title
	task.Description = description
	task.Difficulty = input.Difficulty
	task.Deadline = input.Deadline

	if err := s.db.Save(&task).Error; err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}
	return &task, nil
}

// Delete 删除任务及其打卡记录
func (s *TaskService) Delete(taskID, userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var task db.Task
		if err := tx.Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("find task: %w", err)
		}

		if err := tx.Unscoped().
			Where("task_id = ?", task.ID).
			Delete(&db.TaskCompletion{}).Error; err != nil {
			return fmt.Errorf("delete completions: %w", err)
		}

		if err := tx.Model(&task).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("clear tags: %w", err)
		}

		if err := tx.Delete(&task).Error; err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
}

// AddTag 将标签关联到任务
func (s *TaskService) AddTag(task *db.Task, tag *db.Tag) error {
	if err := s.db.Model(task).Association("Tags").Append(tag); err != nil {
		return fmt.Errorf("add tag to task: %w", err)
	}
	return nil
}

// RemoveTag 解除任务与标签的关联
func (s *TaskService) RemoveTag(task *db.Task, tag *db.Tag) error {
	if err := s.db.Model(task).Association("Tags").Delete(tag); err != nil {
		return fmt.Errorf("remove tag from task: %w", err)
	}
	return nil
}

func (s *TaskService) sanitizeTexts(title, description string) (string, string, error) {
	cleanTitle := strings.TrimSpace(s.sanitizer.Sanitize(title))
	if cleanTitle == "" {
		return "", "", ErrTaskTitleRequired
	}
	cleanDescription := strings.TrimSpace(s.sanitizer.Sanitize(description))
	return cleanTitle, cleanDescription, nil
}

func validateFrequency(input HabitInput) error {
	if !input.FrequencyType.IsValid() {
		return fmt.Errorf("%w: unsupported type %s", ErrTaskInvalidFrequency, input.FrequencyType)
	}

	switch input.FrequencyType {
	case db.FrequencyWeeklyTimes:
		if input.FrequencyTargetTimes == nil || *input.FrequencyTargetTimes < 1 || *input.FrequencyTargetTimes > 7 {
			return fmt.Errorf("%w: weekly target must be between 1 and 7", ErrTaskInvalidFrequency)
		}
	case db.FrequencySpecificDays:
		if len(input.FrequencyDays) == 0 {
			return fmt.Errorf("%w: specific days requires at least one weekday", ErrTaskInvalidFrequency)
		}
		for _, day := range input.FrequencyDays {
			if day < 0 || day > 6 {
				return fmt.Errorf("%w: weekday index %d out of range", ErrTaskInvalidFrequency, day)
			}
		}
	}

	return nil
}
