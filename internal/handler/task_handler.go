package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/dailyquest/internal/db"
	"github.com/dailyquest/internal/service"
	"github.com/gin-gonic/gin"
)

type habitRequest struct {
	Title                string `json:"title" binding:"required"`
	Description          string `json:"description"`
	Difficulty           string `json:"difficulty" binding:"required"`
	FrequencyType        string `json:"frequency_type" binding:"required"`
	FrequencyTargetTimes *int   `json:"frequency_target_times"`
	FrequencyDays        []int  `json:"frequency_days"`
}

type todoRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Difficulty  string     `json:"difficulty" binding:"required"`
	Deadline    *time.Time `json:"deadline"`
}

// CreateHabit 创建习惯
func (a *API) CreateHabit(c *gin.Context) {
	var req habitRequest
	if !bindJSON(c, &req, "title, difficulty and frequency_type are required") {
		return
	}

	task, err := a.tasks.CreateHabit(currentUserID(c), service.HabitInput{
		Title:                req.Title,
		Description:          req.Description,
		Difficulty:           db.Difficulty(req.Difficulty),
		FrequencyType:        db.HabitFrequencyType(req.FrequencyType),
		FrequencyTargetTimes: req.FrequencyTargetTimes,
		FrequencyDays:        req.FrequencyDays,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "habit created", "task": task})
}

// CreateTodo 创建待办
func (a *API) CreateTodo(c *gin.Context) {
	var req todoRequest
	if !bindJSON(c, &req, "title and difficulty are required") {
		return
	}

	task, err := a.tasks.CreateTodo(currentUserID(c), service.TodoInput{
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  db.Difficulty(req.Difficulty),
		Deadline:    req.Deadline,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "todo created", "task": task})
}

// GetTasks 返回当前用户的全部任务
func (a *API) GetTasks(c *gin.Context) {
	tasks, err := a.tasks.ListByUser(currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// GetTasksByTag 返回关联到某标签的任务
func (a *API) GetTasksByTag(c *gin.Context) {
	tagID, err := parseUintParam(c, "tagId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid tag id")
		return
	}

	userID := currentUserID(c)
	if _, err := a.tags.Get(tagID, userID); err != nil {
		if errors.Is(err, service.ErrTagNotFound) {
			respondError(c, http.StatusNotFound, "tag not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load tag")
		return
	}

	tasks, err := a.tasks.ListByTag(userID, tagID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// UpdateHabit 更新习惯
func (a *API) UpdateHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid task id")
		return
	}

	var req habitRequest
	if !bindJSON(c, &req, "title, difficulty and frequency_type are required") {
		return
	}

	task, err := a.tasks.UpdateHabit(id, currentUserID(c), service.HabitInput{
		Title:                req.Title,
		Description:          req.Description,
		Difficulty:           db.Difficulty(req.Difficulty),
		FrequencyType:        db.HabitFrequencyType(req.FrequencyType),
		FrequencyTargetTimes: req.FrequencyTargetTimes,
		FrequencyDays:        req.FrequencyDays,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "habit updated", "task": task})
}

// UpdateTodo 更新待办
func (a *API) UpdateTodo(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid task id")
		return
	}

	var req todoRequest
	if !bindJSON(c, &req, "title and difficulty are required") {
		return
	}

	task, err := a.tasks.UpdateTodo(id, currentUserID(c), service.TodoInput{
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  db.Difficulty(req.Difficulty),
		Deadline:    req.Deadline,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "todo updated", "task": task})
}

// DeleteTask 删除任务及其打卡记录
func (a *API) DeleteTask(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid task id")
		return
	}

	if err := a.tasks.Delete(id, currentUserID(c)); err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			respondError(c, http.StatusNotFound, "task not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to delete task")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}

// AddTagToTask 关联标签
func (a *API) AddTagToTask(c *gin.Context) {
	task, tag, ok := a.loadTaskAndTag(c)
	if !ok {
		return
	}

	if err := a.tasks.AddTag(task, tag); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to add tag")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "tag added", "task": task})
}

// RemoveTagFromTask 解除标签关联
func (a *API) RemoveTagFromTask(c *gin.Context) {
	task, tag, ok := a.loadTaskAndTag(c)
	if !ok {
		return
	}

	if err := a.tasks.RemoveTag(task, tag); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to remove tag")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "tag removed", "task": task})
}

func (a *API) loadTaskAndTag(c *gin.Context) (*db.Task, *db.Tag, bool) {
	taskID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid task id")
		return nil, nil, false
	}
	tagID, err := parseUintParam(c, "tagId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid tag id")
		return nil, nil, false
	}

	userID := currentUserID(c)
	task, err := a.tasks.Get(taskID, userID)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			respondError(c, http.StatusNotFound, "task not found")
			return nil, nil, false
		}
		respondError(c, http.StatusInternalServerError, "failed to load task")
		return nil, nil, false
	}

	tag, err := a.tags.Get(tagID, userID)
	if err != nil {
		if errors.Is(err, service.ErrTagNotFound) {
			respondError(c, http.StatusNotFound, "tag not found")
			return nil, nil, false
		}
		respondError(c, http.StatusInternalServerError, "failed to load tag")
		return nil, nil, false
	}

	return task, tag, true
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		respondError(c, http.StatusNotFound, "task not found")
	case errors.Is(err, service.ErrTaskTitleRequired),
		errors.Is(err, service.ErrTaskInvalidDifficulty),
		errors.Is(err, service.ErrTaskInvalidFrequency):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "failed to save task")
	}
}
