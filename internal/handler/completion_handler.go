package handler

import (
	"errors"
	"net/http"

	"github.com/dailyquest/internal/service"
	"github.com/gin-gonic/gin"
)

// CompleteTask 打卡端点：结算 XP、连胜、等级与成就
func (a *API) CompleteTask(c *gin.Context) {
	taskID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid task id")
		return
	}

	result, err := a.completions.Complete(taskID, currentUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			respondError(c, http.StatusNotFound, "task not found or does not belong to current user")
		case errors.Is(err, service.ErrAlreadyCompleted):
			respondError(c, http.StatusBadRequest, "task has already been completed")
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "user not found")
		default:
			respondError(c, http.StatusInternalServerError, "failed to complete task")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// UncompleteTask 撤销当天的打卡
func (a *API) UncompleteTask(c *gin.Context) {
	taskID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid task id")
		return
	}

	result, err := a.completions.Uncomplete(taskID, currentUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			respondError(c, http.StatusNotFound, "task not found or does not belong to current user")
		case errors.Is(err, service.ErrNotCompletedToday):
			respondError(c, http.StatusBadRequest, "task has no completion to undo today")
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "user not found")
		default:
			respondError(c, http.StatusInternalServerError, "failed to undo completion")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
