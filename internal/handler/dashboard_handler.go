package handler

import (
	"errors"
	"net/http"

	"github.com/dailyquest/internal/service"
	"github.com/gin-gonic/gin"
)

// GetDashboardStats 返回仪表盘统计
func (a *API) GetDashboardStats(c *gin.Context) {
	user, err := a.users.Get(currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load user")
		return
	}

	stats, err := a.dashboard.Stats(user)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetCompletionHistory 返回打卡历史
func (a *API) GetCompletionHistory(c *gin.Context) {
	history, err := a.dashboard.CompletionHistory(currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load history")
		return
	}

	c.JSON(http.StatusOK, gin.H{"completions": history})
}
