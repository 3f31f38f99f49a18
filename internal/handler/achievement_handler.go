package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAchievements 返回全部成就定义
func (a *API) GetAchievements(c *gin.Context) {
	achievements, err := a.achievements.ListDefinitions()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list achievements")
		return
	}

	c.JSON(http.StatusOK, gin.H{"achievements": achievements})
}

// GetMyAchievements 返回当前用户已解锁的成就
func (a *API) GetMyAchievements(c *gin.Context) {
	unlocks, err := a.achievements.ListForUser(currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list unlocked achievements")
		return
	}

	c.JSON(http.StatusOK, gin.H{"achievements": unlocks})
}
