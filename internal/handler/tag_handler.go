package handler

import (
	"errors"
	"net/http"

	"github.com/dailyquest/internal/service"
	"github.com/gin-gonic/gin"
)

type tagRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

// GetTags 获取标签列表
func (a *API) GetTags(c *gin.Context) {
	tags, err := a.tags.List(currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list tags")
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// CreateTag 创建新标签
func (a *API) CreateTag(c *gin.Context) {
	var req tagRequest
	if !bindJSON(c, &req, "tag name is required") {
		return
	}

	tag, err := a.tags.Create(currentUserID(c), req.Name, req.Color)
	if err != nil {
		respondTagError(c, err, "failed to create tag")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "tag created", "tag": tag})
}

// UpdateTag 更新标签
func (a *API) UpdateTag(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid tag id")
		return
	}

	var req tagRequest
	if !bindJSON(c, &req, "tag name is required") {
		return
	}

	tag, err := a.tags.Update(id, currentUserID(c), req.Name, req.Color)
	if err != nil {
		respondTagError(c, err, "failed to update tag")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "tag updated", "tag": tag})
}

// DeleteTag 删除标签
func (a *API) DeleteTag(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid tag id")
		return
	}

	if err := a.tags.Delete(id, currentUserID(c)); err != nil {
		respondTagError(c, err, "failed to delete tag")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "tag deleted"})
}

func respondTagError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrTagExists):
		respondError(c, http.StatusConflict, "tag already exists")
	case errors.Is(err, service.ErrTagNameRequired):
		respondError(c, http.StatusBadRequest, "tag name is required")
	case errors.Is(err, service.ErrTagNotFound):
		respondError(c, http.StatusNotFound, "tag not found")
	default:
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
