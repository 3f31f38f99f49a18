package handler

import (
	"errors"
	"net/http"

	"github.com/dailyquest/internal/service"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	AvatarURL string `json:"avatar_url"`
	Theme     string `json:"theme"`
}

// Register 处理用户注册
func (a *API) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req, "username, email and password are required") {
		return
	}

	user, err := a.users.Register(service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			respondError(c, http.StatusConflict, "username or email already taken")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to register user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "registration successful", "user": user})
}

// Login 处理登录并返回 JWT
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, "username and password are required") {
		return
	}

	token, user, err := a.users.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "invalid username or password")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to log in")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

// Me 返回当前用户信息
func (a *API) Me(c *gin.Context) {
	user, err := a.users.Get(currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateMe 更新当前用户的个人资料
func (a *API) UpdateMe(c *gin.Context) {
	var req profileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}

	user, err := a.users.UpdateProfile(currentUserID(c), service.ProfileInput{
		AvatarURL: req.AvatarURL,
		Theme:     req.Theme,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "profile updated", "user": user})
}
