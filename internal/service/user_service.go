package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dailyquest/internal/db"
	"github.com/dailyquest/internal/logger"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrUserExists 在用户名或邮箱已被占用时返回
	ErrUserExists = errors.New("username or email already taken")
	// ErrInvalidCredentials 在用户名或密码错误时返回
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidToken 在令牌缺失、过期或无法解析时返回
	ErrInvalidToken = errors.New("invalid or expired token")
)

// RegisterInput 定义注册所需字段
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// ProfileInput 定义可更新的个人资料字段
type ProfileInput struct {
	AvatarURL string
	Theme     string
}

// UserService 负责注册、登录与令牌签发
// 登录成功会顺带解锁 FIRST_LOGIN 成就；该步失败只记日志，不阻断登录
type UserService struct {
	db           *gorm.DB
	achievements *AchievementService
	log          *logger.Logger
	jwtSecret    []byte
	tokenTTL     time.Duration
}

// NewUserService 构造 UserService
func NewUserService(gdb *gorm.DB, achievements *AchievementService, log *logger.Logger, jwtSecret string, tokenTTL time.Duration) *UserService {
	if log == nil {
		log = logger.NewNop()
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &UserService{
		db:           gdb,
		achievements: achievements,
		log:          log,
		jwtSecret:    []byte(jwtSecret),
		tokenTTL:     tokenTTL,
	}
}

// Register 创建新用户，密码以 bcrypt 哈希存储
func (s *UserService) Register(input RegisterInput) (*db.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if username == "" || email == "" || strings.TrimSpace(input.Password) == "" {
		return nil, errors.New("username, email and password are required")
	}

	var count int64
	if err := s.db.Model(&db.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		XP:       0,
		Level:    1,
		Coins:    0,
		Theme:    "light",
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered", "user_id", user.ID, "username", user.Username)
	return &user, nil
}

// Login 校验凭证并签发 JWT
func (s *UserService) Login(username, password string) (string, *db.User, error) {
	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(&user)
	if err != nil {
		return "", nil, err
	}

	// 首次登录成就：可用性优先，失败不阻断登录，但必须留痕
	if err := s.achievements.UnlockFirstLogin(user.ID); err != nil {
		s.log.Error("first login achievement failed", "user_id", user.ID, "error", err)
	}

	return token, &user, nil
}

// ParseToken 解析并校验 JWT，返回其中的用户 ID
func (s *UserService) ParseToken(tokenString string) (uint, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, ErrInvalidToken
	}

	return uint(sub), nil
}

// Get 按 ID 获取用户
func (s *UserService) Get(userID uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// UpdateProfile 更新头像与主题偏好
func (s *UserService) UpdateProfile(userID uint, input ProfileInput) (*db.User, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	if avatar := strings.TrimSpace(input.AvatarURL); avatar != "" {
		user.AvatarURL = avatar
	}
	if theme := strings.TrimSpace(strings.ToLower(input.Theme)); theme == "light" || theme == "dark" {
		user.Theme = theme
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (s *UserService) issueToken(user *db.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      float64(user.ID),
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
