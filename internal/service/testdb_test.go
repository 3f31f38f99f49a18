package service

import (
	"testing"
	"time"

	"github.com/dailyquest/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(
		&db.User{},
		&db.Task{},
		&db.TaskCompletion{},
		&db.Achievement{},
		&db.UserAchievement{},
		&db.Tag{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	if err := db.SeedAchievements(gdb); err != nil {
		t.Fatalf("failed to seed achievements: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func createTestUser(t *testing.T, username string) *db.User {
	t.Helper()
	user := db.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "not-a-real-hash",
		XP:       0,
		Level:    1,
		Theme:    "light",
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return &user
}

func createTestHabit(t *testing.T, userID uint, difficulty db.Difficulty) *db.Task {
	t.Helper()
	frequency := db.FrequencyDaily
	task := db.Task{
		Title:         "晨跑",
		UserID:        userID,
		Difficulty:    difficulty,
		IsActive:      true,
		TaskType:      db.TaskTypeHabit,
		FrequencyType: &frequency,
	}
	if err := db.DB.Create(&task).Error; err != nil {
		t.Fatalf("failed to create test habit: %v", err)
	}
	return &task
}

func createTestTodo(t *testing.T, userID uint, difficulty db.Difficulty) *db.Task {
	t.Helper()
	task := db.Task{
		Title:      "报税",
		UserID:     userID,
		Difficulty: difficulty,
		IsActive:   true,
		TaskType:   db.TaskTypeTodo,
	}
	if err := db.DB.Create(&task).Error; err != nil {
		t.Fatalf("failed to create test todo: %v", err)
	}
	return &task
}

// fixedClock 返回可手动推进的时钟
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func (c *fixedClock) AdvanceDays(days int) {
	c.now = c.now.AddDate(0, 0, days)
}
