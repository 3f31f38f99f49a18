package service

import (
	"testing"
	"time"

	"github.com/dailyquest/internal/db"
)

func TestDashboardStats(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	clock := &fixedClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)}
	completions := newTestCompletionService(clock)
	svc := NewDashboardService(db.DB)

	user := createTestUser(t, "alice")
	habit := createTestHabit(t, user.ID, db.DifficultyMedium)

	// 连续三天打卡，拿 60 XP 和一条 3 连胜
	for day := 0; day < 3; day++ {
		if day > 0 {
			clock.AdvanceDays(1)
		}
		if _, err := completions.Complete(habit.ID, user.ID); err != nil {
			t.Fatalf("completion on day %d failed: %v", day+1, err)
		}
	}

	if err := db.DB.First(user, user.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}

	stats, err := svc.Stats(user)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}

	if stats.TotalXP != 60 {
		t.Errorf("expected 60 total XP, got %d", stats.TotalXP)
	}
	if stats.CurrentLevel != 1 {
		t.Errorf("expected level 1, got %d", stats.CurrentLevel)
	}
	if stats.XPToNextLevel != 40 {
		t.Errorf("expected 40 XP to next level, got %d", stats.XPToNextLevel)
	}
	if stats.TotalTasksCompleted != 3 {
		t.Errorf("expected 3 completions, got %d", stats.TotalTasksCompleted)
	}
	if stats.LongestActiveStreak != 3 {
		t.Errorf("expected streak 3, got %d", stats.LongestActiveStreak)
	}
	// FIRST_HABIT 与 STREAK_3_DAYS
	if stats.AchievementsUnlocked != 2 {
		t.Errorf("expected 2 unlocked achievements, got %d", stats.AchievementsUnlocked)
	}
}

func TestDashboardStatsIgnoresInactiveHabits(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewDashboardService(db.DB)
	user := createTestUser(t, "alice")

	habit := createTestHabit(t, user.ID, db.DifficultyEasy)
	habit.CurrentStreak = 9
	habit.IsActive = false
	if err := db.DB.Save(habit).Error; err != nil {
		t.Fatalf("failed to prime habit: %v", err)
	}

	stats, err := svc.Stats(user)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.LongestActiveStreak != 0 {
		t.Errorf("expected archived habit streak ignored, got %d", stats.LongestActiveStreak)
	}
}

func TestDashboardCompletionHistoryNewestFirst(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	clock := &fixedClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)}
	completions := newTestCompletionService(clock)
	svc := NewDashboardService(db.DB)

	user := createTestUser(t, "alice")
	habit := createTestHabit(t, user.ID, db.DifficultyEasy)

	for day := 0; day < 3; day++ {
		if day > 0 {
			clock.AdvanceDays(1)
		}
		if _, err := completions.Complete(habit.ID, user.ID); err != nil {
			t.Fatalf("completion on day %d failed: %v", day+1, err)
		}
	}

	history, err := svc.CompletionHistory(user.ID)
	if err != nil {
		t.Fatalf("CompletionHistory returned error: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].CompletedDate.After(history[i-1].CompletedDate) {
			t.Fatalf("expected newest-first ordering, got %v before %v",
				history[i-1].CompletedDate, history[i].CompletedDate)
		}
	}
}
