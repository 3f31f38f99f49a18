package main

import (
	"fmt"
	"log"

	"github.com/dailyquest/internal/config"
	"github.com/dailyquest/internal/db"
	"github.com/dailyquest/internal/logger"
	"github.com/dailyquest/internal/service"
)

// 演示数据生成器：创建一个演示账号和若干习惯、待办、标签
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成演示数据...")

	appLog := logger.NewNop()
	achievements := service.NewAchievementService(db.DB, appLog)
	users := service.NewUserService(db.DB, achievements, appLog, cfg.JWTSecret, 0)
	tasks := service.NewTaskService(db.DB)
	tags := service.NewTagService(db.DB)

	user, err := users.Register(service.RegisterInput{
		Username: "demo",
		Email:    "demo@example.com",
		Password: "demo123",
	})
	if err != nil {
		log.Fatal("创建演示用户失败:", err)
	}
	fmt.Printf("演示用户已创建: %s (密码 demo123)\n", user.Username)

	healthTag, err := tags.Create(user.ID, "健康", "#22c55e")
	if err != nil {
		log.Fatal("创建标签失败:", err)
	}
	if _, err := tags.Create(user.ID, "工作", "#3b82f6"); err != nil {
		log.Fatal("创建标签失败:", err)
	}

	targetTimes := 3
	habits := []service.HabitInput{
		{Title: "晨跑", Description: "每天 5 公里", Difficulty: db.DifficultyMedium, FrequencyType: db.FrequencyDaily},
		{Title: "阅读", Description: "读书 30 分钟", Difficulty: db.DifficultyEasy, FrequencyType: db.FrequencyDaily},
		{Title: "健身房", Description: "力量训练", Difficulty: db.DifficultyHard, FrequencyType: db.FrequencyWeeklyTimes, FrequencyTargetTimes: &targetTimes},
		{Title: "冥想", Difficulty: db.DifficultyEasy, FrequencyType: db.FrequencySpecificDays, FrequencyDays: []int{0, 2, 4}},
	}
	for _, input := range habits {
		habit, err := tasks.CreateHabit(user.ID, input)
		if err != nil {
			log.Fatal("创建习惯失败:", err)
		}
		fmt.Printf("习惯已创建: %s\n", habit.Title)
	}

	todos := []service.TodoInput{
		{Title: "报税", Description: "截止月底", Difficulty: db.DifficultyHard},
		{Title: "买菜", Difficulty: db.DifficultyEasy},
	}
	for _, input := range todos {
		todo, err := tasks.CreateTodo(user.ID, input)
		if err != nil {
			log.Fatal("创建待办失败:", err)
		}
		fmt.Printf("待办已创建: %s\n", todo.Title)
	}

	// 给第一个习惯挂上健康标签
	list, err := tasks.ListByUser(user.ID)
	if err != nil {
		log.Fatal("读取任务失败:", err)
	}
	for i := range list {
		if list[i].Title == "晨跑" {
			if err := tasks.AddTag(&list[i], healthTag); err != nil {
				log.Fatal("关联标签失败:", err)
			}
			break
		}
	}

	fmt.Println("演示数据生成完成")
}
