package service

import "github.com/dailyquest/internal/db"

// xpPerLevel 每升一级所需的 XP
const xpPerLevel = 100

// XPForDifficulty 返回对应难度的打卡 XP。
// 未知难度按 EASY 处理，难度校验应在任务创建时完成。
func XPForDifficulty(d db.Difficulty) int {
	switch d {
	case db.DifficultyEasy:
		return 10
	case db.DifficultyMedium:
		return 20
	case db.DifficultyHard:
		return 30
	default:
		return 10
	}
}

// LevelFromXP 由累计 XP 推导等级：每 100 XP 升一级，起始等级为 1。
// 负数输入按 0 处理。
func LevelFromXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/xpPerLevel + 1
}

// XPNeededForNextLevel 返回距离下一等级还需要的 XP。
func XPNeededForNextLevel(currentXP int) int {
	if currentXP < 0 {
		currentXP = 0
	}
	return LevelFromXP(currentXP)*xpPerLevel - currentXP
}
