package service

import "time"

// NextStreak 计算习惯打卡后的新连胜值。
// 规则：从未完成过 → 1；最近一次完成发生在"now 的昨天" → 连胜 +1；其余情况重置为 1。
// 同一天的重复打卡由资格校验拦截，不会走到这里。
// 调用方在打卡成功后必须把 LastCompleted 更新为 now。
func NextStreak(lastCompleted *time.Time, currentStreak int, now time.Time) int {
	if lastCompleted == nil {
		return 1
	}

	yesterday := now.AddDate(0, 0, -1)
	if sameCalendarDay(*lastCompleted, yesterday) {
		return currentStreak + 1
	}

	return 1
}

// sameCalendarDay 按服务器本地日界比较两个时间是否落在同一天
func sameCalendarDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// startOfDay 返回时间所在日的零点
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
