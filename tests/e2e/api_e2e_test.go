package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/dailyquest/internal/config"
	"github.com/dailyquest/internal/db"
	"github.com/dailyquest/internal/logger"
	"github.com/dailyquest/internal/router"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type e2eSuite struct {
	handler http.Handler
	baseURL string
	token   string
	user    db.User
	habitID uint
	todoID  uint
	tagID   uint
}

func TestE2E_AllInterfaces(t *testing.T) {
	suite := newE2ESuite(t)

	t.Run("register and login", suite.testAuthFlow)
	t.Run("task lifecycle", suite.testTaskLifecycle)
	t.Run("tags", suite.testTags)
	t.Run("completion and gamification", suite.testCompletionFlow)
	t.Run("dashboard and achievements", suite.testDashboardAndAchievements)
}

func newE2ESuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file:e2e?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := gdb.AutoMigrate(
		&db.User{},
		&db.Task{},
		&db.TaskCompletion{},
		&db.Achievement{},
		&db.UserAchievement{},
		&db.Tag{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	if err := db.SeedAchievements(gdb); err != nil {
		t.Fatalf("failed to seed achievements: %v", err)
	}

	db.DB = gdb

	cfg := config.AppConfig{
		JWTSecret:          "e2e-secret",
		TokenExpireMinutes: 60,
		GinMode:            gin.TestMode,
		CORSOrigins:        []string{"*"},
	}
	engine, _ := router.Setup(gdb, logger.NewNop(), cfg)

	return &e2eSuite{
		handler: engine,
		baseURL: "http://example.test",
	}
}

func (s *e2eSuite) testAuthFlow(t *testing.T) {
	resp := s.requestJSON(t, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "s3cret!",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register expected 201, got %d, body=%s", resp.StatusCode, readBody(t, resp))
	}

	// 重复注册要报冲突
	resp = s.requestJSON(t, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"username": "alice",
		"email":    "alice2@example.com",
		"password": "s3cret!",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register expected 409, got %d", resp.StatusCode)
	}

	resp = s.requestJSON(t, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"username": "alice",
		"password": "wrong",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login expected 401, got %d", resp.StatusCode)
	}

	resp = s.requestJSON(t, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"username": "alice",
		"password": "s3cret!",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login expected 200, got %d, body=%s", resp.StatusCode, readBody(t, resp))
	}
	var loginResp struct {
		AccessToken string  `json:"access_token"`
		TokenType   string  `json:"token_type"`
		User        db.User `json:"user"`
	}
	decodeJSON(t, resp, &loginResp)
	if loginResp.AccessToken == "" || loginResp.TokenType != "bearer" {
		t.Fatalf("unexpected login payload: %+v", loginResp)
	}
	s.token = loginResp.AccessToken
	s.user = loginResp.User

	// 无令牌访问受保护路由
	resp = s.request(t, http.MethodGet, "/api/v1/users/me", nil, false)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated /users/me expected 401, got %d", resp.StatusCode)
	}

	resp = s.request(t, http.MethodGet, "/api/v1/users/me", nil, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/users/me expected 200, got %d", resp.StatusCode)
	}
	var meResp struct {
		User db.User `json:"user"`
	}
	decodeJSON(t, resp, &meResp)
	if meResp.User.Username != "alice" || meResp.User.Level != 1 {
		t.Fatalf("unexpected /users/me payload: %+v", meResp.User)
	}
}

func (s *e2eSuite) testTaskLifecycle(t *testing.T) {
	resp := s.requestJSON(t, http.MethodPost, "/api/v1/tasks/habits", map[string]interface{}{
		"title":          "晨跑",
		"description":    "每天 5 公里",
		"difficulty":     "MEDIUM",
		"frequency_type": "DAILY",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create habit expected 201, got %d, body=%s", resp.StatusCode, readBody(t, resp))
	}
	var habitResp struct {
		Task db.Task `json:"task"`
	}
	decodeJSON(t, resp, &habitResp)
	if habitResp.Task.ID == 0 || !habitResp.Task.IsHabit() {
		t.Fatalf("unexpected habit payload: %+v", habitResp.Task)
	}
	s.habitID = habitResp.Task.ID

	// 非法频率配置要被拒绝
	resp = s.requestJSON(t, http.MethodPost, "/api/v1/tasks/habits", map[string]interface{}{
		"title":          "阅读",
		"difficulty":     "EASY",
		"frequency_type": "WEEKLY_TIMES",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid frequency expected 400, got %d", resp.StatusCode)
	}

	resp = s.requestJSON(t, http.MethodPost, "/api/v1/tasks/todos", map[string]interface{}{
		"title":       "报税",
		"description": "截止月底",
		"difficulty":  "HARD",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create todo expected 201, got %d, body=%s", resp.StatusCode, readBody(t, resp))
	}
	var todoResp struct {
		Task db.Task `json:"task"`
	}
	decodeJSON(t, resp, &todoResp)
	s.todoID = todoResp.Task.ID

	resp = s.request(t, http.MethodGet, "/api/v1/tasks", nil, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list tasks expected 200, got %d", resp.StatusCode)
	}
	var listResp struct {
		Tasks []db.Task `json:"tasks"`
	}
	decodeJSON(t, resp, &listResp)
	if len(listResp.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(listResp.Tasks))
	}

	resp = s.requestJSON(t, http.MethodPut, "/api/v1/tasks/habits/"+idStr(s.habitID), map[string]interface{}{
		"title":          "晨跑训练",
		"difficulty":     "HARD",
		"frequency_type": "DAILY",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update habit expected 200, got %d, body=%s", resp.StatusCode, readBody(t, resp))
	}

	// 删除再确认列表缩短
	resp = s.requestJSON(t, http.MethodPost, "/api/v1/tasks/todos", map[string]interface{}{
		"title":      "临时待办",
		"difficulty": "EASY",
	})
	defer resp.Body.Close()
	var tempResp struct {
		Task db.Task `json:"task"`
	}
	decodeJSON(t, resp, &tempResp)

	resp = s.request(t, http.MethodDelete, "/api/v1/tasks/"+idStr(tempResp.Task.ID), nil, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete task expected 200, got %d", resp.StatusCode)
	}

	resp = s.request(t, http.MethodDelete, "/api/v1/tasks/"+idStr(tempResp.Task.ID), nil, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("delete missing task expected 404, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testTags(t *testing.T) {
	resp := s.requestJSON(t, http.MethodPost, "/api/v1/tags", map[string]interface{}{
		"name":  "健康",
		"color": "#22c55e",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create tag expected 201, got %d, body=%s", resp.StatusCode, readBody(t, resp))
	}
	var tagResp struct {
		Tag db.Tag `json:"tag"`
	}
	decodeJSON(t, resp, &tagResp)
	s.tagID = tagResp.Tag.ID

	resp = s.requestJSON(t, http.MethodPost, "/api/v1/tags", map[string]interface{}{"name": "健康"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate tag expected 409, got %d", resp.StatusCode)
	}

	resp = s.request(t, http.MethodPost, "/api/v1/tasks/"+idStr(s.habitID)+"/tags/"+idStr(s.tagID), nil, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("attach tag expected 200, got %d", resp.StatusCode)
	}

	resp = s.request(t, http.MethodGet, "/api/v1/tasks/by-tag/"+idStr(s.tagID), nil, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list by tag expected 200, got %d", resp.StatusCode)
	}
	var byTag struct {
		Tasks []db.Task `json:"tasks"`
	}
	decodeJSON(t, resp, &byTag)
	if len(byTag.Tasks) != 1 || byTag.Tasks[0].ID != s.habitID {
		t.Fatalf("expected only tagged habit, got %+v", byTag.Tasks)
	}

	resp = s.request(t, http.MethodDelete, "/api/v1/tasks/"+idStr(s.habitID)+"/tags/"+idStr(s.tagID), nil, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("detach tag expected 200, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testCompletionFlow(t *testing.T) {
	resp := s.request(t, http.MethodPost, "/api/v1/tasks/"+idStr(s.habitID)+"/complete", nil, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete habit expected 200, got %d, body=%s", resp.StatusCode, readBody(t, resp))
	}
	var completion struct {
		Message      string `json:"message"`
		NewStreak    int    `json:"new_streak"`
		Gamification struct {
			XPEarned int `json:"xp_earned"`
			XPAfter  int `json:"xp_after"`
		} `json:"gamification"`
		User db.User `json:"user"`
	}
	decodeJSON(t, resp, &completion)
	// 习惯在上个子测试里被调成 HARD
	if completion.Gamification.XPEarned != 30 {
		t.Fatalf("expected 30 XP for hard habit, got %d", completion.Gamification.XPEarned)
	}
	if completion.NewStreak != 1 {
		t.Fatalf("expected streak 1, got %d", completion.NewStreak)
	}
	if completion.Message == "" {
		t.Fatal("expected non-empty completion message")
	}

	// 当天重复打卡
	resp = s.request(t, http.MethodPost, "/api/v1/tasks/"+idStr(s.habitID)+"/complete", nil, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate completion expected 400, got %d", resp.StatusCode)
	}

	resp = s.request(t, http.MethodPost, "/api/v1/tasks/"+idStr(s.todoID)+"/complete", nil, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete todo expected 200, got %d", resp.StatusCode)
	}

	resp = s.request(t, http.MethodPost, "/api/v1/tasks/99999/complete", nil, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("complete unknown task expected 404, got %d", resp.StatusCode)
	}

	// 撤销待办打卡并确认回滚
	resp = s.request(t, http.MethodPost, "/api/v1/tasks/"+idStr(s.todoID)+"/uncomplete", nil, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("uncomplete todo expected 200, got %d", resp.StatusCode)
	}
	var undo struct {
		XPRemoved int     `json:"xp_removed"`
		User      db.User `json:"user"`
	}
	decodeJSON(t, resp, &undo)
	if undo.XPRemoved != 30 {
		t.Fatalf("expected 30 XP removed, got %d", undo.XPRemoved)
	}
	if undo.User.XP != 30 {
		t.Fatalf("expected 30 XP remaining after undo, got %d", undo.User.XP)
	}

	resp = s.request(t, http.MethodPost, "/api/v1/tasks/"+idStr(s.todoID)+"/uncomplete", nil, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("second uncomplete expected 400, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testDashboardAndAchievements(t *testing.T) {
	resp := s.request(t, http.MethodGet, "/api/v1/dashboard/stats", nil, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard stats expected 200, got %d", resp.StatusCode)
	}
	var stats struct {
		TotalXP              int   `json:"total_xp"`
		CurrentLevel         int   `json:"current_level"`
		TotalTasksCompleted  int64 `json:"total_tasks_completed"`
		CurrentStreak        int   `json:"current_streak"`
		AchievementsUnlocked int64 `json:"achievements_unlocked"`
	}
	decodeJSON(t, resp, &stats)
	if stats.TotalXP != 30 || stats.CurrentLevel != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.TotalTasksCompleted != 1 || stats.CurrentStreak != 1 {
		t.Fatalf("unexpected completion stats: %+v", stats)
	}
	// FIRST_LOGIN + FIRST_HABIT；FIRST_TODO 已随撤销前的打卡解锁
	if stats.AchievementsUnlocked < 2 {
		t.Fatalf("expected at least 2 unlocked achievements, got %d", stats.AchievementsUnlocked)
	}

	resp = s.request(t, http.MethodGet, "/api/v1/dashboard/history", nil, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history expected 200, got %d", resp.StatusCode)
	}
	var history struct {
		Completions []db.TaskCompletion `json:"completions"`
	}
	decodeJSON(t, resp, &history)
	if len(history.Completions) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history.Completions))
	}

	resp = s.request(t, http.MethodGet, "/api/v1/achievements", nil, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("achievements expected 200, got %d", resp.StatusCode)
	}
	var definitions struct {
		Achievements []db.Achievement `json:"achievements"`
	}
	decodeJSON(t, resp, &definitions)
	if len(definitions.Achievements) != 16 {
		t.Fatalf("expected 16 achievement definitions, got %d", len(definitions.Achievements))
	}

	resp = s.request(t, http.MethodGet, "/api/v1/achievements/me", nil, true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("my achievements expected 200, got %d", resp.StatusCode)
	}
	var unlocked struct {
		Achievements []db.UserAchievement `json:"achievements"`
	}
	decodeJSON(t, resp, &unlocked)
	for _, entry := range unlocked.Achievements {
		if entry.Achievement.ID == 0 {
			t.Fatal("expected achievement definitions preloaded in unlock list")
		}
	}
}

func (s *e2eSuite) request(t *testing.T, method, path string, body io.Reader, authed bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		t.Fatalf("failed to build request %s %s: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w.Result()
}

func (s *e2eSuite) requestJSON(t *testing.T, method, path string, payload map[string]interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return s.request(t, method, path, bytes.NewReader(data), s.token != "")
}

func decodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	body := readBody(t, resp)
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		t.Fatalf("failed to decode json: %v\nbody=%s", err, body)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(data)
}

func idStr(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
