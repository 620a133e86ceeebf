package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/daytrack/internal/db"
	"github.com/daytrack/internal/handler"
	"github.com/daytrack/internal/router"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type e2eSuite struct {
	handler  http.Handler
	client   *localClient
	password string
	user     db.User
}

type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newLocalClient(handler http.Handler) *localClient {
	jar, _ := cookiejar.New(nil)
	return &localClient{handler: handler, jar: jar}
}

func (c *localClient) Do(req *http.Request) (*http.Response, error) {
	if c.jar != nil {
		for _, cookie := range c.jar.Cookies(req.URL) {
			req.AddCookie(cookie)
		}
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	if c.jar != nil {
		c.jar.SetCookies(req.URL, resp.Cookies())
	}
	return resp, nil
}

func newE2ESuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&db.User{}, &db.OneTimeCode{}, &db.ChecklistItem{}, &db.DailyChecklistLog{},
		&db.StatDefinition{}, &db.DailyStatValue{}, &db.DailyStat{}, &db.Streak{}, &db.Note{}, &db.Plan{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	db.DB = gdb

	password := "secret123"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := db.User{Username: "admin", Password: string(hashed)}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	engine := router.SetupRouter(handler.NewAPI(gdb), "e2e-secret")

	suite := &e2eSuite{
		handler:  engine,
		client:   newLocalClient(engine),
		password: password,
		user:     user,
	}

	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return suite
}

func (s *e2eSuite) request(t *testing.T, method, path string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, "https://daytrack.test"+path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	var decoded map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("failed to decode %q: %v", string(raw), err)
		}
	}

	return resp, decoded
}

func (s *e2eSuite) login(t *testing.T) {
	t.Helper()
	resp, _ := s.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": s.user.Username,
		"password": s.password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed with status %d", resp.StatusCode)
	}
}

func TestE2E_TrackerFlow(t *testing.T) {
	suite := newE2ESuite(t)

	// 未登录访问被拒
	resp, _ := suite.request(t, http.MethodGet, "/api/checklist", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 before login, got %d", resp.StatusCode)
	}

	suite.login(t)

	// 建清单：主食 + 水 + 健身
	resp, body := suite.request(t, http.MethodPost, "/api/checklist/items", map[string]any{
		"category": "DIET",
		"name":     "Rice",
		"metadata": map[string]any{"diet": map[string]any{"calories": 1.08, "protein": 0.018, "carbs": 0.24}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create rice failed: %d", resp.StatusCode)
	}
	riceID := uint(body["item"].(map[string]any)["id"].(float64))

	resp, body = suite.request(t, http.MethodPost, "/api/checklist/items", map[string]any{
		"category": "DIET",
		"name":     "Water",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create water failed: %d", resp.StatusCode)
	}
	waterID := uint(body["item"].(map[string]any)["id"].(float64))

	resp, body = suite.request(t, http.MethodPost, "/api/checklist/items", map[string]any{
		"category": "ROUTINE",
		"name":     "Gym",
		"metadata": map[string]any{"exercise": map[string]any{"calories_burn": 850}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create gym failed: %d", resp.StatusCode)
	}
	gymID := uint(body["item"].(map[string]any)["id"].(float64))

	// 当日打卡
	day := "2025-01-05"
	for _, call := range []struct {
		id      uint
		payload map[string]any
	}{
		{riceID, map[string]any{"date": day, "is_done": true, "value": "300"}},
		{waterID, map[string]any{"date": day, "is_done": true, "value": "1.5"}},
		{gymID, map[string]any{"date": day, "is_done": true}},
	} {
		resp, _ = suite.request(t, http.MethodPost, fmt.Sprintf("/api/checklist/items/%d/log", call.id), call.payload)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("log item %d failed: %d", call.id, resp.StatusCode)
		}
	}

	// 营养卡片与净热量
	resp, body = suite.request(t, http.MethodGet, "/api/stats/summary?date="+day, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary failed: %d", resp.StatusCode)
	}
	nutrition := body["nutrition"].(map[string]any)
	if nutrition["calories"].(float64) != 324 {
		t.Fatalf("expected 324 calories, got %v", nutrition["calories"])
	}
	if nutrition["protein"].(float64) != 5.4 {
		t.Fatalf("expected 5.4 protein, got %v", nutrition["protein"])
	}
	if nutrition["water"].(float64) != 1.5 {
		t.Fatalf("expected 1.5 water, got %v", nutrition["water"])
	}
	if body["net_calories"].(float64) != -526 {
		t.Fatalf("expected net -526, got %v", body["net_calories"])
	}

	// 显式保存日总结写入连胜标记
	resp, _ = suite.request(t, http.MethodPost, "/api/stats/daily", map[string]any{
		"date":            day,
		"energy_level":    8,
		"calories_burned": 850,
		"is_success":      true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("daily save failed: %d", resp.StatusCode)
	}

	resp, body = suite.request(t, http.MethodGet, "/api/streaks?start=2025-01-01&end=2025-01-31", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("streaks failed: %d", resp.StatusCode)
	}
	streaks := body["streaks"].([]any)
	if len(streaks) != 1 || streaks[0].(map[string]any)["is_success"].(bool) != true {
		t.Fatalf("unexpected streaks: %v", streaks)
	}

	// 自定义指标 + 序列补零
	resp, body = suite.request(t, http.MethodPost, "/api/stats/definitions", map[string]any{"label": "dsa"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create definition failed: %d", resp.StatusCode)
	}
	defID := uint(body["definition"].(map[string]any)["id"].(float64))

	resp, _ = suite.request(t, http.MethodPost, "/api/stats/values", map[string]any{
		"stat_id": defID, "date": "2025-01-06", "value": 2,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upsert value failed: %d", resp.StatusCode)
	}

	path := fmt.Sprintf("/api/stats/series?range=custom&start=2025-01-05&end=2025-01-07&stats=%d,calories,water", defID)
	resp, body = suite.request(t, http.MethodGet, path, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("series failed: %d", resp.StatusCode)
	}
	series := body["series"].([]any)
	if len(series) != 3 {
		t.Fatalf("expected 3 records, got %d", len(series))
	}

	first := series[0].(map[string]any)["values"].(map[string]any)
	if first["calories"].(float64) != -526 {
		t.Fatalf("expected series net -526 on day 1, got %v", first["calories"])
	}
	middle := series[1].(map[string]any)["values"].(map[string]any)
	if middle[fmt.Sprintf("%d", defID)].(float64) != 2 {
		t.Fatalf("expected dsa=2 on day 2, got %v", middle)
	}
	last := series[2].(map[string]any)["values"].(map[string]any)
	if last[fmt.Sprintf("%d", defID)].(float64) != 0 {
		t.Fatalf("expected zero-filled dsa on day 3, got %v", last)
	}

	// 随笔与计划
	resp, _ = suite.request(t, http.MethodPut, "/api/notes", map[string]any{"date": day, "content": "状态不错"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("note upsert failed: %d", resp.StatusCode)
	}

	resp, body = suite.request(t, http.MethodPost, "/api/plans", map[string]any{
		"type": "DIET", "title": "碳循环", "content": "## 高碳日\n米饭 300g",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("plan create failed: %d", resp.StatusCode)
	}
	planID := uint(body["plan"].(map[string]any)["id"].(float64))

	resp, body = suite.request(t, http.MethodGet, fmt.Sprintf("/api/plans/%d", planID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("plan get failed: %d", resp.StatusCode)
	}
	if body["plan"].(map[string]any)["html"].(string) == "" {
		t.Fatal("expected rendered plan html")
	}

	// 登出后访问再次被拒
	resp, _ = suite.request(t, http.MethodGet, "/api/auth/logout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout failed: %d", resp.StatusCode)
	}
	resp, _ = suite.request(t, http.MethodGet, "/api/checklist", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
}
