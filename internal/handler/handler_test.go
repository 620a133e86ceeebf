package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/daytrack/internal/db"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestAPI 构建带会话中间件的测试引擎与内存数据库
func setupTestAPI(t *testing.T) (*gin.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(
		&db.User{},
		&db.OneTimeCode{},
		&db.ChecklistItem{},
		&db.DailyChecklistLog{},
		&db.StatDefinition{},
		&db.DailyStatValue{},
		&db.DailyStat{},
		&db.Streak{},
		&db.Note{},
		&db.Plan{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := gdb.Create(&db.User{Username: "admin", Password: string(hashed)}).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	api := NewAPI(gdb)

	engine := gin.New()
	engine.Use(sessions.Sessions("daytrack_session", cookie.NewStore([]byte("test-secret"))))

	engine.POST("/api/auth/login", api.Login)
	engine.POST("/api/auth/otp", api.RequestOneTimeCode)
	engine.POST("/api/auth/reset", api.ResetPassword)
	engine.GET("/api/auth/logout", api.Logout)

	authed := engine.Group("/api")
	authed.Use(AuthRequired())
	{
		authed.GET("/checklist", api.GetChecklist)
		authed.GET("/checklist/items", api.ListChecklistItems)
		authed.POST("/checklist/items", api.CreateChecklistItem)
		authed.PUT("/checklist/reorder", api.ReorderChecklistItems)
		authed.PUT("/checklist/items/:id", api.UpdateChecklistItem)
		authed.DELETE("/checklist/items/:id", api.DeleteChecklistItem)
		authed.POST("/checklist/items/:id/log", api.UpsertChecklistLog)

		authed.GET("/stats/definitions", api.ListStatDefinitions)
		authed.POST("/stats/definitions", api.CreateStatDefinition)
		authed.PUT("/stats/definitions/:id", api.UpdateStatDefinition)
		authed.DELETE("/stats/definitions/:id", api.DeleteStatDefinition)
		authed.POST("/stats/values", api.UpsertStatValue)
		authed.POST("/stats/daily", api.SaveDailyStats)
		authed.GET("/stats/summary", api.GetDailySummary)
		authed.GET("/stats/series", api.GetStatSeries)

		authed.GET("/streaks", api.GetStreaks)

		authed.GET("/notes", api.GetNote)
		authed.PUT("/notes", api.UpsertNote)

		authed.GET("/plans", api.ListPlans)
		authed.POST("/plans", api.CreatePlan)
		authed.GET("/plans/:id", api.GetPlan)
		authed.PUT("/plans/:id", api.UpdatePlan)
		authed.DELETE("/plans/:id", api.DeletePlan)
	}

	return engine, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

// login 执行登录并返回会话 Cookie
func login(t *testing.T, engine *gin.Engine) []*http.Cookie {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "secret123"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", w.Code, w.Body.String())
	}

	return w.Result().Cookies()
}

func doJSON(t *testing.T, engine *gin.Engine, cookies []*http.Cookie, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var decoded map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return decoded
}
