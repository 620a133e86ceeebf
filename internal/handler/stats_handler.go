package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/daytrack/internal/db"
	"github.com/daytrack/internal/service"
	"github.com/gin-gonic/gin"
)

type statDefinitionPayload struct {
	Label string `json:"label"`
	Emoji string `json:"emoji"`
	Color string `json:"color"`
}

// ListStatDefinitions 返回自定义指标列表 JSON
func (a *API) ListStatDefinitions(c *gin.Context) {
	userID, _ := currentUserID(c)

	defs, err := a.stats.ListDefinitions(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取指标列表失败")
		return
	}

	payload := make([]gin.H, 0, len(defs))
	for _, def := range defs {
		payload = append(payload, statDefToPayload(def))
	}

	respondSuccess(c, http.StatusOK, gin.H{"definitions": payload})
}

// CreateStatDefinition 创建自定义指标
func (a *API) CreateStatDefinition(c *gin.Context) {
	userID, _ := currentUserID(c)

	var payload statDefinitionPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	def, err := a.stats.CreateDefinition(userID, service.StatDefinitionInput{
		Label: payload.Label,
		Emoji: payload.Emoji,
		Color: payload.Color,
	})
	if err != nil {
		respondError(c, http.StatusBadRequest, "创建指标失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"definition": statDefToPayload(*def)})
}

// UpdateStatDefinition 更新自定义指标
func (a *API) UpdateStatDefinition(c *gin.Context) {
	userID, _ := currentUserID(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的指标ID")
		return
	}

	var payload statDefinitionPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	def, err := a.stats.UpdateDefinition(userID, id, service.StatDefinitionInput{
		Label: payload.Label,
		Emoji: payload.Emoji,
		Color: payload.Color,
	})
	if err != nil {
		handleStatError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"definition": statDefToPayload(*def)})
}

// DeleteStatDefinition 删除指标及其观测值
func (a *API) DeleteStatDefinition(c *gin.Context) {
	userID, _ := currentUserID(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的指标ID")
		return
	}

	if err := a.stats.DeleteDefinition(userID, id); err != nil {
		handleStatError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"deleted": true})
}

// UpsertStatValue 写入某指标的单日观测值
func (a *API) UpsertStatValue(c *gin.Context) {
	userID, _ := currentUserID(c)

	var payload struct {
		StatID uint    `json:"stat_id"`
		Date   string  `json:"date"` // 2006-01-02
		Value  float64 `json:"value"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	if payload.Date == "" {
		respondError(c, http.StatusBadRequest, "请选择日期")
		return
	}

	date, err := parseDate(payload.Date)
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return
	}

	value, err := a.stats.UpsertValue(userID, payload.StatID, date, payload.Value)
	if err != nil {
		handleStatError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"value": statValueToPayload(*value)})
}

// SaveDailyStats 显式保存日总结：固定字段与当日达成标记一并写入
// 达成标记只在这里断言，不由完成率自动推导
func (a *API) SaveDailyStats(c *gin.Context) {
	userID, _ := currentUserID(c)

	var payload struct {
		Date           string  `json:"date"` // 2006-01-02
		EnergyLevel    int     `json:"energy_level"`
		FocusLevel     int     `json:"focus_level"`
		Consistency    int     `json:"consistency"`
		DSAHours       float64 `json:"dsa_hours"`
		LLDHours       float64 `json:"lld_hours"`
		ProblemsSolved int     `json:"problems_solved"`
		GymHours       float64 `json:"gym_hours"`
		CaloriesBurned float64 `json:"calories_burned"`
		IsSuccess      bool    `json:"is_success"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	if payload.Date == "" {
		respondError(c, http.StatusBadRequest, "请选择日期")
		return
	}

	date, err := parseDate(payload.Date)
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return
	}

	stat, err := a.stats.UpsertDailyStat(userID, date, service.DailyStatInput{
		EnergyLevel:    payload.EnergyLevel,
		FocusLevel:     payload.FocusLevel,
		Consistency:    payload.Consistency,
		DSAHours:       payload.DSAHours,
		LLDHours:       payload.LLDHours,
		ProblemsSolved: payload.ProblemsSolved,
		GymHours:       payload.GymHours,
		CaloriesBurned: payload.CaloriesBurned,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "保存日总结失败")
		return
	}

	streak, err := a.stats.UpsertStreak(userID, date, payload.IsSuccess)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "保存达成标记失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"daily_stat": dailyStatToPayload(*stat),
		"streak":     streakToPayload(*streak),
	})
}

// GetStreaks 返回区间内的达成标记，用于日历渲染
func (a *API) GetStreaks(c *gin.Context) {
	userID, _ := currentUserID(c)

	start, err := parseDate(c.Query("start"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的开始日期")
		return
	}
	end, err := parseDate(c.Query("end"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的结束日期")
		return
	}

	streaks, err := a.stats.ListStreaksBetween(userID, start, end)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取达成记录失败")
		return
	}

	payload := make([]gin.H, 0, len(streaks))
	for _, streak := range streaks {
		payload = append(payload, streakToPayload(streak))
	}

	respondSuccess(c, http.StatusOK, gin.H{"streaks": payload})
}

// GetDailySummary 返回某日的营养卡片、消耗与净热量
// 消耗优先取已保存的日总结字段，否则由 ROUTINE 打卡即时计算
func (a *API) GetDailySummary(c *gin.Context) {
	userID, _ := currentUserID(c)

	date, ok := parseDateQuery(c, "date")
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return
	}

	items, err := a.items.List(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取清单失败")
		return
	}

	logs, err := a.logs.ListForDate(userID, date)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取打卡记录失败")
		return
	}

	nutrition := service.DailyNutrition(items, logs)

	var burned float64
	stored, err := a.stats.GetDailyStat(userID, date)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取日总结失败")
		return
	}
	if stored != nil {
		burned = stored.CaloriesBurned
	} else {
		burned = service.CaloriesBurned(items, logs)
	}

	streakCompletion := service.StreakCompletion(items, logs)

	respondSuccess(c, http.StatusOK, gin.H{
		"date":         date.Format(dateFormat),
		"nutrition":    nutrition,
		"burned":       burned,
		"net_calories": service.NetCalories(nutrition.Calories, burned),
		"streak_completion": gin.H{
			"completed": streakCompletion.Completed,
			"total":     streakCompletion.Total,
			"rate":      streakCompletion.Rate(),
		},
	})
}

// GetStatSeries 返回逐日无缺口的图表序列
// range 取 7d/30d/90d/all/custom；custom 缺边界时返回空序列
func (a *API) GetStatSeries(c *gin.Context) {
	userID, _ := currentUserID(c)

	preset := strings.ToLower(strings.TrimSpace(c.DefaultQuery("range", service.RangeLast7Days)))
	selected := splitStatIDs(c.Query("stats"))

	var startPtr, endPtr *time.Time
	if raw := strings.TrimSpace(c.Query("start")); raw != "" {
		if parsed, err := parseDate(raw); err == nil {
			startPtr = &parsed
		} else {
			respondError(c, http.StatusBadRequest, "无效的开始日期")
			return
		}
	}
	if raw := strings.TrimSpace(c.Query("end")); raw != "" {
		if parsed, err := parseDate(raw); err == nil {
			endPtr = &parsed
		} else {
			respondError(c, http.StatusBadRequest, "无效的结束日期")
			return
		}
	}

	start, end, ok := service.ResolveRange(preset, startPtr, endPtr, time.Now())
	if !ok {
		// custom 模式缺边界：给出空结果而非猜测
		respondSuccess(c, http.StatusOK, gin.H{"series": []service.SeriesPoint{}})
		return
	}

	items, err := a.items.List(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取清单失败")
		return
	}

	logs, err := a.logs.ListBetween(userID, start, end)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取打卡记录失败")
		return
	}

	values, err := a.stats.ListValuesBetween(userID, start, end)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取指标数据失败")
		return
	}

	series := service.BuildTimeSeries(service.TimeSeriesInput{
		Start:      start,
		End:        end,
		Selected:   selected,
		Items:      items,
		Logs:       logs,
		StatValues: values,
	})

	respondSuccess(c, http.StatusOK, gin.H{
		"range":  gin.H{"start": start.Format(dateFormat), "end": end.Format(dateFormat), "preset": preset},
		"series": series,
	})
}

func statDefToPayload(def db.StatDefinition) gin.H {
	return gin.H{
		"id":    def.ID,
		"label": def.Label,
		"emoji": def.Emoji,
		"color": def.Color,
		"type":  def.Type,
	}
}

func statValueToPayload(value db.DailyStatValue) gin.H {
	return gin.H{
		"id":      value.ID,
		"stat_id": value.StatDefinitionID,
		"date":    value.LogDate.Format(dateFormat),
		"value":   value.Value,
	}
}

func dailyStatToPayload(stat db.DailyStat) gin.H {
	return gin.H{
		"id":              stat.ID,
		"date":            stat.LogDate.Format(dateFormat),
		"energy_level":    stat.EnergyLevel,
		"focus_level":     stat.FocusLevel,
		"consistency":     stat.Consistency,
		"dsa_hours":       stat.DSAHours,
		"lld_hours":       stat.LLDHours,
		"problems_solved": stat.ProblemsSolved,
		"gym_hours":       stat.GymHours,
		"calories_burned": stat.CaloriesBurned,
	}
}

func streakToPayload(streak db.Streak) gin.H {
	return gin.H{
		"id":         streak.ID,
		"date":       streak.LogDate.Format(dateFormat),
		"is_success": streak.IsSuccess,
	}
}

func handleStatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStatNotFound):
		respondError(c, http.StatusNotFound, "指标不存在")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
