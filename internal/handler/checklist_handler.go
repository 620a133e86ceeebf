package handler

import (
	"errors"
	"net/http"

	"github.com/daytrack/internal/db"
	"github.com/daytrack/internal/service"
	"github.com/gin-gonic/gin"
)

type checklistItemPayload struct {
	Category   string          `json:"category"`
	Name       string          `json:"name"`
	Metadata   db.ItemMetadata `json:"metadata"`
	OrderIndex int             `json:"order_index"`
}

// ListChecklistItems 返回清单项列表 JSON
func (a *API) ListChecklistItems(c *gin.Context) {
	userID, _ := currentUserID(c)

	items, err := a.items.List(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取清单失败")
		return
	}

	payload := make([]gin.H, 0, len(items))
	for _, item := range items {
		payload = append(payload, itemToPayload(item))
	}

	respondSuccess(c, http.StatusOK, gin.H{"items": payload})
}

// CreateChecklistItem 创建清单项
func (a *API) CreateChecklistItem(c *gin.Context) {
	userID, _ := currentUserID(c)

	var payload checklistItemPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.items.Create(userID, service.ChecklistItemInput{
		Category:   payload.Category,
		Name:       payload.Name,
		Metadata:   payload.Metadata,
		OrderIndex: payload.OrderIndex,
	})
	if err != nil {
		handleChecklistError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"item": itemToPayload(*item)})
}

// UpdateChecklistItem 更新清单项
func (a *API) UpdateChecklistItem(c *gin.Context) {
	userID, _ := currentUserID(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的清单项ID")
		return
	}

	var payload checklistItemPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	item, err := a.items.Update(userID, id, service.ChecklistItemInput{
		Category:   payload.Category,
		Name:       payload.Name,
		Metadata:   payload.Metadata,
		OrderIndex: payload.OrderIndex,
	})
	if err != nil {
		handleChecklistError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"item": itemToPayload(*item)})
}

// DeleteChecklistItem 删除清单项及其全部打卡记录
func (a *API) DeleteChecklistItem(c *gin.Context) {
	userID, _ := currentUserID(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的清单项ID")
		return
	}

	if err := a.items.Delete(userID, id); err != nil {
		handleChecklistError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"deleted": true})
}

// ReorderChecklistItems 按给定顺序重排清单项
func (a *API) ReorderChecklistItems(c *gin.Context) {
	userID, _ := currentUserID(c)

	var payload struct {
		IDs []uint `json:"ids"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	if len(payload.IDs) == 0 {
		respondError(c, http.StatusBadRequest, "排序列表不能为空")
		return
	}

	if err := a.items.Reorder(userID, payload.IDs); err != nil {
		handleChecklistError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"reordered": true})
}

// UpsertChecklistLog 为清单项打卡，同一 (item, date) 幂等
func (a *API) UpsertChecklistLog(c *gin.Context) {
	userID, _ := currentUserID(c)

	itemID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的清单项ID")
		return
	}

	if _, err := a.items.Get(userID, itemID); err != nil {
		handleChecklistError(c, err)
		return
	}

	var payload struct {
		Date   string `json:"date"` // 2006-01-02
		IsDone bool   `json:"is_done"`
		Value  string `json:"value"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	if payload.Date == "" {
		respondError(c, http.StatusBadRequest, "请选择打卡日期")
		return
	}

	logDate, err := parseDate(payload.Date)
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的打卡日期")
		return
	}

	entry, err := a.logs.Upsert(userID, service.ChecklistLogInput{
		ChecklistItemID: itemID,
		LogDate:         logDate,
		IsDone:          payload.IsDone,
		Value:           payload.Value,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "保存打卡记录失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"log": logToPayload(*entry)})
}

// GetChecklist 返回某日的清单视图：条目、打卡与各分区完成率
func (a *API) GetChecklist(c *gin.Context) {
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

	itemPayloads := make([]gin.H, 0, len(items))
	for _, item := range items {
		itemPayloads = append(itemPayloads, itemToPayload(item))
	}

	logPayloads := make([]gin.H, 0, len(logs))
	for _, entry := range logs {
		logPayloads = append(logPayloads, logToPayload(entry))
	}

	sections := gin.H{}
	for _, section := range []string{
		service.SectionOverview,
		service.SectionRoutine,
		service.SectionSupplements,
		service.SectionDiet,
	} {
		completion := service.SectionCompletion(section, items, logs)
		sections[section] = gin.H{
			"completed": completion.Completed,
			"total":     completion.Total,
			"rate":      completion.Rate(),
		}
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"date":     date.Format(dateFormat),
		"items":    itemPayloads,
		"logs":     logPayloads,
		"sections": sections,
	})
}

func itemToPayload(item db.ChecklistItem) gin.H {
	return gin.H{
		"id":          item.ID,
		"category":    item.Category,
		"name":        item.Name,
		"metadata":    item.Metadata,
		"order_index": item.OrderIndex,
	}
}

func logToPayload(entry db.DailyChecklistLog) gin.H {
	return gin.H{
		"id":      entry.ID,
		"item_id": entry.ChecklistItemID,
		"date":    entry.LogDate.Format(dateFormat),
		"is_done": entry.IsDone,
		"value":   entry.Value,
	}
}

func handleChecklistError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrItemNotFound):
		respondError(c, http.StatusNotFound, "清单项不存在")
	case errors.Is(err, service.ErrItemInvalidCategory):
		respondError(c, http.StatusBadRequest, "类别无效")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
