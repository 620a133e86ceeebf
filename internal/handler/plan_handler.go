package handler

import (
	"errors"
	"net/http"

	"github.com/daytrack/internal/db"
	"github.com/daytrack/internal/service"
	"github.com/gin-gonic/gin"
)

type planPayload struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ListPlans 返回计划列表（不含渲染结果）
func (a *API) ListPlans(c *gin.Context) {
	userID, _ := currentUserID(c)

	plans, err := a.plans.List(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取计划列表失败")
		return
	}

	payload := make([]gin.H, 0, len(plans))
	for _, plan := range plans {
		payload = append(payload, planToPayload(plan, ""))
	}

	respondSuccess(c, http.StatusOK, gin.H{"plans": payload})
}

// GetPlan 返回单个计划，附带净化后的 HTML 渲染
func (a *API) GetPlan(c *gin.Context) {
	userID, _ := currentUserID(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的计划ID")
		return
	}

	plan, err := a.plans.Get(userID, id)
	if err != nil {
		handlePlanError(c, err)
		return
	}

	rendered, err := service.RenderMarkdown(plan.Content)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "渲染计划失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"plan": planToPayload(*plan, rendered)})
}

// CreatePlan 创建计划
func (a *API) CreatePlan(c *gin.Context) {
	userID, _ := currentUserID(c)

	var payload planPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	plan, err := a.plans.Create(userID, service.PlanInput{
		Type:    payload.Type,
		Title:   payload.Title,
		Content: payload.Content,
	})
	if err != nil {
		respondError(c, http.StatusBadRequest, "创建计划失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"plan": planToPayload(*plan, "")})
}

// UpdatePlan 更新计划
func (a *API) UpdatePlan(c *gin.Context) {
	userID, _ := currentUserID(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的计划ID")
		return
	}

	var payload planPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	plan, err := a.plans.Update(userID, id, service.PlanInput{
		Type:    payload.Type,
		Title:   payload.Title,
		Content: payload.Content,
	})
	if err != nil {
		handlePlanError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"plan": planToPayload(*plan, "")})
}

// DeletePlan 删除计划
func (a *API) DeletePlan(c *gin.Context) {
	userID, _ := currentUserID(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的计划ID")
		return
	}

	if err := a.plans.Delete(userID, id); err != nil {
		handlePlanError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"deleted": true})
}

func planToPayload(plan db.Plan, rendered string) gin.H {
	payload := gin.H{
		"id":      plan.ID,
		"type":    plan.Type,
		"title":   plan.Title,
		"content": plan.Content,
	}
	if rendered != "" {
		payload["html"] = rendered
	}
	return payload
}

func handlePlanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound):
		respondError(c, http.StatusNotFound, "计划不存在")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
