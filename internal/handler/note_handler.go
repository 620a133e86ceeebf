package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetNote 读取某日随笔，不存在时返回空内容
func (a *API) GetNote(c *gin.Context) {
	userID, _ := currentUserID(c)

	date, ok := parseDateQuery(c, "date")
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return
	}

	note, err := a.notes.Get(userID, date)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取随笔失败")
		return
	}

	content := ""
	if note != nil {
		content = note.Content
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"date":    date.Format(dateFormat),
		"content": content,
	})
}

// UpsertNote 写入某日随笔，同一 (user, date) 幂等
func (a *API) UpsertNote(c *gin.Context) {
	userID, _ := currentUserID(c)

	var payload struct {
		Date    string `json:"date"` // 2006-01-02
		Content string `json:"content"`
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

	note, err := a.notes.Upsert(userID, date, payload.Content)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "保存随笔失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"date":    note.LogDate.Format(dateFormat),
		"content": note.Content,
	})
}
