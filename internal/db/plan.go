package db

import "gorm.io/gorm"

// 预置计划类型，Type 也允许自由标题
const (
	PlanTypeCP   = "CP"
	PlanTypeDiet = "DIET"
	PlanTypeGym  = "GYM"
)

// Plan 存储长篇 Markdown 文档（刷题/饮食/健身计划等）
// 不参与任何聚合计算，仅做增删改查与渲染
type Plan struct {
	gorm.Model
	UserID  uint   `gorm:"index"`
	Type    string `gorm:"size:50;index"`
	Title   string
	Content string `gorm:"type:text"`
}
