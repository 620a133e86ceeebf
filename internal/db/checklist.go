package db

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// 清单项类别，决定元数据形态与统计口径
const (
	CategoryRoutine    = "ROUTINE"
	CategorySupplement = "SUPPLEMENT"
	CategoryDiet       = "DIET"
)

// DietMetadata 描述饮食项的单位营养成分
// 所有字段均为"每单位"数值，缺省为 0
type DietMetadata struct {
	Calories float64 `json:"calories,omitempty"`
	Protein  float64 `json:"protein,omitempty"`
	Carbs    float64 `json:"carbs,omitempty"`
	Fiber    float64 `json:"fiber,omitempty"`
	Fats     float64 `json:"fats,omitempty"`
}

// ExerciseMetadata 描述运动项完成一次的消耗
type ExerciseMetadata struct {
	CaloriesBurn float64 `json:"calories_burn,omitempty"`
}

// ItemMetadata 是按类别区分的元数据变体
// DIET 项使用 Diet，带 calories_burn 的 ROUTINE 项使用 Exercise，其余为空
type ItemMetadata struct {
	Diet     *DietMetadata     `json:"diet,omitempty"`
	Exercise *ExerciseMetadata `json:"exercise,omitempty"`
}

// ChecklistItem 定义了可打卡的动作/食物条目
// Metadata 以 JSON 序列化存储，OrderIndex 控制列表展示顺序
type ChecklistItem struct {
	gorm.Model
	UserID     uint   `gorm:"index"`
	Category   string `gorm:"size:20;index"`
	Name       string
	Metadata   ItemMetadata `gorm:"serializer:json"`
	OrderIndex int
}

// IsWater 判定是否为饮水项：名称包含 water（忽略大小写）
// 饮水项不参与热量/宏量计算，数量直接计入水总量（升）
func (i ChecklistItem) IsWater() bool {
	return strings.Contains(strings.ToLower(i.Name), "water")
}

// DailyChecklistLog 记录清单项的每日打卡
// ChecklistItem + LogDate 采用唯一索引，保证幂等
// Value 为 DIET 项的数量字符串，非数字按 0 处理
type DailyChecklistLog struct {
	gorm.Model
	UserID          uint          `gorm:"index"`
	ChecklistItemID uint          `gorm:"index;index:idx_checklist_log_unique,unique"`
	ChecklistItem   ChecklistItem `gorm:"constraint:OnDelete:CASCADE"`
	LogDate         time.Time     `gorm:"index:idx_checklist_log_unique,unique"`
	IsDone          bool
	Value           string
}

// TableName 重写确保唯一索引作用到 checklist_item_id + log_date
func (DailyChecklistLog) TableName() string {
	return "daily_checklist_logs"
}
