package db

import (
	"time"

	"gorm.io/gorm"
)

// StatTypeNumber 是目前唯一支持的自定义指标类型
const StatTypeNumber = "number"

// StatDefinition 定义了用户自建的数值指标
// Emoji 与 Color 仅用于前端展示
type StatDefinition struct {
	gorm.Model
	UserID uint   `gorm:"index"`
	Label  string `gorm:"not null"`
	Emoji  string `gorm:"size:10"`
	Color  string `gorm:"size:20"`
	Type   string `gorm:"size:20;default:number"`
}

// DailyStatValue 记录某个自定义指标的单日观测值
// StatDefinition + LogDate 采用唯一索引，保证幂等
type DailyStatValue struct {
	gorm.Model
	UserID           uint           `gorm:"index"`
	StatDefinitionID uint           `gorm:"index;index:idx_stat_value_unique,unique"`
	StatDefinition   StatDefinition `gorm:"constraint:OnDelete:CASCADE"`
	LogDate          time.Time      `gorm:"index:idx_stat_value_unique,unique"`
	Value            float64
}

// TableName 重写确保唯一索引作用到 stat_definition_id + log_date
func (DailyStatValue) TableName() string {
	return "daily_stat_values"
}

// DailyStat 是历史遗留的固定字段日总结
// 与 StatDefinition/DailyStatValue 并存，新指标走自定义通道
type DailyStat struct {
	gorm.Model
	UserID         uint      `gorm:"index;index:idx_daily_stat_unique,unique"`
	LogDate        time.Time `gorm:"index:idx_daily_stat_unique,unique"`
	EnergyLevel    int
	FocusLevel     int
	Consistency    int
	DSAHours       float64
	LLDHours       float64
	ProblemsSolved int
	GymHours       float64
	CaloriesBurned float64
}

// Streak 记录单日是否达成
// 仅由用户显式保存日总结时写入，日历展示只读回该标记
type Streak struct {
	gorm.Model
	UserID    uint      `gorm:"index;index:idx_streak_unique,unique"`
	LogDate   time.Time `gorm:"index:idx_streak_unique,unique"`
	IsSuccess bool
}
