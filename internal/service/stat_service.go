package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/daytrack/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrStatNotFound 在指定指标不存在时返回
	ErrStatNotFound = errors.New("stat definition not found")
)

// StatService 负责自定义指标定义及其观测值
// 固定字段的 DailyStat 与连胜标记也由它写入

type StatService struct {
	db *gorm.DB
}

// StatDefinitionInput 定义创建/更新指标时可配置字段
type StatDefinitionInput struct {
	Label string
	Emoji string
	Color string
}

// DailyStatInput 汇总显式保存日总结时的固定字段
type DailyStatInput struct {
	EnergyLevel    int
	FocusLevel     int
	Consistency    int
	DSAHours       float64
	LLDHours       float64
	ProblemsSolved int
	GymHours       float64
	CaloriesBurned float64
}

// NewStatService 构造 StatService
func NewStatService(gdb *gorm.DB) *StatService {
	return &StatService{db: gdb}
}

// ListDefinitions 返回用户的全部自定义指标
func (s *StatService) ListDefinitions(userID uint) ([]db.StatDefinition, error) {
	var defs []db.StatDefinition
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("list stat definitions: %w", err)
	}
	return defs, nil
}

// CreateDefinition 新建自定义指标，类型固定为 number
func (s *StatService) CreateDefinition(userID uint, input StatDefinitionInput) (*db.StatDefinition, error) {
	if strings.TrimSpace(input.Label) == "" {
		return nil, fmt.Errorf("stat label is required")
	}

	def := db.StatDefinition{
		UserID: userID,
		Label:  strings.TrimSpace(input.Label),
		Emoji:  strings.TrimSpace(input.Emoji),
		Color:  strings.TrimSpace(input.Color),
		Type:   db.StatTypeNumber,
	}

	if err := s.db.Create(&def).Error; err != nil {
		return nil, fmt.Errorf("create stat definition: %w", err)
	}
	return &def, nil
}

// UpdateDefinition 更新自定义指标
func (s *StatService) UpdateDefinition(userID, id uint, input StatDefinitionInput) (*db.StatDefinition, error) {
	var existing db.StatDefinition
	if err := s.db.Where("user_id = ?", userID).First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatNotFound
		}
		return nil, fmt.Errorf("find stat definition: %w", err)
	}

	existing.Label = strings.TrimSpace(input.Label)
	existing.Emoji = strings.TrimSpace(input.Emoji)
	existing.Color = strings.TrimSpace(input.Color)

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update stat definition: %w", err)
	}
	return &existing, nil
}

// DeleteDefinition 删除指标及其全部观测值
// 级联清理由调用方负责，不依赖数据库隐式约束
func (s *StatService) DeleteDefinition(userID, id uint) error {
	var existing db.StatDefinition
	if err := s.db.Where("user_id = ?", userID).First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStatNotFound
		}
		return fmt.Errorf("find stat definition: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("stat_definition_id = ?", id).
			Delete(&db.DailyStatValue{}).Error; err != nil {
			return fmt.Errorf("delete stat values: %w", err)
		}
		if err := tx.Delete(&db.StatDefinition{}, id).Error; err != nil {
			return fmt.Errorf("delete stat definition: %w", err)
		}
		return nil
	})
}

// UpsertValue 写入某指标单日观测值，同一 (definition, date) 幂等
func (s *StatService) UpsertValue(userID, statDefID uint, date time.Time, value float64) (*db.DailyStatValue, error) {
	var def db.StatDefinition
	if err := s.db.Where("user_id = ?", userID).First(&def, statDefID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatNotFound
		}
		return nil, fmt.Errorf("find stat definition: %w", err)
	}

	logDate := normalizeToDate(date)
	record := db.DailyStatValue{
		UserID:           userID,
		StatDefinitionID: statDefID,
		LogDate:          logDate,
		Value:            value,
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stat_definition_id"}, {Name: "log_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("upsert stat value: %w", err)
	}

	if err := s.db.Where("stat_definition_id = ? AND log_date = ?", statDefID, logDate).
		First(&record).Error; err != nil {
		return nil, fmt.Errorf("reload stat value: %w", err)
	}

	return &record, nil
}

// ListValuesBetween 返回闭区间内的观测值，按日期升序
func (s *StatService) ListValuesBetween(userID uint, start, end time.Time) ([]db.DailyStatValue, error) {
	var values []db.DailyStatValue
	if err := s.db.Where("user_id = ?", userID).
		Where("log_date BETWEEN ? AND ?", normalizeToDate(start), normalizeToDate(end)).
		Order("log_date ASC").
		Find(&values).Error; err != nil {
		return nil, fmt.Errorf("list stat values: %w", err)
	}
	return values, nil
}

// UpsertDailyStat 写入固定字段日总结，同一 (user, date) 幂等
func (s *StatService) UpsertDailyStat(userID uint, date time.Time, input DailyStatInput) (*db.DailyStat, error) {
	logDate := normalizeToDate(date)

	record := db.DailyStat{
		UserID:         userID,
		LogDate:        logDate,
		EnergyLevel:    input.EnergyLevel,
		FocusLevel:     input.FocusLevel,
		Consistency:    input.Consistency,
		DSAHours:       input.DSAHours,
		LLDHours:       input.LLDHours,
		ProblemsSolved: input.ProblemsSolved,
		GymHours:       input.GymHours,
		CaloriesBurned: input.CaloriesBurned,
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "log_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"energy_level", "focus_level", "consistency", "dsa_hours",
			"lld_hours", "problems_solved", "gym_hours", "calories_burned", "updated_at",
		}),
	}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("upsert daily stat: %w", err)
	}

	if err := s.db.Where("user_id = ? AND log_date = ?", userID, logDate).
		First(&record).Error; err != nil {
		return nil, fmt.Errorf("reload daily stat: %w", err)
	}

	return &record, nil
}

// GetDailyStat 读取某日的固定字段总结，不存在时返回 nil
func (s *StatService) GetDailyStat(userID uint, date time.Time) (*db.DailyStat, error) {
	var record db.DailyStat
	err := s.db.Where("user_id = ? AND log_date = ?", userID, normalizeToDate(date)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get daily stat: %w", err)
	}
	return &record, nil
}

// UpsertStreak 写入用户显式断言的当日达成标记
// 该标记不会由完成率自动推导，日历展示只读回它
func (s *StatService) UpsertStreak(userID uint, date time.Time, isSuccess bool) (*db.Streak, error) {
	logDate := normalizeToDate(date)

	record := db.Streak{
		UserID:    userID,
		LogDate:   logDate,
		IsSuccess: isSuccess,
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "log_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_success", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("upsert streak: %w", err)
	}

	if err := s.db.Where("user_id = ? AND log_date = ?", userID, logDate).
		First(&record).Error; err != nil {
		return nil, fmt.Errorf("reload streak: %w", err)
	}

	return &record, nil
}

// ListStreaksBetween 返回闭区间内的达成标记，按日期升序
func (s *StatService) ListStreaksBetween(userID uint, start, end time.Time) ([]db.Streak, error) {
	var streaks []db.Streak
	if err := s.db.Where("user_id = ?", userID).
		Where("log_date BETWEEN ? AND ?", normalizeToDate(start), normalizeToDate(end)).
		Order("log_date ASC").
		Find(&streaks).Error; err != nil {
		return nil, fmt.Errorf("list streaks: %w", err)
	}
	return streaks, nil
}
