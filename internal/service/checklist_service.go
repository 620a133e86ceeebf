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
	// ErrItemNotFound 在指定清单项不存在时返回
	ErrItemNotFound = errors.New("checklist item not found")
	// ErrItemInvalidCategory 当类别不在 ROUTINE/SUPPLEMENT/DIET 内时返回
	ErrItemInvalidCategory = errors.New("invalid checklist item category")
)

// ChecklistItemService 负责清单项的增删改查
// 所有操作按 UserID 隔离，绝不跨用户读写

type ChecklistItemService struct {
	db *gorm.DB
}

// ChecklistItemInput 定义创建/更新清单项时可配置字段
type ChecklistItemInput struct {
	Category   string
	Name       string
	Metadata   db.ItemMetadata
	OrderIndex int
}

// NewChecklistItemService 构造 ChecklistItemService
func NewChecklistItemService(gdb *gorm.DB) *ChecklistItemService {
	return &ChecklistItemService{db: gdb}
}

// List 返回用户的全部清单项，按 OrderIndex 排序
func (s *ChecklistItemService) List(userID uint) ([]db.ChecklistItem, error) {
	var items []db.ChecklistItem
	if err := s.db.Where("user_id = ?", userID).
		Order("order_index ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list checklist items: %w", err)
	}
	return items, nil
}

// Get 根据 ID 获取清单项
func (s *ChecklistItemService) Get(userID, id uint) (*db.ChecklistItem, error) {
	var item db.ChecklistItem
	if err := s.db.Where("user_id = ?", userID).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get checklist item: %w", err)
	}
	return &item, nil
}

// Create 新建清单项
func (s *ChecklistItemService) Create(userID uint, input ChecklistItemInput) (*db.ChecklistItem, error) {
	category, err := validateCategory(input.Category)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("checklist item name is required")
	}

	item := db.ChecklistItem{
		UserID:     userID,
		Category:   category,
		Name:       strings.TrimSpace(input.Name),
		Metadata:   input.Metadata,
		OrderIndex: input.OrderIndex,
	}

	if err := s.db.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("create checklist item: %w", err)
	}
	return &item, nil
}

// Update 更新清单项
func (s *ChecklistItemService) Update(userID, id uint, input ChecklistItemInput) (*db.ChecklistItem, error) {
	category, err := validateCategory(input.Category)
	if err != nil {
		return nil, err
	}

	existing, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	existing.Category = category
	existing.Name = strings.TrimSpace(input.Name)
	existing.Metadata = input.Metadata
	existing.OrderIndex = input.OrderIndex

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update checklist item: %w", err)
	}
	return existing, nil
}

// Delete 删除清单项及其全部打卡记录
// 级联清理由调用方负责，不依赖数据库隐式约束
func (s *ChecklistItemService) Delete(userID, id uint) error {
	if _, err := s.Get(userID, id); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("checklist_item_id = ?", id).
			Delete(&db.DailyChecklistLog{}).Error; err != nil {
			return fmt.Errorf("delete checklist logs: %w", err)
		}
		if err := tx.Delete(&db.ChecklistItem{}, id).Error; err != nil {
			return fmt.Errorf("delete checklist item: %w", err)
		}
		return nil
	})
}

// Reorder 按给定 ID 顺序重写 OrderIndex
func (s *ChecklistItemService) Reorder(userID uint, orderedIDs []uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for index, id := range orderedIDs {
			result := tx.Model(&db.ChecklistItem{}).
				Where("user_id = ? AND id = ?", userID, id).
				Update("order_index", index)
			if result.Error != nil {
				return fmt.Errorf("reorder checklist item: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return ErrItemNotFound
			}
		}
		return nil
	})
}

func validateCategory(category string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(category))
	switch normalized {
	case db.CategoryRoutine, db.CategorySupplement, db.CategoryDiet:
		return normalized, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrItemInvalidCategory, category)
	}
}

// ChecklistLogService 负责打卡记录的幂等写入与查询
type ChecklistLogService struct {
	db *gorm.DB
}

// ChecklistLogInput 定义打卡时的输入对象
// Value 仅 DIET 项使用，存数量字符串
type ChecklistLogInput struct {
	ChecklistItemID uint
	LogDate         time.Time
	IsDone          bool
	Value           string
}

// NewChecklistLogService 构造 ChecklistLogService
func NewChecklistLogService(gdb *gorm.DB) *ChecklistLogService {
	return &ChecklistLogService{db: gdb}
}

// Upsert 处理幂等打卡逻辑：同一 (item, date) 存在则更新，否则创建
func (s *ChecklistLogService) Upsert(userID uint, input ChecklistLogInput) (*db.DailyChecklistLog, error) {
	logDate := normalizeToDate(input.LogDate)

	record := db.DailyChecklistLog{
		UserID:          userID,
		ChecklistItemID: input.ChecklistItemID,
		LogDate:         logDate,
		IsDone:          input.IsDone,
		Value:           strings.TrimSpace(input.Value),
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "checklist_item_id"}, {Name: "log_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_done", "value", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("upsert checklist log: %w", err)
	}

	if err := s.db.Where("checklist_item_id = ? AND log_date = ?", input.ChecklistItemID, logDate).
		First(&record).Error; err != nil {
		return nil, fmt.Errorf("reload checklist log: %w", err)
	}

	return &record, nil
}

// ListForDate 返回用户某一天的全部打卡记录
func (s *ChecklistLogService) ListForDate(userID uint, date time.Time) ([]db.DailyChecklistLog, error) {
	day := normalizeToDate(date)

	var logs []db.DailyChecklistLog
	if err := s.db.Where("user_id = ? AND log_date = ?", userID, day).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list checklist logs: %w", err)
	}
	return logs, nil
}

// ListBetween 返回闭区间内的打卡记录，按日期升序
func (s *ChecklistLogService) ListBetween(userID uint, start, end time.Time) ([]db.DailyChecklistLog, error) {
	var logs []db.DailyChecklistLog
	if err := s.db.Where("user_id = ?", userID).
		Where("log_date BETWEEN ? AND ?", normalizeToDate(start), normalizeToDate(end)).
		Order("log_date ASC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list checklist logs: %w", err)
	}
	return logs, nil
}
