package service

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/daytrack/internal/db"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"
)

// ErrPlanNotFound 在指定计划不存在时返回
var ErrPlanNotFound = errors.New("plan not found")

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// PlanService 负责长篇 Markdown 计划文档的增删改查与渲染
type PlanService struct {
	db *gorm.DB
}

// PlanInput 定义创建/更新计划时可配置字段
type PlanInput struct {
	Type    string
	Title   string
	Content string
}

// NewPlanService 构造 PlanService
func NewPlanService(gdb *gorm.DB) *PlanService {
	return &PlanService{db: gdb}
}

// List 返回用户的全部计划
func (s *PlanService) List(userID uint) ([]db.Plan, error) {
	var plans []db.Plan
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// Get 根据 ID 获取计划
func (s *PlanService) Get(userID, id uint) (*db.Plan, error) {
	var plan db.Plan
	if err := s.db.Where("user_id = ?", userID).First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return &plan, nil
}

// Create 新建计划
func (s *PlanService) Create(userID uint, input PlanInput) (*db.Plan, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("plan title is required")
	}

	plan := db.Plan{
		UserID:  userID,
		Type:    strings.TrimSpace(input.Type),
		Title:   strings.TrimSpace(input.Title),
		Content: input.Content,
	}

	if err := s.db.Create(&plan).Error; err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	return &plan, nil
}

// Update 更新计划
func (s *PlanService) Update(userID, id uint, input PlanInput) (*db.Plan, error) {
	existing, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	existing.Type = strings.TrimSpace(input.Type)
	existing.Title = strings.TrimSpace(input.Title)
	existing.Content = input.Content

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	return existing, nil
}

// Delete 删除计划
func (s *PlanService) Delete(userID, id uint) error {
	if _, err := s.Get(userID, id); err != nil {
		return err
	}
	if err := s.db.Delete(&db.Plan{}, id).Error; err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return nil
}

// RenderMarkdown 将计划内容渲染为净化后的 HTML
func RenderMarkdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return sanitizer.Sanitize(buf.String()), nil
}
