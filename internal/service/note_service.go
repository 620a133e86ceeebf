package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/daytrack/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NoteService 负责每日随笔的读写，每用户每天至多一条
type NoteService struct {
	db *gorm.DB
}

// NewNoteService 构造 NoteService
func NewNoteService(gdb *gorm.DB) *NoteService {
	return &NoteService{db: gdb}
}

// Get 读取某日随笔，不存在时返回 nil
func (s *NoteService) Get(userID uint, date time.Time) (*db.Note, error) {
	var note db.Note
	err := s.db.Where("user_id = ? AND log_date = ?", userID, normalizeToDate(date)).
		First(&note).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	return &note, nil
}

// Upsert 写入某日随笔，同一 (user, date) 幂等
func (s *NoteService) Upsert(userID uint, date time.Time, content string) (*db.Note, error) {
	logDate := normalizeToDate(date)

	record := db.Note{
		UserID:  userID,
		LogDate: logDate,
		Content: content,
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "log_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("upsert note: %w", err)
	}

	if err := s.db.Where("user_id = ? AND log_date = ?", userID, logDate).
		First(&record).Error; err != nil {
		return nil, fmt.Errorf("reload note: %w", err)
	}

	return &record, nil
}
