package db

import (
	"time"

	"gorm.io/gorm"
)

// Note 是每日自由文本日志，User + LogDate 唯一
type Note struct {
	gorm.Model
	UserID  uint      `gorm:"index;index:idx_note_unique,unique"`
	LogDate time.Time `gorm:"index:idx_note_unique,unique"`
	Content string    `gorm:"type:text"`
}
