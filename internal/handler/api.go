package handler

import (
	"github.com/daytrack/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db    *gorm.DB
	auth  *service.AuthService
	items *service.ChecklistItemService
	logs  *service.ChecklistLogService
	stats *service.StatService
	notes *service.NoteService
	plans *service.PlanService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB) *API {
	return &API{
		db:    db,
		auth:  service.NewAuthService(db),
		items: service.NewChecklistItemService(db),
		logs:  service.NewChecklistLogService(db),
		stats: service.NewStatService(db),
		notes: service.NewNoteService(db),
		plans: service.NewPlanService(db),
	}
}

// DB exposes the underlying gorm instance for legacy paths.
func (a *API) DB() *gorm.DB {
	return a.db
}
