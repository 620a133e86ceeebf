package service

import (
	"errors"
	"testing"
	"time"

	"github.com/daytrack/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(
		&db.User{},
		&db.OneTimeCode{},
		&db.ChecklistItem{},
		&db.DailyChecklistLog{},
		&db.StatDefinition{},
		&db.DailyStatValue{},
		&db.DailyStat{},
		&db.Streak{},
		&db.Note{},
		&db.Plan{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestChecklistItemCreateAndList(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewChecklistItemService(db.DB)

	item, err := svc.Create(1, ChecklistItemInput{
		Category: "diet",
		Name:     "Rice",
		Metadata: db.ItemMetadata{Diet: &db.DietMetadata{Calories: 1.08}},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if item.ID == 0 {
		t.Fatal("expected item to have ID")
	}
	if item.Category != db.CategoryDiet {
		t.Fatalf("category should normalize to upper case, got %s", item.Category)
	}

	// 其他用户不可见
	foreign, err := svc.List(2)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(foreign) != 0 {
		t.Fatalf("expected no items for other user, got %d", len(foreign))
	}

	items, err := svc.List(1)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	// 不合法类别
	if _, err := svc.Create(1, ChecklistItemInput{Category: "SNACK", Name: "Chips"}); !errors.Is(err, ErrItemInvalidCategory) {
		t.Fatalf("expected ErrItemInvalidCategory, got %v", err)
	}
}

func TestChecklistItemReorder(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewChecklistItemService(db.DB)

	var ids []uint
	for _, name := range []string{"A", "B", "C"} {
		item, err := svc.Create(1, ChecklistItemInput{Category: db.CategoryRoutine, Name: name})
		if err != nil {
			t.Fatalf("failed to create item: %v", err)
		}
		ids = append(ids, item.ID)
	}

	// 倒序重排
	if err := svc.Reorder(1, []uint{ids[2], ids[1], ids[0]}); err != nil {
		t.Fatalf("Reorder returned error: %v", err)
	}

	items, err := svc.List(1)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if items[0].Name != "C" || items[2].Name != "A" {
		t.Fatalf("unexpected order: %s..%s", items[0].Name, items[2].Name)
	}

	if err := svc.Reorder(1, []uint{9999}); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound for unknown id, got %v", err)
	}
}

func TestChecklistItemDeleteCascadesLogs(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	itemSvc := NewChecklistItemService(db.DB)
	logSvc := NewChecklistLogService(db.DB)

	item, err := itemSvc.Create(1, ChecklistItemInput{Category: db.CategoryDiet, Name: "Rice"})
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}

	date := time.Date(2025, 1, 5, 0, 0, 0, 0, time.Local)
	if _, err := logSvc.Upsert(1, ChecklistLogInput{ChecklistItemID: item.ID, LogDate: date, IsDone: true, Value: "300"}); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	if err := itemSvc.Delete(1, item.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	logs, err := logSvc.ListForDate(1, date)
	if err != nil {
		t.Fatalf("ListForDate returned error: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("expected logs to be deleted with item, got %d", len(logs))
	}
}

func TestChecklistLogUpsertIdempotent(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	itemSvc := NewChecklistItemService(db.DB)
	logSvc := NewChecklistLogService(db.DB)

	item, err := itemSvc.Create(1, ChecklistItemInput{Category: db.CategoryDiet, Name: "Rice"})
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}

	date := time.Date(2025, 1, 5, 14, 30, 0, 0, time.Local)

	first, err := logSvc.Upsert(1, ChecklistLogInput{ChecklistItemID: item.ID, LogDate: date, IsDone: true, Value: "100"})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	// 同日重复写：更新而非新增；时间部分归一化到零点
	second, err := logSvc.Upsert(1, ChecklistLogInput{ChecklistItemID: item.ID, LogDate: date.Add(3 * time.Hour), IsDone: false, Value: "250"})
	if err != nil {
		t.Fatalf("Upsert update returned error: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected same row, got %d and %d", first.ID, second.ID)
	}
	if second.Value != "250" || second.IsDone {
		t.Fatalf("expected updated fields, got %+v", second)
	}

	logs, err := logSvc.ListForDate(1, date)
	if err != nil {
		t.Fatalf("ListForDate returned error: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}
}

func TestChecklistLogListBetween(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	itemSvc := NewChecklistItemService(db.DB)
	logSvc := NewChecklistLogService(db.DB)

	item, err := itemSvc.Create(1, ChecklistItemInput{Category: db.CategoryRoutine, Name: "Gym"})
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		if _, err := logSvc.Upsert(1, ChecklistLogInput{ChecklistItemID: item.ID, LogDate: base.AddDate(0, 0, i), IsDone: true}); err != nil {
			t.Fatalf("Upsert returned error: %v", err)
		}
	}

	logs, err := logSvc.ListBetween(1, base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("ListBetween returned error: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected 3 logs in range, got %d", len(logs))
	}
}
