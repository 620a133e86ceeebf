package service

import (
	"math"
	"strconv"
	"strings"

	"github.com/daytrack/internal/db"
)

// 完成率统计的分区口径
const (
	SectionOverview    = "OVERVIEW"
	SectionRoutine     = "ROUTINE"
	SectionSupplements = "SUPPLEMENTS"
	SectionDiet        = "DIET"
)

// NutritionSummary 是单日营养卡片的输出口径
// 热量取整，其余宏量/水以一位小数呈现
type NutritionSummary struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fiber    float64 `json:"fiber"`
	Fats     float64 `json:"fats"`
	Water    float64 `json:"water"`
}

// Completion 汇总某一分区的完成情况
type Completion struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Rate 返回完成率；Total 为 0 时定义为 0，避免除零
func (c Completion) Rate() float64 {
	if c.Total <= 0 {
		return 0
	}
	return float64(c.Completed) / float64(c.Total)
}

// nutritionSums 保存未取整的累加结果，由各调用方按自身口径取整
type nutritionSums struct {
	calories float64
	protein  float64
	carbs    float64
	fiber    float64
	fats     float64
	water    float64
}

// DailyNutrition 计算单日营养总量
// items 为用户全部清单项，logs 为目标日期的打卡记录
// 缺失/非法数量视为 0；饮水项数量按 1:1 计入水总量
func DailyNutrition(items []db.ChecklistItem, logs []db.DailyChecklistLog) NutritionSummary {
	sums := sumNutrition(items, logsByItem(logs))

	return NutritionSummary{
		Calories: int(math.Round(sums.calories)),
		Protein:  round1(sums.protein),
		Carbs:    round1(sums.carbs),
		Fiber:    round1(sums.fiber),
		Fats:     round1(sums.fats),
		Water:    round1(sums.water),
	}
}

// CaloriesBurned 汇总目标日期已完成的 ROUTINE 运动项消耗
// 没有打卡或 is_done=false 的项贡献 0
func CaloriesBurned(items []db.ChecklistItem, logs []db.DailyChecklistLog) float64 {
	byItem := logsByItem(logs)

	var burned float64
	for _, item := range items {
		if item.Category != db.CategoryRoutine || item.Metadata.Exercise == nil {
			continue
		}
		entry, ok := byItem[item.ID]
		if !ok || !entry.IsDone {
			continue
		}
		burned += item.Metadata.Exercise.CaloriesBurn
	}

	return burned
}

// NetCalories 计算净热量 = 摄入 - 消耗，四舍五入到整数
func NetCalories(dietCalories int, burned float64) int {
	return int(math.Round(float64(dietCalories) - burned))
}

// SectionCompletion 按分区统计完成数/总数
// OVERVIEW 统计全部类别；该口径与连胜日历的口径刻意不同，勿合并
func SectionCompletion(section string, items []db.ChecklistItem, logs []db.DailyChecklistLog) Completion {
	byItem := logsByItem(logs)

	var result Completion
	for _, item := range items {
		if !sectionMatches(section, item.Category) {
			continue
		}
		result.Total++
		if entry, ok := byItem[item.ID]; ok && entry.IsDone {
			result.Completed++
		}
	}

	return result
}

// StreakCompletion 是连胜日历使用的完成口径：仅统计 ROUTINE + SUPPLEMENT
// 与 SectionCompletion 的 OVERVIEW 口径存在差异，两者都需保持原样
func StreakCompletion(items []db.ChecklistItem, logs []db.DailyChecklistLog) Completion {
	byItem := logsByItem(logs)

	var result Completion
	for _, item := range items {
		if item.Category != db.CategoryRoutine && item.Category != db.CategorySupplement {
			continue
		}
		result.Total++
		if entry, ok := byItem[item.ID]; ok && entry.IsDone {
			result.Completed++
		}
	}

	return result
}

func sectionMatches(section, category string) bool {
	switch strings.ToUpper(strings.TrimSpace(section)) {
	case SectionRoutine:
		return category == db.CategoryRoutine
	case SectionSupplements:
		return category == db.CategorySupplement
	case SectionDiet:
		return category == db.CategoryDiet
	default:
		// OVERVIEW 与未知分区均匹配全部类别
		return true
	}
}

func sumNutrition(items []db.ChecklistItem, byItem map[uint]db.DailyChecklistLog) nutritionSums {
	var sums nutritionSums

	for _, item := range items {
		if item.Category != db.CategoryDiet {
			continue
		}

		entry, ok := byItem[item.ID]
		if !ok {
			continue
		}

		quantity := parseQuantity(entry.Value)
		if quantity <= 0 {
			continue
		}

		if item.IsWater() {
			sums.water += quantity
			continue
		}

		meta := item.Metadata.Diet
		if meta == nil {
			continue
		}

		sums.calories += meta.Calories * quantity
		sums.protein += meta.Protein * quantity
		sums.carbs += meta.Carbs * quantity
		sums.fiber += meta.Fiber * quantity
		sums.fats += meta.Fats * quantity
	}

	return sums
}

// parseQuantity 将数量字符串转为数值，非法输入按 0 处理，绝不报错
func parseQuantity(value string) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}

	quantity, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return 0
	}

	return quantity
}

func logsByItem(logs []db.DailyChecklistLog) map[uint]db.DailyChecklistLog {
	byItem := make(map[uint]db.DailyChecklistLog, len(logs))
	for _, entry := range logs {
		byItem[entry.ChecklistItemID] = entry
	}
	return byItem
}

// round1 保留一位小数，远离零四舍五入
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
