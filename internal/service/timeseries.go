package service

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/daytrack/internal/db"
)

// 图表可选的营养伪指标，计算得出而非落库
const (
	PseudoStatCalories = "calories"
	PseudoStatProtein  = "protein"
	PseudoStatCarbs    = "carbs"
	PseudoStatFats     = "fats"
	PseudoStatWater    = "water"
)

// 日期区间预设
const (
	RangeLast7Days  = "7d"
	RangeLast30Days = "30d"
	RangeLast90Days = "90d"
	RangeAll        = "all"
	RangeCustom     = "custom"
)

const seriesDateFormat = "2006-01-02"

// PseudoStatIDs 列出全部营养伪指标 ID
var PseudoStatIDs = []string{
	PseudoStatCalories,
	PseudoStatProtein,
	PseudoStatCarbs,
	PseudoStatFats,
	PseudoStatWater,
}

// SeriesPoint 是时间序列中的单日记录
// Values 以指标 ID 为键；选中的指标在每一天都有值（缺省补 0）
type SeriesPoint struct {
	Date   string             `json:"date"`
	Label  string             `json:"label"`
	Values map[string]float64 `json:"values"`
}

// TimeSeriesInput 汇集构建序列所需的全部已拉取数据
// 构建过程不做任何 I/O
type TimeSeriesInput struct {
	Start      time.Time
	End        time.Time
	Selected   []string
	Items      []db.ChecklistItem
	Logs       []db.DailyChecklistLog
	StatValues []db.DailyStatValue
}

// StatIDForDefinition 返回自定义指标在序列中的字符串 ID
func StatIDForDefinition(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// IsPseudoStat 判断指标 ID 是否为营养伪指标
func IsPseudoStat(id string) bool {
	for _, pseudo := range PseudoStatIDs {
		if id == pseudo {
			return true
		}
	}
	return false
}

// ResolveRange 将预设转换为闭区间 [start, end]
// custom 模式下缺任一边界返回 ok=false，调用方应给出空结果而非猜测
func ResolveRange(preset string, start, end *time.Time, now time.Time) (time.Time, time.Time, bool) {
	today := normalizeToDate(now)

	switch preset {
	case RangeLast7Days:
		return today.AddDate(0, 0, -6), today, true
	case RangeLast30Days:
		return today.AddDate(0, 0, -29), today, true
	case RangeLast90Days:
		return today.AddDate(0, 0, -89), today, true
	case RangeAll:
		// "all" 解释为最近一年，而非字面上的全部历史
		return today.AddDate(0, 0, -364), today, true
	case RangeCustom:
		if start == nil || end == nil {
			return time.Time{}, time.Time{}, false
		}
		return normalizeToDate(*start), normalizeToDate(*end), true
	default:
		return today.AddDate(0, 0, -6), today, true
	}
}

// BuildTimeSeries 构建逐日无缺口的图表序列
// 区间内每个日历日恰好产出一条记录；选中指标当天无数据时补 0
// 营养伪指标按序列口径取整：净热量/蛋白/碳水/脂肪取整数，水保留一位小数
// （与单日营养卡片的口径不同，两处口径历史上即不一致，需各自保持）
func BuildTimeSeries(input TimeSeriesInput) []SeriesPoint {
	start := normalizeToDate(input.Start)
	end := normalizeToDate(input.End)
	if end.Before(start) {
		return []SeriesPoint{}
	}

	// 1. 预填区间内的每一天，天然无缺口
	points := make(map[string]*SeriesPoint)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(seriesDateFormat)
		points[key] = &SeriesPoint{
			Date:   key,
			Label:  d.Format("2 Jan"),
			Values: make(map[string]float64),
		}
	}

	// 2. 合并自定义指标观测值
	for _, value := range input.StatValues {
		key := normalizeToDate(value.LogDate).Format(seriesDateFormat)
		point, ok := points[key]
		if !ok {
			continue
		}
		point.Values[StatIDForDefinition(value.StatDefinitionID)] = value.Value
	}

	// 3. 合并营养伪指标：按天重算摄入与消耗
	logsByDate := make(map[string][]db.DailyChecklistLog)
	for _, entry := range input.Logs {
		key := normalizeToDate(entry.LogDate).Format(seriesDateFormat)
		logsByDate[key] = append(logsByDate[key], entry)
	}

	for key, point := range points {
		dayLogs := logsByDate[key]
		sums := sumNutrition(input.Items, logsByItem(dayLogs))
		burned := CaloriesBurned(input.Items, dayLogs)

		point.Values[PseudoStatCalories] = math.Round(sums.calories - burned)
		point.Values[PseudoStatProtein] = math.Round(sums.protein)
		point.Values[PseudoStatCarbs] = math.Round(sums.carbs)
		point.Values[PseudoStatFats] = math.Round(sums.fats)
		point.Values[PseudoStatWater] = round1(sums.water)
	}

	// 4. 选中指标逐日补零，图表端不会见到空洞
	for _, point := range points {
		for _, id := range input.Selected {
			if _, ok := point.Values[id]; !ok {
				point.Values[id] = 0
			}
		}
	}

	// 5. ISO 日期串字典序即时间序
	result := make([]SeriesPoint, 0, len(points))
	for _, point := range points {
		result = append(result, *point)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})

	return result
}

func normalizeToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
