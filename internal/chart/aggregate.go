package chart

import (
	"fmt"
	"sort"
	"time"

	"github.com/utrading/utrading-balance-dashboard/internal/models"
)

// Point 单个交易日的聚合结果，图表渲染层只依赖这五个字段
type Point struct {
	Date  time.Time `json:"date"`
	Min   float64   `json:"min_balance"`
	Max   float64   `json:"max_balance"`
	Open  float64   `json:"open_balance"`
	Close float64   `json:"close_balance"`
}

// Aggregate 把原始快照序列聚合为逐日图表点，固定处理顺序：
// 下限日期过滤 -> 周期过滤 -> 排序 -> 按日分组 -> 组内零值过滤（保证组非空）-> min/max/open/close
//
// periodDays <= 0 表示全部历史（仍受 floorDate 约束）；floorDate 为零值则不过滤。
// 输入为空或全部被过滤时返回单个以 now 为日期的全零点，图表始终有点可画。
// 负值与 NaN 原样透传，清洗是写入侧的职责。
func Aggregate(snaps []models.BalanceSnapshot, periodDays int, floorDate time.Time, now time.Time) ([]Point, error) {
	filtered := make([]models.BalanceSnapshot, 0, len(snaps))
	var periodStart time.Time
	if periodDays > 0 {
		periodStart = now.AddDate(0, 0, -periodDays)
	}

	for _, s := range snaps {
		if s.Timestamp.IsZero() {
			// 时间缺失说明数据已损坏，宁可报错也不能静默画出错误曲线
			return nil, fmt.Errorf("snapshot id=%d has zero timestamp", s.ID)
		}
		if !floorDate.IsZero() && s.Timestamp.Before(floorDate) {
			continue
		}
		if periodDays > 0 && s.Timestamp.Before(periodStart) {
			continue
		}
		filtered = append(filtered, s)
	}

	// 防御性排序：不假设所有调用路径都返回有序数据
	// 稳定排序保证同一时刻的快照维持写入顺序
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	var days []time.Time
	groups := make(map[time.Time][]models.BalanceSnapshot)
	for _, s := range filtered {
		day := truncateToDay(s.Timestamp)
		if _, ok := groups[day]; !ok {
			days = append(days, day)
		}
		groups[day] = append(groups[day], s)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	points := make([]Point, 0, len(days))
	for _, day := range days {
		group := dropZeroBalances(groups[day])
		points = append(points, aggregateDay(day, group))
	}

	if len(points) == 0 {
		points = append(points, Point{Date: now})
	}

	return points, nil
}

// dropZeroBalances 过滤掉合约余额 <= 0 的快照
// 判断条件必须写成 <= 0 而非 > 0：NaN 与任何值比较都为 false，
// 反向写法会把 NaN 快照一并丢掉，而 NaN 需要原样透传
// 若过滤后组为空则保留原组，全零的一天不能变成看似缺数据的空洞
func dropZeroBalances(group []models.BalanceSnapshot) []models.BalanceSnapshot {
	kept := make([]models.BalanceSnapshot, 0, len(group))
	for _, s := range group {
		if s.FuturesBalance <= 0 {
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return group
	}
	return kept
}

func aggregateDay(day time.Time, group []models.BalanceSnapshot) Point {
	p := Point{
		Date: day,
		Min:  group[0].FuturesBalance,
		Max:  group[0].FuturesBalance,
		Open: group[0].FuturesBalance,
	}

	for _, s := range group {
		if s.FuturesBalance < p.Min {
			p.Min = s.FuturesBalance
		}
		if s.FuturesBalance > p.Max {
			p.Max = s.FuturesBalance
		}
		p.Close = s.FuturesBalance
	}

	return p
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
