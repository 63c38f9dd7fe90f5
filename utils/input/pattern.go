package input

import (
	"fmt"
	"sync/atomic"

	"github.com/samber/lo"
)

// defaultPattern 缺失活动模式时使用的默认模式：整周在家
var defaultPattern = []PatternActivity{{Activity: "home", Start: 0, Duration: 7 * 24 * 60}}

type span struct {
	start, end int
}

// PatternTable 周活动模式查找表
// 功能：模拟开始前一次性构建，所有模式的活动连续存放在同一个数组中，按模式ID索引
// 说明：构建后只读，可被多个分片并发查询
type PatternTable struct {
	arena []PatternActivity
	index map[int32]span

	missing atomic.Int64 // 使用默认模式的次数
}

// NewPatternTable 构建活动模式查找表
// 参数：patterns-全部活动模式
// 返回：查找表，模式ID重复或模式为空时返回错误
func NewPatternTable(patterns []Pattern) (*PatternTable, error) {
	t := &PatternTable{
		arena: make([]PatternActivity, 0, lo.SumBy(patterns, func(p Pattern) int { return len(p.Activities) })),
		index: make(map[int32]span, len(patterns)),
	}
	for _, p := range patterns {
		if _, ok := t.index[p.ID]; ok {
			return nil, fmt.Errorf("duplicated pattern id %d", p.ID)
		}
		if len(p.Activities) == 0 {
			return nil, fmt.Errorf("pattern %d has no activity", p.ID)
		}
		start := len(t.arena)
		t.arena = append(t.arena, p.Activities...)
		t.index[p.ID] = span{start, len(t.arena)}
	}
	return t, nil
}

// Len 模式数量
func (t *PatternTable) Len() int {
	return len(t.index)
}

// Get 按ID查找活动模式
// 返回：模式的活动列表（调用方不得修改）与是否存在
func (t *PatternTable) Get(id int32) ([]PatternActivity, bool) {
	s, ok := t.index[id]
	if !ok {
		return nil, false
	}
	return t.arena[s.start:s.end:s.end], true
}

// Resolve 获取人员的活动模式，缺失时退回默认模式并记录
func (t *PatternTable) Resolve(personID, patternID int32) []PatternActivity {
	if acts, ok := t.Get(patternID); ok {
		return acts
	}
	t.missing.Add(1)
	log.Warnf("person %d: no activity pattern %d, fall back to staying at home", personID, patternID)
	return defaultPattern
}

// Missing 使用默认模式的次数
func (t *PatternTable) Missing() int64 {
	return t.missing.Load()
}
