package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"
	"sync"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/person"
)

// ODKey OD矩阵的单元
type ODKey struct {
	Origin      entity.ZoneID
	Destination entity.ZoneID
	Mode        entity.Mode
}

// AggregateDemand OD矩阵累加器
// 功能：按(起点, 终点, 方式)统计出行次数，模拟结束时写出CSV
// 说明：计数与加入顺序无关，无需按时间片刷新
type AggregateDemand struct {
	person.ListenerBase

	path   string
	mu     sync.Mutex
	counts map[ODKey]int
}

// NewAggregateDemand 创建OD矩阵累加器，path为空时只统计不写出
func NewAggregateDemand(path string) *AggregateDemand {
	return &AggregateDemand{path: path, counts: make(map[ODKey]int)}
}

func (a *AggregateDemand) NotifyEndTrip(_ entity.IPerson, trip person.FinishedTrip) error {
	k := ODKey{Origin: trip.Origin().Zone, Destination: trip.Destination().Zone, Mode: trip.Mode()}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts[k]++
	return nil
}

// Flush 无缓冲，空操作
func (a *AggregateDemand) Flush() error {
	return nil
}

// Count 某一单元的出行次数
func (a *AggregateDemand) Count(k ODKey) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts[k]
}

// Total 全部出行次数
func (a *AggregateDemand) Total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return lo.Sum(lo.Values(a.counts))
}

// Keys 按(起点, 终点, 方式)排序的非空单元
func (a *AggregateDemand) Keys() []ODKey {
	a.mu.Lock()
	defer a.mu.Unlock()
	keys := lo.Keys(a.counts)
	slices.SortFunc(keys, func(x, y ODKey) int {
		if x.Origin != y.Origin {
			return int(x.Origin) - int(y.Origin)
		}
		if x.Destination != y.Destination {
			return int(x.Destination) - int(y.Destination)
		}
		return int(x.Mode) - int(y.Mode)
	})
	return keys
}

func (a *AggregateDemand) NotifyFinishSimulation() error {
	if a.path == "" {
		return nil
	}
	f, err := os.Create(a.path)
	if err != nil {
		return fmt.Errorf("create od matrix: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"origin", "destination", "mode", "trips"}); err != nil {
		f.Close()
		return err
	}
	keys := a.Keys()
	for _, k := range keys {
		if err := w.Write([]string{
			strconv.FormatInt(int64(k.Origin), 10),
			strconv.FormatInt(int64(k.Destination), 10),
			k.Mode.String(),
			strconv.Itoa(a.Count(k)),
		}); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	log.Infof("%d OD pairs written to %s", len(keys), a.path)
	return f.Close()
}
