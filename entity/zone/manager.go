package zone

import (
	"fmt"
	"sort"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/utils/input"
)

var log = logrus.WithField("module", "zone")

// ZoneManager 交通小区管理器
type ZoneManager struct {
	data  map[entity.ZoneID]*Zone
	zones []entity.IZone
}

// NewManager 创建小区管理器实例
// 功能：根据输入数据初始化所有小区，并把家庭住址登记到所在小区
// 参数：zones-小区数据，households-家庭数据
// 返回：新创建的小区管理器
func NewManager(zones []input.Zone, households []input.Household) *ZoneManager {
	created := parallel.GoMap(zones, func(base input.Zone) *Zone {
		return newZone(base)
	})
	sort.Slice(created, func(i, j int) bool { return created[i].id < created[j].id })
	m := &ZoneManager{
		data: lo.SliceToMap(created, func(z *Zone) (entity.ZoneID, *Zone) {
			return z.id, z
		}),
		zones: lo.Map(created, func(z *Zone, _ int) entity.IZone { return z }),
	}
	for _, h := range households {
		if z, ok := m.data[entity.ZoneID(h.HomeZone)]; ok {
			z.homes = append(z.homes, toPoint(h.Home))
		}
	}
	return m
}

// Get 根据ID获取小区，如果不存在则panic
func (m *ZoneManager) Get(id entity.ZoneID) entity.IZone {
	if z, ok := m.data[id]; !ok {
		log.Panicf("no id %d in zone data", id)
		return nil
	} else {
		return z
	}
}

// GetOrError 根据ID获取小区，如果不存在则返回错误
func (m *ZoneManager) GetOrError(id entity.ZoneID) (entity.IZone, error) {
	if z, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in zone data", id)
	} else {
		return z, nil
	}
}

// All 全部小区（按ID升序）
func (m *ZoneManager) All() []entity.IZone {
	return m.zones
}
