package vehicle

import (
	"slices"
	"sort"
	"sync"

	"github.com/tsinghua-fib-lab/demandsim/entity"
)

// FreeFloatingPool 某服务商的自由流动共享汽车池
// 功能：按小区记录停放的共享汽车，支持查询、预订、归还
// 说明：预订不提前保留，同一时刻先调用Book者得车
type FreeFloatingPool struct {
	provider string
	zones    entity.IZoneManager

	mtx    sync.Mutex
	parked map[entity.ZoneID][]*Car // 每个小区按车辆ID升序
}

// NewFreeFloatingPool 创建共享汽车池
// 参数：provider-服务商，cars-初始停放的车辆，zones-小区管理器（判断运营范围）
func NewFreeFloatingPool(provider string, cars []*Car, zones entity.IZoneManager) *FreeFloatingPool {
	p := &FreeFloatingPool{
		provider: provider,
		zones:    zones,
		parked:   make(map[entity.ZoneID][]*Car),
	}
	for _, c := range cars {
		p.parked[c.zone] = append(p.parked[c.zone], c)
	}
	for _, cs := range p.parked {
		sort.Slice(cs, func(i, j int) bool { return cs[i].id < cs[j].id })
	}
	return p
}

// Provider 服务商名称
func (p *FreeFloatingPool) Provider() string {
	return p.provider
}

// IsFreeFloatingZone 小区是否在运营范围内（可以还车）
func (p *FreeFloatingPool) IsFreeFloatingZone(zone entity.ZoneID) bool {
	z, err := p.zones.GetOrError(zone)
	return err == nil && z.IsFreeFloatingArea(p.provider)
}

// IsAvailable 小区内是否有可用车辆
func (p *FreeFloatingPool) IsAvailable(zone entity.ZoneID) bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return len(p.parked[zone]) > 0
}

// Book 预订小区内ID最小的车辆
// 返回：车辆与是否成功
func (p *FreeFloatingPool) Book(zone entity.ZoneID) (*Car, bool) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	cs := p.parked[zone]
	if len(cs) == 0 {
		return nil, false
	}
	c := cs[0]
	p.parked[zone] = cs[1:]
	return c, true
}

// Return 在小区还车
func (p *FreeFloatingPool) Return(c *Car, zone entity.ZoneID) {
	c.park(zone)
	p.mtx.Lock()
	defer p.mtx.Unlock()
	cs := p.parked[zone]
	i, found := slices.BinarySearchFunc(cs, c.id, func(x *Car, id int32) int { return int(x.id - id) })
	if found {
		log.Panicf("provider %s: car %d returned twice in zone %d", p.provider, c.id, zone)
	}
	p.parked[zone] = slices.Insert(cs, i, c)
}

// Parked 小区内停放的车辆数
func (p *FreeFloatingPool) Parked(zone entity.ZoneID) int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return len(p.parked[zone])
}
