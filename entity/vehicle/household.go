package vehicle

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// HouseholdFleet 家庭汽车池
// 功能：管理家庭拥有的私家车，区分成员专属车辆与共用车辆
type HouseholdFleet struct {
	household int32
	mtx       sync.Mutex
	cars      []*Car          // 按ID升序
	personal  map[int32]int32 // 车辆ID -> 专属成员ID
	taken     map[int32]bool  // 车辆ID -> 是否已被取走
}

// NewHouseholdFleet 创建家庭汽车池
// 参数：household-家庭ID，cars-家庭车辆，personal-车辆ID到专属成员ID的映射
func NewHouseholdFleet(household int32, cars []*Car, personal map[int32]int32) *HouseholdFleet {
	cars = append([]*Car(nil), cars...)
	sort.Slice(cars, func(i, j int) bool { return cars[i].id < cars[j].id })
	if personal == nil {
		personal = make(map[int32]int32)
	}
	return &HouseholdFleet{
		household: household,
		cars:      cars,
		personal:  personal,
		taken:     make(map[int32]bool),
	}
}

// Household 家庭ID
func (f *HouseholdFleet) Household() int32 {
	return f.household
}

// Cars 家庭全部车辆
func (f *HouseholdFleet) Cars() []*Car {
	return f.cars
}

// pick 为成员挑选可用车辆：优先其专属车，其次ID最小的非专属车
func (f *HouseholdFleet) pick(person int32) (*Car, bool) {
	for _, c := range f.cars {
		if owner, ok := f.personal[c.id]; ok && owner == person && !f.taken[c.id] {
			return c, true
		}
	}
	return lo.Find(f.cars, func(c *Car) bool {
		_, reserved := f.personal[c.id]
		return !reserved && !f.taken[c.id]
	})
}

// IsAvailable 是否有车辆可供该成员使用
func (f *HouseholdFleet) IsAvailable(person int32) bool {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	_, ok := f.pick(person)
	return ok
}

// Take 取走一辆车
// 返回：车辆与是否成功
func (f *HouseholdFleet) Take(person int32) (*Car, bool) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	c, ok := f.pick(person)
	if ok {
		f.taken[c.id] = true
	}
	return c, ok
}

// Return 归还车辆到家庭
func (f *HouseholdFleet) Return(c *Car) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	if !f.taken[c.id] {
		log.Panicf("household %d: return car %d which was not taken", f.household, c.id)
	}
	delete(f.taken, c.id)
}

// Available 当前在家的车辆数
func (f *HouseholdFleet) Available() int {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return len(f.cars) - len(f.taken)
}
