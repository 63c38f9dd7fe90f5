package vehicle

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/utils/container"
)

// 车辆使用的前置条件错误
// 说明：出现这些错误意味着状态机实现有误，调用方必须将其视为致命错误
var (
	ErrCarInUse     = errors.New("vehicle already in use")
	ErrNoDriver     = errors.New("vehicle has no driver")
	ErrNotDriver    = errors.New("person is not the driver")
	ErrNotPassenger = errors.New("person is not a passenger")
	ErrCarFull      = errors.New("no free seat")
	ErrPassengersOn = errors.New("passengers still on board")
)

// CarKind 汽车归属
type CarKind int32

const (
	CarPrivate CarKind = iota // 家庭私家车
	CarShared                 // 自由流动共享汽车
)

// Car 汽车
// 功能：维护“至多一个司机，有乘客时必须有司机”的排他使用约束
// 说明：拼车时乘客与司机可能属于不同分片，因此所有操作加锁
type Car struct {
	id       int32
	kind     CarKind
	owner    int32  // 私家车为家庭ID
	provider string // 共享汽车的服务商
	seats    int32

	mtx        sync.Mutex
	driver     container.Option[int32]
	passengers []int32
	mileage    float64       // 累计行驶里程（米）
	zone       entity.ZoneID // 共享汽车当前停放小区
}

const defaultSeats = 5

// NewPrivateCar 创建家庭私家车
// 参数：seats-座位数（含司机），非正数时取默认值
func NewPrivateCar(id, household, seats int32) *Car {
	if seats <= 0 {
		seats = defaultSeats
	}
	return &Car{id: id, kind: CarPrivate, owner: household, seats: seats}
}

// NewSharedCar 创建共享汽车
func NewSharedCar(id int32, provider string, zone entity.ZoneID) *Car {
	return &Car{id: id, kind: CarShared, provider: provider, seats: defaultSeats, zone: zone}
}

func (c *Car) ID() int32 {
	return c.id
}

func (c *Car) Kind() CarKind {
	return c.kind
}

func (c *Car) Provider() string {
	return c.provider
}

func (c *Car) String() string {
	return fmt.Sprintf("Car{id=%d, kind=%d}", c.id, c.kind)
}

// Use 以司机身份使用
// 说明：仅当车辆没有司机也没有乘客时成功
func (c *Car) Use(person int32) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.driver.IsSome() || len(c.passengers) > 0 {
		return fmt.Errorf("%v used by %d: %w", c, person, ErrCarInUse)
	}
	c.driver = container.Some(person)
	return nil
}

// UseAsPassenger 以乘客身份使用
// 说明：车辆必须已有司机，且司机外仍有空座
func (c *Car) UseAsPassenger(person int32) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	d, ok := c.driver.Get()
	if !ok {
		return fmt.Errorf("%v: passenger %d: %w", c, person, ErrNoDriver)
	}
	if d == person || slices.Contains(c.passengers, person) {
		return fmt.Errorf("%v: passenger %d: %w", c, person, ErrCarInUse)
	}
	if int32(len(c.passengers))+1 >= c.seats {
		return fmt.Errorf("%v: passenger %d: %w", c, person, ErrCarFull)
	}
	c.passengers = append(c.passengers, person)
	return nil
}

// Leave 乘客下车
func (c *Car) Leave(person int32) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	i := slices.Index(c.passengers, person)
	if i < 0 {
		return fmt.Errorf("%v: %d: %w", c, person, ErrNotPassenger)
	}
	c.passengers = slices.Delete(c.passengers, i, i+1)
	return nil
}

// Release 司机归还车辆
// 说明：车上仍有乘客时不允许归还
func (c *Car) Release(person int32) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if d, ok := c.driver.Get(); !ok || d != person {
		return fmt.Errorf("%v: release by %d: %w", c, person, ErrNotDriver)
	}
	if len(c.passengers) > 0 {
		return fmt.Errorf("%v: release by %d: %w", c, person, ErrPassengersOn)
	}
	c.driver = container.None[int32]()
	return nil
}

// InUse 是否有人在使用
func (c *Car) InUse() bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.driver.IsSome() || len(c.passengers) > 0
}

// Driver 当前司机
func (c *Car) Driver() (int32, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.driver.Get()
}

// Passengers 当前乘客数
func (c *Car) Passengers() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return len(c.passengers)
}

// CanCarryPassengers 是否可以搭载乘客
func (c *Car) CanCarryPassengers() bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.driver.IsSome() && int32(len(c.passengers))+1 < c.seats
}

// Drive 累加行驶里程
func (c *Car) Drive(distance float64) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.mileage += distance
}

// Mileage 累计行驶里程（米）
func (c *Car) Mileage() float64 {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.mileage
}

// Zone 共享汽车当前停放小区
func (c *Car) Zone() entity.ZoneID {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.zone
}

func (c *Car) park(zone entity.ZoneID) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.zone = zone
}

// Bike 自行车，归个人所有，没有乘客
type Bike struct {
	owner int32
	rider container.Option[int32]
}

// NewBike 创建自行车
func NewBike(owner int32) *Bike {
	return &Bike{owner: owner}
}

// Use 骑行
func (b *Bike) Use(person int32) error {
	if b.rider.IsSome() {
		return fmt.Errorf("bike of %d used by %d: %w", b.owner, person, ErrCarInUse)
	}
	b.rider = container.Some(person)
	return nil
}

// Release 归还
func (b *Bike) Release(person int32) error {
	if r, ok := b.rider.Get(); !ok || r != person {
		return fmt.Errorf("bike of %d released by %d: %w", b.owner, person, ErrNotDriver)
	}
	b.rider = container.None[int32]()
	return nil
}

// InUse 是否正在被骑行
func (b *Bike) InUse() bool {
	return b.rider.IsSome()
}
