package person

import (
	"fmt"

	"github.com/tsinghua-fib-lab/demandsim/entity/vehicle"
	"github.com/tsinghua-fib-lab/demandsim/utils/container"
)

// CarUsage 人员对汽车的使用状态
type CarUsage int32

const (
	CarNone      CarUsage = iota // 未使用
	CarDriver                    // 驾驶
	CarPassenger                 // 乘坐
	CarParked                    // 已停放，车辆仍归此人支配
)

var carUsageNames = []string{"none", "driver", "passenger", "parked"}

func (u CarUsage) String() string {
	if int(u) < len(carUsageNames) {
		return carUsageNames[u]
	}
	return fmt.Sprintf("car_usage(%d)", u)
}

// CarHolder 人员的汽车使用状态机
// 功能：维护 None/Driver/Passenger/Parked 四个状态之间的合法转换，并同步更新车辆自身的排他约束
// 说明：
// 1. useCar、useCarAsPassenger 只能从None出发
// 2. parkCar、takeCarFromParking 只在Driver与Parked之间切换
// 3. releaseCar 只能从Driver或Passenger出发，清空状态并返回车辆
// 4. 非法转换返回ErrInvalidCarUsage，车辆拒绝时返回车辆的错误，状态均不变
type CarHolder struct {
	person int32
	usage  CarUsage
	car    container.Option[*vehicle.Car]
}

// NewCarHolder 创建汽车使用状态机
func NewCarHolder(person int32) *CarHolder {
	return &CarHolder{person: person}
}

func (h *CarHolder) Usage() CarUsage {
	return h.usage
}

// Car 当前持有的车辆（驾驶、乘坐或停放）
func (h *CarHolder) Car() (*vehicle.Car, bool) {
	return h.car.Get()
}

func (h *CarHolder) invalid(op string) error {
	return fmt.Errorf("person %d %s from %v: %w", h.person, op, h.usage, ErrInvalidCarUsage)
}

// UseCar 以司机身份使用车辆
func (h *CarHolder) UseCar(c *vehicle.Car) error {
	if h.usage != CarNone {
		return h.invalid("useCar")
	}
	if err := c.Use(h.person); err != nil {
		return err
	}
	h.usage = CarDriver
	h.car = container.Some(c)
	return nil
}

// UseCarAsPassenger 以乘客身份使用车辆
func (h *CarHolder) UseCarAsPassenger(c *vehicle.Car) error {
	if h.usage != CarNone {
		return h.invalid("useCarAsPassenger")
	}
	if err := c.UseAsPassenger(h.person); err != nil {
		return err
	}
	h.usage = CarPassenger
	h.car = container.Some(c)
	return nil
}

// ParkCar 停车，车辆仍由此人支配
func (h *CarHolder) ParkCar() error {
	if h.usage != CarDriver {
		return h.invalid("parkCar")
	}
	h.usage = CarParked
	return nil
}

// TakeCarFromParking 取回停放的车辆继续驾驶
func (h *CarHolder) TakeCarFromParking() error {
	if h.usage != CarParked {
		return h.invalid("takeCarFromParking")
	}
	h.usage = CarDriver
	return nil
}

// ReleaseCar 归还（司机）或离开（乘客）车辆
// 返回：被归还的车辆
func (h *CarHolder) ReleaseCar() (*vehicle.Car, error) {
	c, ok := h.car.Get()
	switch {
	case h.usage == CarDriver && ok:
		if err := c.Release(h.person); err != nil {
			return nil, err
		}
	case h.usage == CarPassenger && ok:
		if err := c.Leave(h.person); err != nil {
			return nil, err
		}
	default:
		return nil, h.invalid("releaseCar")
	}
	h.usage = CarNone
	h.car = container.None[*vehicle.Car]()
	return c, nil
}

// BikeUsage 人员对自行车的使用状态
type BikeUsage int32

const (
	BikeNone   BikeUsage = iota
	BikeDriver           // 骑行
	BikeParked
)

var bikeUsageNames = []string{"none", "driver", "parked"}

func (u BikeUsage) String() string {
	if int(u) < len(bikeUsageNames) {
		return bikeUsageNames[u]
	}
	return fmt.Sprintf("bike_usage(%d)", u)
}

// BikeHolder 人员的自行车使用状态机，与CarHolder相同但没有乘客状态
type BikeHolder struct {
	person int32
	usage  BikeUsage
	bike   container.Option[*vehicle.Bike]
}

// NewBikeHolder 创建自行车使用状态机
func NewBikeHolder(person int32) *BikeHolder {
	return &BikeHolder{person: person}
}

func (h *BikeHolder) Usage() BikeUsage {
	return h.usage
}

func (h *BikeHolder) invalid(op string) error {
	return fmt.Errorf("person %d %s from %v: %w", h.person, op, h.usage, ErrInvalidBikeUsage)
}

// UseBike 骑行
func (h *BikeHolder) UseBike(b *vehicle.Bike) error {
	if h.usage != BikeNone {
		return h.invalid("useBike")
	}
	if err := b.Use(h.person); err != nil {
		return err
	}
	h.usage = BikeDriver
	h.bike = container.Some(b)
	return nil
}

// ParkBike 停放自行车
func (h *BikeHolder) ParkBike() error {
	if h.usage != BikeDriver {
		return h.invalid("parkBike")
	}
	h.usage = BikeParked
	return nil
}

// TakeBikeFromParking 取回停放的自行车
func (h *BikeHolder) TakeBikeFromParking() error {
	if h.usage != BikeParked {
		return h.invalid("takeBikeFromParking")
	}
	h.usage = BikeDriver
	return nil
}

// ReleaseBike 归还自行车
func (h *BikeHolder) ReleaseBike() (*vehicle.Bike, error) {
	b, ok := h.bike.Get()
	if h.usage != BikeDriver || !ok {
		return nil, h.invalid("releaseBike")
	}
	if err := b.Release(h.person); err != nil {
		return nil, err
	}
	h.usage = BikeNone
	h.bike = container.None[*vehicle.Bike]()
	return b, nil
}
