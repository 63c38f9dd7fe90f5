package person

import (
	"errors"
	"sync/atomic"

	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/vehicle"
)

// IPublicTransportBehaviour 公共交通乘客行为
// 说明：所有方法按路段（leg）调用；实现需保证多个分片并发调用时的线程安全
type IPublicTransportBehaviour interface {
	// 进入上车站等候区
	EnterWaitingArea(p entity.IPerson, stop entity.ZoneID, t clock.Time)
	HasVehicleDeparted(leg entity.PublicTransportLeg, t clock.Time) bool
	IsVehicleAvailable(leg entity.PublicTransportLeg, t clock.Time) bool
	HasPlaceInVehicle(leg entity.PublicTransportLeg) bool
	// 上车，车辆已满时返回vehicle.ErrCarFull
	Board(p entity.IPerson, leg entity.PublicTransportLeg, t clock.Time) error
	GetOff(p entity.IPerson, leg entity.PublicTransportLeg, t clock.Time) error
	Wait(p entity.IPerson, leg entity.PublicTransportLeg, t clock.Time)
	// 从当前站点检索新的路线
	SearchNewTrip(p entity.IPerson, from, to entity.ZoneID, t clock.Time) (entity.PublicTransportRoute, bool)
	// 车辆实际到达上车站的时刻，班次取消时返回false
	VehicleArrival(leg entity.PublicTransportLeg) (clock.Time, bool)
	// 车辆实际到达下车站的时刻
	AlightTime(leg entity.PublicTransportLeg) (clock.Time, bool)
}

// PassengerStatistics 公共交通乘客事件计数
type PassengerStatistics struct {
	Waits       int64
	Boardings   int64
	GetOffs     int64
	FullRejects int64 // 因满载未能上车
	Searches    int64
}

// PublicTransportBehaviour 基于班次登记表的公共交通乘客行为
type PublicTransportBehaviour struct {
	vehicles  *vehicle.Vehicles
	impedance entity.IImpedance

	waits, boardings, getOffs, fullRejects, searches atomic.Int64
}

// NewPublicTransportBehaviour 创建公共交通乘客行为
// 参数：vehicles-班次登记表，impedance-阻抗（用于检索新路线）
func NewPublicTransportBehaviour(vehicles *vehicle.Vehicles, impedance entity.IImpedance) *PublicTransportBehaviour {
	return &PublicTransportBehaviour{vehicles: vehicles, impedance: impedance}
}

func (b *PublicTransportBehaviour) EnterWaitingArea(entity.IPerson, entity.ZoneID, clock.Time) {}

func (b *PublicTransportBehaviour) HasVehicleDeparted(leg entity.PublicTransportLeg, t clock.Time) bool {
	return b.vehicles.HasDeparted(leg.Journey, leg.From, t)
}

func (b *PublicTransportBehaviour) IsVehicleAvailable(leg entity.PublicTransportLeg, t clock.Time) bool {
	return b.vehicles.IsAvailable(leg.Journey, leg.From, t)
}

func (b *PublicTransportBehaviour) HasPlaceInVehicle(leg entity.PublicTransportLeg) bool {
	return b.vehicles.HasPlace(leg.Journey)
}

func (b *PublicTransportBehaviour) Board(p entity.IPerson, leg entity.PublicTransportLeg, t clock.Time) error {
	err := b.vehicles.Board(leg.Journey, p.ID())
	switch {
	case err == nil:
		b.boardings.Add(1)
	case errors.Is(err, vehicle.ErrCarFull):
		b.fullRejects.Add(1)
	}
	return err
}

func (b *PublicTransportBehaviour) GetOff(p entity.IPerson, leg entity.PublicTransportLeg, t clock.Time) error {
	if err := b.vehicles.GetOff(leg.Journey, p.ID()); err != nil {
		return err
	}
	b.getOffs.Add(1)
	return nil
}

func (b *PublicTransportBehaviour) Wait(entity.IPerson, entity.PublicTransportLeg, clock.Time) {
	b.waits.Add(1)
}

func (b *PublicTransportBehaviour) SearchNewTrip(
	_ entity.IPerson, from, to entity.ZoneID, t clock.Time,
) (entity.PublicTransportRoute, bool) {
	b.searches.Add(1)
	return b.impedance.PublicTransportRoute(from, to, t)
}

func (b *PublicTransportBehaviour) VehicleArrival(leg entity.PublicTransportLeg) (clock.Time, bool) {
	j := b.vehicles.Get(leg.Journey)
	if j.Cancelled() {
		return 0, false
	}
	return j.ActualArrival(leg.From)
}

func (b *PublicTransportBehaviour) AlightTime(leg entity.PublicTransportLeg) (clock.Time, bool) {
	return b.vehicles.Get(leg.Journey).ActualArrival(leg.To)
}

// Statistics 乘客事件计数
func (b *PublicTransportBehaviour) Statistics() PassengerStatistics {
	return PassengerStatistics{
		Waits:       b.waits.Load(),
		Boardings:   b.boardings.Load(),
		GetOffs:     b.getOffs.Load(),
		FullRejects: b.fullRejects.Load(),
		Searches:    b.searches.Load(),
	}
}
