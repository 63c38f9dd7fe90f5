package person

import (
	"fmt"

	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
)

// VehicleAction 车辆使用动作
type VehicleAction int32

const (
	VehicleUse VehicleAction = iota
	VehicleUseAsPassenger
	VehiclePark
	VehicleTakeFromParking
	VehicleRelease
	VehicleBoard
	VehicleGetOff
)

var vehicleActionNames = []string{"use", "use_as_passenger", "park", "take_from_parking", "release", "board", "get_off"}

func (a VehicleAction) String() string {
	if int(a) < len(vehicleActionNames) {
		return vehicleActionNames[a]
	}
	return fmt.Sprintf("vehicle_action(%d)", a)
}

// VehicleUsage 一次车辆使用的通知内容
type VehicleUsage struct {
	Time    clock.Time
	Mode    entity.Mode // 车辆对应的方式
	Vehicle int32       // 车辆或公共交通班次ID，自行车为车主ID
	Action  VehicleAction
}

// IListener 人员行为监听器
// 说明：
// 1. 只读观察者，不得修改人员状态
// 2. 会被多个分片并发调用，实现需自行保证线程安全
// 3. 返回错误视为致命的配置错误，模拟立即中止
type IListener interface {
	NotifyStartActivity(p entity.IPerson, a entity.IActivity, t clock.Time) error
	NotifyStartTrip(p entity.IPerson, trip StartedTrip) error
	NotifyEndTrip(p entity.IPerson, trip FinishedTrip) error
	NotifyVehicleUsage(p entity.IPerson, usage VehicleUsage) error
	NotifySelectRoute(p entity.IPerson, trip *Trip, route entity.PublicTransportRoute, t clock.Time) error
	NotifyStateChanged(p entity.IPerson, from, to State, t clock.Time) error
	NotifyFinishSimulation() error
}

// ListenerBase 空实现，供只关心部分通知的监听器嵌入
type ListenerBase struct{}

func (ListenerBase) NotifyStartActivity(entity.IPerson, entity.IActivity, clock.Time) error {
	return nil
}
func (ListenerBase) NotifyStartTrip(entity.IPerson, StartedTrip) error { return nil }
func (ListenerBase) NotifyEndTrip(entity.IPerson, FinishedTrip) error { return nil }
func (ListenerBase) NotifyVehicleUsage(entity.IPerson, VehicleUsage) error { return nil }
func (ListenerBase) NotifySelectRoute(entity.IPerson, *Trip, entity.PublicTransportRoute, clock.Time) error {
	return nil
}
func (ListenerBase) NotifyStateChanged(entity.IPerson, State, State, clock.Time) error { return nil }
func (ListenerBase) NotifyFinishSimulation() error { return nil }

// Broadcaster 通知分发点
// 功能：按注册顺序依次通知所有监听器，遇到第一个错误即停止并返回带监听器信息的错误
type Broadcaster struct {
	listeners []IListener
}

// NewBroadcaster 创建通知分发点
func NewBroadcaster(listeners ...IListener) *Broadcaster {
	return &Broadcaster{listeners: listeners}
}

// Add 注册监听器，只能在模拟开始前调用
func (b *Broadcaster) Add(l IListener) {
	b.listeners = append(b.listeners, l)
}

// Len 监听器数量
func (b *Broadcaster) Len() int {
	return len(b.listeners)
}

func (b *Broadcaster) each(name string, f func(IListener) error) error {
	for i, l := range b.listeners {
		if err := f(l); err != nil {
			return fmt.Errorf("listener %d (%T) %s: %w", i, l, name, err)
		}
	}
	return nil
}

func (b *Broadcaster) NotifyStartActivity(p entity.IPerson, a entity.IActivity, t clock.Time) error {
	return b.each("NotifyStartActivity", func(l IListener) error { return l.NotifyStartActivity(p, a, t) })
}

func (b *Broadcaster) NotifyStartTrip(p entity.IPerson, trip StartedTrip) error {
	return b.each("NotifyStartTrip", func(l IListener) error { return l.NotifyStartTrip(p, trip) })
}

func (b *Broadcaster) NotifyEndTrip(p entity.IPerson, trip FinishedTrip) error {
	return b.each("NotifyEndTrip", func(l IListener) error { return l.NotifyEndTrip(p, trip) })
}

func (b *Broadcaster) NotifyVehicleUsage(p entity.IPerson, usage VehicleUsage) error {
	return b.each("NotifyVehicleUsage", func(l IListener) error { return l.NotifyVehicleUsage(p, usage) })
}

func (b *Broadcaster) NotifySelectRoute(p entity.IPerson, trip *Trip, route entity.PublicTransportRoute, t clock.Time) error {
	return b.each("NotifySelectRoute", func(l IListener) error { return l.NotifySelectRoute(p, trip, route, t) })
}

func (b *Broadcaster) NotifyStateChanged(p entity.IPerson, from, to State, t clock.Time) error {
	return b.each("NotifyStateChanged", func(l IListener) error { return l.NotifyStateChanged(p, from, to, t) })
}

func (b *Broadcaster) NotifyFinishSimulation() error {
	return b.each("NotifyFinishSimulation", func(l IListener) error { return l.NotifyFinishSimulation() })
}
