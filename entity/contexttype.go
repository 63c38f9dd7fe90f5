package entity

import (
	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/demandsim/clock"
)

// 需求模拟核心依赖的外部协作者，全部为依赖倒置接口

// IPerson 人员的只读视图，供选择模型与监听器使用
type IPerson interface {
	ID() int32
	HouseholdID() int32
	Attr() PersonAttribute
	Capabilities() Capability
	HomeLocation() Location
	HasBike() bool
	HasCommuterTicket() bool
	// 是否为某共享出行服务商的会员
	IsMobilityProviderCustomer(provider string) bool
	// 固定目的地（工作地、学校），不存在时返回false
	FixedDestination(t ActivityType) (Location, bool)
}

// IActivity 活动的只读视图
type IActivity interface {
	Number() int32 // 活动在周计划中的序号
	ActivityType() ActivityType
	Location() (Location, bool)
	StartDate() clock.Time // 计划开始时刻（重排程后会变化）
	Duration() clock.Time
}

// IImpedance 出行阻抗查询
// 说明：纯函数，可被多个分片并发调用
type IImpedance interface {
	TravelTime(origin, destination ZoneID, mode Mode, t clock.Time) clock.Time
	TravelCost(origin, destination ZoneID, mode Mode, t clock.Time) float64
	Distance(origin, destination ZoneID) float64 // 米
	ParkingCost(destination ZoneID, t clock.Time, duration clock.Time) float64
	// 公共交通路线检索，无可用路线时返回false
	PublicTransportRoute(origin, destination ZoneID, t clock.Time) (PublicTransportRoute, bool)
}

// IDestinationChoiceModel 目的地选择模型
type IDestinationChoiceModel interface {
	SelectDestination(
		person IPerson,
		tourMode Mode, // 当前出行链的主方式，链首出行时为ModeUnknown
		previous, next IActivity,
		randomDraw float64,
	) ZoneID
}

// IModeChoiceModel 方式选择模型
type IModeChoiceModel interface {
	SelectMode(
		person IPerson,
		origin, destination ZoneID,
		previous, next IActivity,
		choiceSet []Mode,
		randomDraw float64,
	) Mode
}

// IZone 交通小区
type IZone interface {
	ID() ZoneID
	Centroid() geometry.Point
	// 某类活动的机会地点，可能为空
	Opportunities(t ActivityType) []geometry.Point
	// 某类活动的吸引力
	Attractivity(t ActivityType) float64
	ParkingCost() float64
	// 是否在某服务商的自由流动共享汽车运营区内
	IsFreeFloatingArea(provider string) bool
	// 小区内居住的家庭住址
	Homes() []geometry.Point
}
