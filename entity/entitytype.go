package entity

import (
	"fmt"
	"strings"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/demandsim/clock"
)

// ZoneID 交通小区ID
type ZoneID int32

// Location 小区及小区内的具体坐标
type Location struct {
	Zone  ZoneID
	Point geometry.Point
}

func (l Location) String() string {
	return fmt.Sprintf("Location{Zone=%d, X=%.1f, Y=%.1f}", l.Zone, l.Point.X, l.Point.Y)
}

// Mode 出行方式
type Mode int32

const (
	ModeUnknown Mode = iota
	ModeWalk
	ModeBike
	ModeCar
	ModePassenger
	ModePublicTransport
	ModeCarSharingFree
)

var modeNames = map[Mode]string{
	ModeUnknown:         "unknown",
	ModeWalk:            "walk",
	ModeBike:            "bike",
	ModeCar:             "car",
	ModePassenger:       "passenger",
	ModePublicTransport: "public_transport",
	ModeCarSharingFree:  "carsharing_free",
}

// AllModes 全部可模拟的出行方式
var AllModes = []Mode{ModeWalk, ModeBike, ModeCar, ModePassenger, ModePublicTransport, ModeCarSharingFree}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int32(m))
}

// UsesCarAsDriver 该方式是否以司机身份使用汽车
func (m Mode) UsesCarAsDriver() bool {
	return m == ModeCar || m == ModeCarSharingFree
}

// ParseMode 将配置中的方式名解析为Mode
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if m != ModeUnknown && name == s {
			return m, nil
		}
	}
	return ModeUnknown, fmt.Errorf("unknown mode %q", s)
}

// ActivityType 活动类型
type ActivityType int32

const (
	ActivityUnknown ActivityType = iota
	ActivityHome
	ActivityWork
	ActivityEducation
	ActivityShopping
	ActivityLeisure
	ActivityService
	ActivityPrivateVisit
)

var activityNames = map[ActivityType]string{
	ActivityUnknown:      "unknown",
	ActivityHome:         "home",
	ActivityWork:         "work",
	ActivityEducation:    "education",
	ActivityShopping:     "shopping",
	ActivityLeisure:      "leisure",
	ActivityService:      "service",
	ActivityPrivateVisit: "private_visit",
}

func (a ActivityType) String() string {
	if s, ok := activityNames[a]; ok {
		return s
	}
	return fmt.Sprintf("activity(%d)", int32(a))
}

// IsHome 是否为在家活动
func (a ActivityType) IsHome() bool {
	return a == ActivityHome
}

// IsFixed 是否为固定地点活动（地点来自人员的固定目的地）
func (a ActivityType) IsFixed() bool {
	return a == ActivityWork || a == ActivityEducation
}

// ParseActivityType 将活动名解析为ActivityType
func ParseActivityType(s string) (ActivityType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for a, name := range activityNames {
		if a != ActivityUnknown && name == s {
			return a, nil
		}
	}
	return ActivityUnknown, fmt.Errorf("unknown activity type %q", s)
}

// Capability 人员能力集合（位集合）
type Capability uint8

const (
	CapabilityCanDrive            Capability = 1 << iota // 持有驾照
	CapabilityUsesPublicTransport                        // 使用公共交通
	CapabilityRideShareEligible                          // 可以参与拼车
)

// Has 是否包含全部给定能力
func (c Capability) Has(o Capability) bool {
	return c&o == o
}

// PersonAttribute 人员的人口学属性
type PersonAttribute struct {
	Age        int32
	Female     bool
	Employment string
	Income     float64
}

// PublicTransportLeg 公共交通行程中的一段（在一个班次上从一站坐到另一站）
// 说明：站点以所在小区表示
type PublicTransportLeg struct {
	Journey   int32      // 班次ID
	From      ZoneID     // 上车站所在小区
	To        ZoneID     // 下车站所在小区
	Departure clock.Time // 计划发车时刻
	Arrival   clock.Time // 计划到达时刻
}

// PublicTransportRoute 公共交通路线
type PublicTransportRoute struct {
	Legs []PublicTransportLeg
}

// Arrival 路线的最终到达时刻
func (r PublicTransportRoute) Arrival() clock.Time {
	return r.Legs[len(r.Legs)-1].Arrival
}
