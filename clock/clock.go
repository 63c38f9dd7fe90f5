package clock

import (
	"fmt"

	"git.fiblab.net/sim/protos/v2/go/city/clock/v1/clockv1connect"
)

// Clock 仿真时钟管理器
// 功能：管理仿真系统的时间推进，按固定长度的时间片同步各分片的事件处理
// 说明：事件本身可以发生在任意秒，时间片只决定各分片之间的同步点
type Clock struct {
	clockv1connect.UnimplementedClockServiceHandler

	Slice Time // 每个同步时间片的长度
	Start Time // 模拟区间起点
	End   Time // 模拟区间终点，模拟区间[Start, End)

	T    Time  // 当前时间片的终点（本片内处理所有早于T的事件）
	Step int32 // 当前时间片编号
}

// New 创建新的时钟实例
// 功能：根据模拟的天与时间片长度初始化时钟
// 参数：firstDay-首个模拟日，lastDay-最后一个模拟日，slice-时间片长度
// 返回：初始化完成的时钟实例
func New(firstDay, lastDay int32, slice Time) *Clock {
	if slice <= 0 {
		panic(fmt.Sprintf("clock: slice must be positive, got %d", slice))
	}
	c := &Clock{
		Slice: slice,
		Start: Time(firstDay) * Day,
		End:   Time(lastDay+1) * Day,
	}
	c.Init()
	return c
}

// Init 重置时钟状态
func (c *Clock) Init() {
	c.Step = 0
	c.T = c.Start
}

// Advance 推进到下一个时间片
// 功能：时间片编号加一，并把当前时间移动到新时间片的终点（不超过End）
// 返回：新的时间片终点
func (c *Clock) Advance() Time {
	c.Step++
	c.T = min(c.Start+Time(c.Step)*c.Slice, c.End)
	return c.T
}

// Finished 是否已到达模拟区间终点
func (c *Clock) Finished() bool {
	return c.T >= c.End
}

// AfterHorizon 判断时刻是否已超出模拟区间
func (c *Clock) AfterHorizon(t Time) bool {
	return t >= c.End
}

// SliceStart 时刻t所在时间片的起点
// 说明：不同分片在同一时间片内并行推进，只有位于不同时间片的两个事件才有确定的先后关系
func (c *Clock) SliceStart(t Time) Time {
	if t <= c.Start {
		return c.Start
	}
	return c.Start + (t-c.Start)/c.Slice*c.Slice
}

// String 获取时钟的字符串表示
func (c *Clock) String() string {
	return c.T.String()
}
