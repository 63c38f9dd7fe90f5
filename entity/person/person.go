package person

import (
	"fmt"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/event"
	"github.com/tsinghua-fib-lab/demandsim/entity/person/schedule"
	"github.com/tsinghua-fib-lab/demandsim/entity/vehicle"
	"github.com/tsinghua-fib-lab/demandsim/utils/container"
	"github.com/tsinghua-fib-lab/demandsim/utils/input"
	"github.com/tsinghua-fib-lab/demandsim/utils/randengine"
)

// Person 人员实体
// 功能：一个被模拟的人及其状态机，按周活动计划依次执行活动与出行
// 说明：
// 1. 只被自身状态机修改，且只在所属分片的协程中被访问
// 2. 能力（驾车、公共交通、拼车）以位集合表示，行为按状态分派，不使用包装层
// 3. 跨分片共享的只有车辆登记表、拼车报价板、共享汽车池，均自带锁
type Person struct {
	env *Environment

	// 静态属性
	id             int32
	household      int32
	attr           entity.PersonAttribute
	caps           entity.Capability
	home           entity.Location
	commuterTicket bool
	memberships    []string
	fixed          map[entity.ActivityType]entity.Location

	fleet     *vehicle.HouseholdFleet
	bike      container.Option[*vehicle.Bike]
	generator *randengine.Engine  // 随机数生成器，以全局种子加ID为seed
	trips     *container.Sequence // 出行ID序列，与分片调度顺序无关

	schedule *schedule.Schedule

	// 状态机
	state        State
	stateEntered clock.Time
	finished     bool // 不再产生事件

	cars     *CarHolder
	bikes    *BikeHolder
	tourMode entity.Mode // 当前出行链的主方式

	// 出行
	trip    container.Option[*Trip]
	started container.Option[StartedTrip]
	offer   container.Option[*vehicle.RideOffer] // 作为司机发布的报价
	ride    container.Option[*vehicle.RideOffer] // 作为乘客接受的报价

	// 公共交通
	legIndex     int
	waitingSince container.Option[clock.Time]
	boarded      bool // 最近一次上车尝试是否成功
	searches     int  // 连续检索新路线的次数
}

// NewPerson 根据输入数据创建人员
// 参数：env-外部协作者，h-所属家庭，base-人员数据，fleet-家庭汽车池，pattern-周活动模式
// 返回：人员实例，活动类型或固定目的地无法解析时返回错误
func NewPerson(
	env *Environment,
	h input.Household,
	base input.Person,
	fleet *vehicle.HouseholdFleet,
	pattern []input.PatternActivity,
) (*Person, error) {
	p := &Person{
		env:       env,
		id:        base.ID,
		household: h.ID,
		attr: entity.PersonAttribute{
			Age:        base.Age,
			Female:     base.Female,
			Employment: base.Employment,
			Income:     base.Income,
		},
		home: entity.Location{
			Zone:  entity.ZoneID(h.HomeZone),
			Point: geometry.Point{X: h.Home.X, Y: h.Home.Y},
		},
		commuterTicket: base.CommuterTicket,
		memberships:    base.Memberships,
		fixed:          make(map[entity.ActivityType]entity.Location, len(base.FixedDestinations)),
		fleet:          fleet,
		generator:      randengine.ForAgent(env.Options.Seed, int64(base.ID)),
		trips:          container.NewSequence(int64(base.ID) * tripsPerPerson),
		state:          StateUninitialized,
		cars:           NewCarHolder(base.ID),
		bikes:          NewBikeHolder(base.ID),
	}
	if base.License {
		p.caps |= entity.CapabilityCanDrive
	}
	if !base.NoPublicTransport {
		p.caps |= entity.CapabilityUsesPublicTransport
	}
	if !base.NoRideSharing {
		p.caps |= entity.CapabilityRideShareEligible
	}
	if base.Bike {
		p.bike = container.Some(vehicle.NewBike(base.ID))
	}
	for _, f := range base.FixedDestinations {
		t, err := entity.ParseActivityType(f.Activity)
		if err != nil {
			return nil, fmt.Errorf("person %d: fixed destination: %w", base.ID, err)
		}
		p.fixed[t] = entity.Location{
			Zone:  entity.ZoneID(f.Zone),
			Point: geometry.Point{X: f.Location.X, Y: f.Location.Y},
		}
	}
	activities := make([]*schedule.Activity, 0, len(pattern))
	for i, a := range pattern {
		t, err := entity.ParseActivityType(a.Activity)
		if err != nil {
			return nil, fmt.Errorf("person %d: pattern: %w", base.ID, err)
		}
		activities = append(activities, schedule.NewActivity(
			int32(i), t, clock.Time(a.Start)*clock.Minute, clock.Time(a.Duration)*clock.Minute,
		))
	}
	if len(activities) == 0 {
		return nil, fmt.Errorf("person %d: empty activity pattern", base.ID)
	}
	p.schedule = schedule.NewSchedule(activities)
	return p, nil
}

func (p *Person) ID() int32 {
	return p.id
}

func (p *Person) HouseholdID() int32 {
	return p.household
}

func (p *Person) Attr() entity.PersonAttribute {
	return p.attr
}

func (p *Person) Capabilities() entity.Capability {
	return p.caps
}

func (p *Person) HomeLocation() entity.Location {
	return p.home
}

func (p *Person) HasBike() bool {
	return p.bike.IsSome()
}

func (p *Person) HasCommuterTicket() bool {
	return p.commuterTicket
}

func (p *Person) IsMobilityProviderCustomer(provider string) bool {
	return lo.Contains(p.memberships, provider)
}

func (p *Person) FixedDestination(t entity.ActivityType) (entity.Location, bool) {
	l, ok := p.fixed[t]
	return l, ok
}

// State 当前状态
func (p *Person) State() State {
	return p.state
}

// Schedule 周活动计划（只读使用）
func (p *Person) Schedule() *schedule.Schedule {
	return p.schedule
}

func (p *Person) CarUsage() CarUsage {
	return p.cars.Usage()
}

func (p *Person) BikeUsage() BikeUsage {
	return p.bikes.Usage()
}

// Fleet 所属家庭的汽车池
func (p *Person) Fleet() *vehicle.HouseholdFleet {
	return p.fleet
}

// CurrentTrip 当前出行
func (p *Person) CurrentTrip() (*Trip, bool) {
	return p.trip.Get()
}

// Finished 是否已不再产生事件
func (p *Person) Finished() bool {
	return p.finished
}

// Init 开始第一个活动
// 功能：选择模拟起点时刻正在进行的活动作为初始活动，确定其地点并标记为进行中
// 参数：start-模拟起点
// 说明：初始活动为模拟起点之前最后开始的活动，全部活动都晚于起点时取第一个活动
func (p *Person) Init(start clock.Time) {
	first, _ := p.schedule.First()
	for _, a := range p.schedule.Activities() {
		if a.StartDate() > start {
			break
		}
		first = a
	}
	if !first.IsLocationSet() {
		if l, ok := p.anchorLocation(first.ActivityType(), start); ok {
			first.SetLocation(l)
		} else {
			log.Warnf("person %d: initial activity %v has no fixed location, start at home", p.id, first)
			first.SetLocation(p.home)
		}
	}
	p.schedule.StartActivity(first, first.StartDate(), entity.ModeUnknown, schedule.NoRescheduling{})
	p.notify(start, p.env.Listener.NotifyStartActivity(p, first, start))
}

// anchorLocation 在家与固定地点活动的地点
// 返回：地点与是否为此类活动
// 说明：固定地点活动缺少固定目的地是致命错误
func (p *Person) anchorLocation(t entity.ActivityType, now clock.Time) (entity.Location, bool) {
	switch {
	case t.IsHome():
		return p.home, true
	case t.IsFixed():
		l, ok := p.fixed[t]
		if !ok {
			p.fail(now, fmt.Errorf("%v: %w", t, ErrMissingFixedDestination))
		}
		return l, true
	}
	return entity.Location{}, false
}

// StartEvent 模拟开始事件
func (p *Person) StartEvent(start clock.Time) event.Event {
	return event.Event{Time: start, Person: p.id, Kind: event.KindStart}
}

// Notify 处理属于该人员的事件
// 功能：校验事件后推进状态机，并把下一个事件加入队列
// 参数：e-事件，now-队列当前处理时刻，q-所属分片的事件队列
func (p *Person) Notify(e event.Event, now clock.Time, q *event.Queue) {
	if e.Person != p.id {
		p.fail(now, fmt.Errorf("%v: %w", e, ErrWrongPerson))
	}
	if e.Time > now {
		p.fail(now, fmt.Errorf("%v: %w", e, ErrFutureEvent))
	}
	p.updateState(e.Time, q)
}

// NextActivityStartsAfterSimulationEnd 下一个活动是否晚于模拟终点（或不存在）
func (p *Person) NextActivityStartsAfterSimulationEnd() bool {
	cur, ok := p.schedule.Current()
	if !ok {
		return false
	}
	next, ok := p.schedule.Next(cur)
	return !ok || p.env.Clock.AfterHorizon(next.StartDate())
}

// notify 监听器返回错误时中止模拟
func (p *Person) notify(t clock.Time, err error) {
	if err != nil {
		log.Panicf("person %d at %v in state %v: %v", p.id, t, p.state, err)
	}
}

func (p *Person) String() string {
	return fmt.Sprintf("Person{id=%d household=%d state=%v car=%v bike=%v}",
		p.id, p.household, p.state, p.cars.Usage(), p.bikes.Usage())
}
