package task

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync/atomic"

	"git.fiblab.net/sim/syncer/v3"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/person"
	"github.com/tsinghua-fib-lab/demandsim/entity/person/schedule"
	"github.com/tsinghua-fib-lab/demandsim/entity/vehicle"
	"github.com/tsinghua-fib-lab/demandsim/entity/zone"
	"github.com/tsinghua-fib-lab/demandsim/model"
	"github.com/tsinghua-fib-lab/demandsim/output"
	"github.com/tsinghua-fib-lab/demandsim/utils/config"
	"github.com/tsinghua-fib-lab/demandsim/utils/input"
)

var log = logrus.WithField("module", "task")

// Context 仿真任务上下文
// 功能：包含一次仿真任务的所有变量和状态
// 说明：管理时钟、小区、车辆、选择模型、人员分片与输出
type Context struct {
	// 任务名
	job string
	// 关闭指令
	closed atomic.Bool

	// 时钟
	clock *clock.Clock

	// 辅助程序，处理分布式模式下与syncer的交互，为nil时不参与同步
	sidecar *syncer.Sidecar
	// sidecar close channel
	sidecarCloseCh chan struct{}
	serving        bool

	// 运行时配置
	runtimeConfig *config.RuntimeConfig
	// 用于初始化的输入
	initRes *input.Input

	zoneManager   *zone.ZoneManager
	vehicles      *vehicle.Vehicles
	impedance     *model.Impedance
	personManager *person.PersonManager
	broadcaster   *person.Broadcaster
	outputs       []output.IOutput

	// 心跳日志间隔（时间片数），0为不输出
	HeartbeatInterval int32
}

// NewContext 创建新的仿真任务上下文
// 功能：加载输入并初始化仿真系统的所有组件
// 参数：
//   - job: 任务名称
//   - cacheDir: 输入缓存目录，为空则禁用缓存
//   - c: 配置对象
//   - sidecar: sidecar实例，为nil时独立运行
//   - startSidecarServe: 是否启动sidecar服务
//
// 返回：初始化完成的Context实例，配置或输入有误时返回错误
// 算法说明：
// 1. 校验配置并设置并行度
// 2. 下载或读取输入数据
// 3. 按依赖顺序创建时钟、小区、车辆、阻抗、选择模型、输出与人员
// 4. 注册RPC服务到sidecar并启动sidecar服务（如果需要）
func NewContext(
	job string,
	cacheDir string,
	c config.Config,
	sidecar *syncer.Sidecar,
	startSidecarServe bool,
) (*Context, error) {
	rc, err := config.NewRuntimeConfig(c)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	runtime.GOMAXPROCS(rc.C.Threads)

	in, err := input.Init(rc, cacheDir)
	if err != nil {
		return nil, fmt.Errorf("load input: %w", err)
	}

	ctx := &Context{
		job:               job,
		sidecar:           sidecar,
		sidecarCloseCh:    make(chan struct{}),
		runtimeConfig:     rc,
		initRes:           in,
		HeartbeatInterval: 4,
	}
	if err := ctx.build(); err != nil {
		ctx.closeOutputs()
		return nil, err
	}

	if ctx.sidecar != nil {
		ctx.clock.Register(ctx.sidecar)
		// sidecar协程，用于提供gRPC服务
		if startSidecarServe {
			ctx.serving = true
			go func() {
				err := ctx.sidecar.Serve()
				if err != nil {
					log.Panicf("failed to serve: %v", err)
				}
				ctx.sidecarCloseCh <- struct{}{}
			}()
		}
	}
	return ctx, nil
}

// build 创建各类模拟对象
func (ctx *Context) build() error {
	rc := ctx.runtimeConfig
	c := rc.C
	in := ctx.initRes

	ctx.clock = clock.New(rc.FirstDay, rc.LastDay, clock.Time(c.Slice))
	ctx.zoneManager = zone.NewManager(in.Zones, in.Households)
	ctx.vehicles = vehicle.NewVehicles(newJourneys(in.Journeys))

	var err error
	if ctx.impedance, err = model.NewImpedance(ctx.zoneManager, ctx.vehicles, c.Impedance); err != nil {
		return err
	}
	destination, err := model.NewDestinationChoice(ctx.zoneManager, ctx.impedance, rc.DestinationChoice)
	if err != nil {
		return err
	}
	modeChoice, err := newModeChoice(ctx.impedance, c.ModeChoice)
	if err != nil {
		return err
	}

	ctx.broadcaster = person.NewBroadcaster()
	if err := ctx.openOutputs(rc.All.Output); err != nil {
		return err
	}
	for _, o := range ctx.outputs {
		ctx.broadcaster.Add(o)
	}

	env := &person.Environment{
		Clock:             ctx.clock,
		Zones:             ctx.zoneManager,
		Impedance:         ctx.impedance,
		DestinationChoice: destination,
		ModeChoice:        modeChoice,
		Rescheduling:      newRescheduling(c.Rescheduling),
		Listener:          ctx.broadcaster,
		RideOffers:        vehicle.NewRideSharingOffers(),
		Transit:           person.NewPublicTransportBehaviour(ctx.vehicles, ctx.impedance),
		FreeFloating:      newFreeFloatingPools(in.Fleets, ctx.zoneManager),
		Options: person.Options{
			Seed:              c.Seed,
			Modes:             rc.Modes,
			PassengerAsOption: c.PassengerAsOption,
			RideSharing:       c.RideSharing.Enabled,
			MaxMinutesLate:    clock.Time(c.RideSharing.MaxMinutesLate) * clock.Minute,
			MaxWait:           clock.Time(c.PublicTransport.MaxWait),
		},
	}
	ctx.personManager, err = person.NewManager(env, in)
	return err
}

func newJourneys(journeys []input.Journey) []*vehicle.Journey {
	return lo.Map(journeys, func(j input.Journey, _ int) *vehicle.Journey {
		stops := lo.Map(j.Stops, func(s input.StopTime, _ int) vehicle.StopTime {
			return vehicle.StopTime{
				Zone:      entity.ZoneID(s.Zone),
				Arrival:   clock.Time(s.Arrival),
				Departure: clock.Time(s.Departure),
			}
		})
		return vehicle.NewJourney(j.ID, j.Capacity, clock.Time(j.Delay), j.Cancelled, stops)
	})
}

// newFreeFloatingPools 按服务商名称排序，同名车队合并
func newFreeFloatingPools(fleets []input.Fleet, zones entity.IZoneManager) []*vehicle.FreeFloatingPool {
	cars := make(map[string][]*vehicle.Car)
	for _, f := range fleets {
		for _, c := range f.Cars {
			cars[f.Provider] = append(cars[f.Provider], vehicle.NewSharedCar(c.ID, f.Provider, entity.ZoneID(c.Zone)))
		}
	}
	providers := lo.Keys(cars)
	slices.Sort(providers)
	return lo.Map(providers, func(p string, _ int) *vehicle.FreeFloatingPool {
		return vehicle.NewFreeFloatingPool(p, cars[p], zones)
	})
}

// newModeChoice 配置了固定方式时，固定方式不可用的出行交给多项Logit模型
func newModeChoice(imp entity.IImpedance, c config.ModeChoice) (entity.IModeChoiceModel, error) {
	mnl, err := model.NewModeChoice(imp, c)
	if err != nil {
		return nil, err
	}
	if c.Fixed == "" {
		return mnl, nil
	}
	mode, err := entity.ParseMode(c.Fixed)
	if err != nil {
		return nil, err
	}
	return model.FixedModeChoice{Mode: mode, Fallback: mnl}, nil
}

func newRescheduling(c config.Rescheduling) schedule.IReschedulingStrategy {
	switch c.Strategy {
	case config.ReschedulingNone:
		return schedule.NoRescheduling{}
	case config.ReschedulingSkipToHome:
		return schedule.SkipToHomeRescheduling{MaxDelay: clock.Time(c.MaxDelay)}
	default:
		return schedule.ShiftRescheduling{}
	}
}

// openOutputs 按配置创建输出，顺序固定为CSV、SQLite、OD矩阵
func (ctx *Context) openOutputs(c config.Output) error {
	if c.TripsCSV != "" {
		o, err := output.NewTripCSV(c.TripsCSV)
		if err != nil {
			return err
		}
		ctx.outputs = append(ctx.outputs, o)
	}
	if c.SQLite != "" {
		o, err := output.NewSQLiteStore(context.Background(), c.SQLite)
		if err != nil {
			return err
		}
		ctx.outputs = append(ctx.outputs, o)
	}
	if c.ODMatrix != "" {
		ctx.outputs = append(ctx.outputs, output.NewAggregateDemand(c.ODMatrix))
	}
	return nil
}

// closeOutputs 构建失败时关闭已打开的输出
func (ctx *Context) closeOutputs() {
	for _, o := range ctx.outputs {
		if err := o.NotifyFinishSimulation(); err != nil {
			log.Warnf("close output: %v", err)
		}
	}
	ctx.outputs = nil
}

func (ctx *Context) Job() string {
	return ctx.job
}

func (ctx *Context) GetInput() *input.Input {
	return ctx.initRes
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) PersonManager() *person.PersonManager {
	return ctx.personManager
}

// AddListener 注册额外的监听器，只能在Run之前调用
func (ctx *Context) AddListener(l person.IListener) {
	ctx.broadcaster.Add(l)
}

// Init 所有人员开始第一个活动
func (ctx *Context) Init() {
	ctx.clock.Init()
	ctx.personManager.Init()
	log.Infof("Zone: %v", len(ctx.initRes.Zones))
	log.Infof("Household: %v", len(ctx.initRes.Households))
	log.Infof("Person: %v", ctx.initRes.NumPersons())
	log.Infof("Journey: %v", len(ctx.initRes.Journeys))
	log.Infof("Horizon: [%v, %v) slice %ds", ctx.clock.Start, ctx.clock.End, int64(ctx.clock.Slice))
}

// Stop 请求在当前时间片结束后停止
func (ctx *Context) Stop() {
	ctx.closed.Store(true)
}

func (ctx *Context) Close() {
	if ctx.sidecar == nil || !ctx.serving {
		return
	}
	ctx.sidecar.Close()
	// wait for graceful stop
	<-ctx.sidecarCloseCh
}
