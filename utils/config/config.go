package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/demandsim/entity"
)

// 重排程策略名
const (
	ReschedulingNone       = "none"
	ReschedulingShift      = "shift"
	ReschedulingSkipToHome = "skip_to_home"
)

const (
	defaultSlice          = 900  // 15分钟
	defaultMaxWait        = 1800 // 30分钟
	defaultMaxMinutesLate = 10
)

// RuntimeConfig 运行时配置
// 功能：存储校验后的配置，字符串形式的方式与活动类型已被解析
// 说明：核心只读取RuntimeConfig，不再接触原始YAML配置
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置（已填充默认值）

	FirstDay          int32
	LastDay           int32
	Modes             []entity.Mode
	DestinationChoice map[entity.ActivityType]string
}

// NewRuntimeConfig 根据配置创建运行时配置
// 功能：填充默认值并校验配置，校验失败返回全部问题
// 参数：config-原始配置对象
// 返回：运行时配置与错误
func NewRuntimeConfig(config Config) (*RuntimeConfig, error) {
	c := config.Control
	if c.Slice == 0 {
		c.Slice = defaultSlice
	}
	if c.PublicTransport.MaxWait == 0 {
		c.PublicTransport.MaxWait = defaultMaxWait
	}
	if c.RideSharing.MaxMinutesLate == 0 {
		c.RideSharing.MaxMinutesLate = defaultMaxMinutesLate
	}
	if c.Rescheduling.Strategy == "" {
		c.Rescheduling.Strategy = ReschedulingShift
	}
	if len(c.Modes) == 0 {
		c.Modes = lo.Map(entity.AllModes, func(m entity.Mode, _ int) string { return m.String() })
	}
	config.Control = c

	rc := &RuntimeConfig{
		All:               config,
		C:                 c,
		DestinationChoice: make(map[entity.ActivityType]string),
	}
	if err := rc.validate(); err != nil {
		return nil, err
	}
	return rc, nil
}

// validate 启动时一次性校验
// 算法说明：
// 1. 线程数至少为1
// 2. 至少模拟一天，且天数连续递增、位于一周之内
// 3. 抽样比例在[0,1]
// 4. 时间片长度为正
// 5. 出行方式、活动类型、重排程策略可被解析
// 6. 目的地选择参数文件存在
func (rc *RuntimeConfig) validate() error {
	c := rc.C
	var errs []error
	if c.Threads < 1 {
		errs = append(errs, fmt.Errorf("control.threads must be at least 1, got %d", c.Threads))
	}
	if len(c.Days) == 0 {
		errs = append(errs, errors.New("control.days must contain at least one day"))
	} else {
		for i, d := range c.Days {
			if d < 0 || d > 6 {
				errs = append(errs, fmt.Errorf("control.days: day %d out of week range [0,6]", d))
			}
			if i > 0 && d != c.Days[i-1]+1 {
				errs = append(errs, fmt.Errorf("control.days must be consecutive, got %v", c.Days))
				break
			}
		}
		rc.FirstDay = c.Days[0]
		rc.LastDay = c.Days[len(c.Days)-1]
	}
	if c.Fraction < 0 || c.Fraction > 1 {
		errs = append(errs, fmt.Errorf("control.fraction must be in [0,1], got %v", c.Fraction))
	}
	if c.Slice <= 0 {
		errs = append(errs, fmt.Errorf("control.slice must be positive, got %d", c.Slice))
	}
	for _, s := range c.Modes {
		m, err := entity.ParseMode(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("control.modes: %w", err))
			continue
		}
		if !slices.Contains(rc.Modes, m) {
			rc.Modes = append(rc.Modes, m)
		}
	}
	if c.ModeChoice.Fixed != "" {
		if _, err := entity.ParseMode(c.ModeChoice.Fixed); err != nil {
			errs = append(errs, fmt.Errorf("control.mode_choice.fixed: %w", err))
		}
	}
	switch c.Rescheduling.Strategy {
	case ReschedulingNone, ReschedulingShift, ReschedulingSkipToHome:
	default:
		errs = append(errs, fmt.Errorf("control.rescheduling.strategy: unknown strategy %q", c.Rescheduling.Strategy))
	}
	if c.Rescheduling.MaxDelay < 0 {
		errs = append(errs, fmt.Errorf("control.rescheduling.max_delay must not be negative"))
	}
	for name, path := range c.DestinationChoice {
		t, err := entity.ParseActivityType(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("control.destination_choice: %w", err))
			continue
		}
		if _, err := os.Stat(path); err != nil {
			errs = append(errs, fmt.Errorf("control.destination_choice: parameter file for %s: %w", t, err))
			continue
		}
		rc.DestinationChoice[t] = path
	}
	if rc.All.Input.Zones.IsEmpty() {
		errs = append(errs, errors.New("input.zones must be specified"))
	}
	if rc.All.Input.Population.IsEmpty() {
		errs = append(errs, errors.New("input.population must be specified"))
	}
	return errors.Join(errs...)
}

// HasMode 该方式是否参与模拟
func (rc *RuntimeConfig) HasMode(m entity.Mode) bool {
	return slices.Contains(rc.Modes, m)
}
