package model

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/utils/config"
	"github.com/tsinghua-fib-lab/demandsim/utils/randengine"
)

// ModeChoice 多项Logit方式选择模型
// 功能：效用 = 方式常数 + 时间系数*出行时间(分钟) + 费用系数*(出行费用+驾车停车费)
type ModeChoice struct {
	impedance entity.IImpedance
	constant  map[entity.Mode]float64
	time      float64
	cost      float64
}

// NewModeChoice 根据配置创建方式选择模型
func NewModeChoice(impedance entity.IImpedance, c config.ModeChoice) (*ModeChoice, error) {
	m := &ModeChoice{
		impedance: impedance,
		constant:  make(map[entity.Mode]float64, len(c.Constant)),
		time:      c.Time,
		cost:      c.Cost,
	}
	for name, v := range c.Constant {
		mode, err := entity.ParseMode(name)
		if err != nil {
			return nil, fmt.Errorf("mode choice constant: %w", err)
		}
		m.constant[mode] = v
	}
	return m, nil
}

func (m *ModeChoice) SelectMode(
	_ entity.IPerson,
	origin, destination entity.ZoneID,
	previous, next entity.IActivity,
	choiceSet []entity.Mode,
	randomDraw float64,
) entity.Mode {
	depart := previous.StartDate() + previous.Duration()
	utility := lo.Map(choiceSet, func(mode entity.Mode, _ int) float64 {
		tt := m.impedance.TravelTime(origin, destination, mode, depart)
		cost := m.impedance.TravelCost(origin, destination, mode, depart)
		if mode.UsesCarAsDriver() {
			cost += m.impedance.ParkingCost(destination, depart+tt, next.Duration())
		}
		return m.constant[mode] + m.time*float64(tt)/60 + m.cost*cost
	})
	valid := lo.Map(choiceSet, func(entity.Mode, int) bool { return true })
	return choiceSet[randengine.Pick(softmax(utility, valid), randomDraw)]
}

// FixedModeChoice 可用时总是选择Mode，否则交给Fallback
type FixedModeChoice struct {
	Mode     entity.Mode
	Fallback entity.IModeChoiceModel
}

func (m FixedModeChoice) SelectMode(
	person entity.IPerson,
	origin, destination entity.ZoneID,
	previous, next entity.IActivity,
	choiceSet []entity.Mode,
	randomDraw float64,
) entity.Mode {
	if lo.Contains(choiceSet, m.Mode) {
		return m.Mode
	}
	if m.Fallback != nil {
		return m.Fallback.SelectMode(person, origin, destination, previous, next, choiceSet, randomDraw)
	}
	return choiceSet[0]
}
