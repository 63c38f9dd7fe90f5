package model

import (
	"fmt"
	"math"
	"os"

	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/utils/randengine"
	"gopkg.in/yaml.v2"
)

// DestinationParams 某类活动的目的地选择参数
type DestinationParams struct {
	Attractivity float64 `yaml:"attractivity"`   // log(吸引力)的系数
	Time         float64 `yaml:"time"`           // 每分钟出行时间的效用
	Cost         float64 `yaml:"cost,omitempty"` // 每单位费用的效用
	Mode         string  `yaml:"mode,omitempty"` // 出行链主方式未定时用于计算阻抗的方式

	mode entity.Mode
}

// defaultDestinationParams 未配置参数文件的活动类型使用的参数
var defaultDestinationParams = DestinationParams{Attractivity: 1, Time: -0.05, mode: entity.ModeCar}

// LoadDestinationParams 从YAML文件读取目的地选择参数
func LoadDestinationParams(path string) (DestinationParams, error) {
	var p DestinationParams
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.UnmarshalStrict(data, &p); err != nil {
		return p, fmt.Errorf("%s: %w", path, err)
	}
	p.mode = entity.ModeCar
	if p.Mode != "" {
		if p.mode, err = entity.ParseMode(p.Mode); err != nil {
			return p, fmt.Errorf("%s: %w", path, err)
		}
	}
	return p, nil
}

// DestinationChoice 多项Logit目的地选择模型
// 功能：效用 = a*log(吸引力) + b*出行时间(分钟) + c*费用，按效用的指数加权抽取小区
// 说明：没有吸引力的小区不参与选择；所有小区都没有吸引力时均匀抽取
type DestinationChoice struct {
	zones     entity.IZoneManager
	impedance entity.IImpedance
	params    map[entity.ActivityType]DestinationParams
}

// NewDestinationChoice 创建目的地选择模型
// 参数：zones-小区管理器，impedance-阻抗，paths-活动类型到参数文件的映射
func NewDestinationChoice(
	zones entity.IZoneManager,
	impedance entity.IImpedance,
	paths map[entity.ActivityType]string,
) (*DestinationChoice, error) {
	m := &DestinationChoice{
		zones:     zones,
		impedance: impedance,
		params:    make(map[entity.ActivityType]DestinationParams, len(paths)),
	}
	for t, path := range paths {
		p, err := LoadDestinationParams(path)
		if err != nil {
			return nil, fmt.Errorf("destination choice for %v: %w", t, err)
		}
		m.params[t] = p
	}
	return m, nil
}

// SetParams 设置某类活动的参数
func (m *DestinationChoice) SetParams(t entity.ActivityType, p DestinationParams) {
	if p.mode == entity.ModeUnknown {
		p.mode = entity.ModeCar
	}
	m.params[t] = p
}

func (m *DestinationChoice) SelectDestination(
	_ entity.IPerson,
	tourMode entity.Mode,
	previous, next entity.IActivity,
	randomDraw float64,
) entity.ZoneID {
	p, ok := m.params[next.ActivityType()]
	if !ok {
		p = defaultDestinationParams
	}
	mode := tourMode
	if mode == entity.ModeUnknown {
		mode = p.mode
	}
	origin, _ := previous.Location()
	depart := previous.StartDate() + previous.Duration()
	zones := m.zones.All()
	utility := make([]float64, len(zones))
	valid := make([]bool, len(zones))
	for i, z := range zones {
		attr := z.Attractivity(next.ActivityType())
		if attr <= 0 {
			continue
		}
		valid[i] = true
		minutes := float64(m.impedance.TravelTime(origin.Zone, z.ID(), mode, depart)) / 60
		cost := m.impedance.TravelCost(origin.Zone, z.ID(), mode, depart)
		utility[i] = p.Attractivity*math.Log(attr) + p.Time*minutes + p.Cost*cost
	}
	return zones[randengine.Pick(softmax(utility, valid), randomDraw)].ID()
}

// softmax 把效用转换为未归一化的选择权重，valid为false的选项权重为0
func softmax(utility []float64, valid []bool) []float64 {
	top := math.Inf(-1)
	for i, u := range utility {
		if valid[i] && u > top {
			top = u
		}
	}
	weights := make([]float64, len(utility))
	for i, u := range utility {
		if valid[i] {
			weights[i] = math.Exp(u - top)
		}
	}
	return weights
}
