// 随机数引擎，包装了golang.org/x/exp/rand，提供了一些常用的随机数生成方法
package randengine

import (
	"log"

	"golang.org/x/exp/rand"
)

// Engine 随机数引擎
// 功能：为单个主体提供独立的随机数流
// 说明：非线程安全，每个人员独占一个引擎，因此分片并行时抽样序列不受调度顺序影响
type Engine struct {
	*rand.Rand // 底层随机数生成器
}

// New 创建随机数引擎
// 参数：seed-随机数种子
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed))}
}

// ForAgent 创建主体专属的随机数引擎
// 功能：以全局种子加主体ID作为种子
// 参数：seed-全局种子，id-主体ID
func ForAgent(seed uint64, id int64) *Engine {
	return New(seed + uint64(id))
}

// DiscreteDistribution 按给定概率分布生成随机数
// 功能：根据权重数组生成离散分布的随机数
// 参数：weight-权重数组
// 返回：随机生成的索引值（0到len(weight)-1）
// 说明：使用累积分布函数的方法实现离散概率分布
func (e *Engine) DiscreteDistribution(weight []float64) int32 {
	return Pick(weight, e.Float64())
}

// PTrue 以指定概率返回true
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// Pick 用给定的[0,1)随机数按权重抽取下标
// 功能：供选择模型使用外部提供的随机数抽样
// 参数：weight-非负权重数组，draw-[0,1)随机数
// 返回：抽中的下标
// 说明：权重全为0时按均匀分布抽取
func Pick(weight []float64, draw float64) int32 {
	if len(weight) == 0 {
		log.Panicf("randengine: Pick: empty weight")
	}
	total := .0
	for _, w := range weight {
		total += w
	}
	if total <= 0 {
		return int32(min(int(draw*float64(len(weight))), len(weight)-1))
	}
	random := draw * total
	sum := 0.
	for i, w := range weight {
		sum += w
		if sum > random {
			return int32(i)
		}
	}
	// 浮点误差：返回最后一个正权重
	for i := len(weight) - 1; i >= 0; i-- {
		if weight[i] > 0 {
			return int32(i)
		}
	}
	log.Panicf("randengine: Pick: sum: %f random: %f", sum, random)
	return -1
}
