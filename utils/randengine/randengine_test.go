package randengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/demandsim/utils/randengine"
)

func TestForAgentReproducible(t *testing.T) {
	a := randengine.ForAgent(42, 7)
	b := randengine.ForAgent(42, 7)
	c := randengine.ForAgent(42, 8)
	same := true
	for range 10 {
		x, y, z := a.Float64(), b.Float64(), c.Float64()
		assert.Equal(t, x, y)
		same = same && x == z
	}
	assert.False(t, same)
}

func TestPick(t *testing.T) {
	w := []float64{1, 0, 3}
	assert.Equal(t, int32(0), randengine.Pick(w, 0))
	assert.Equal(t, int32(0), randengine.Pick(w, 0.2))
	assert.Equal(t, int32(2), randengine.Pick(w, 0.25))
	assert.Equal(t, int32(2), randengine.Pick(w, 0.9999))
	// 全零权重均匀抽取
	assert.Equal(t, int32(1), randengine.Pick([]float64{0, 0, 0}, 0.5))
	assert.Panics(t, func() { randengine.Pick(nil, 0.5) })
}

func TestDiscreteDistribution(t *testing.T) {
	e := randengine.New(1)
	counts := make([]int, 3)
	for range 3000 {
		counts[e.DiscreteDistribution([]float64{1, 0, 1})]++
	}
	assert.Equal(t, 0, counts[1])
	assert.InDelta(t, 1500, counts[0], 200)
}
