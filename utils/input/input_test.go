package input_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/demandsim/utils/config"
	"github.com/tsinghua-fib-lab/demandsim/utils/input"
)

const zonesYAML = `
- id: 1
  centroid: {x: 0, y: 0}
  opportunities:
    - {activity: work, location: {x: 10, y: 0}, attractivity: 5}
- id: 2
  boundary: [{x: 0, y: 0}, {x: 2, y: 0}, {x: 2, y: 2}, {x: 0, y: 2}]
  free_floating: [flinkster]
`

const populationYAML = `
- id: 10
  home_zone: 1
  home: {x: 1, y: 1}
  cars: [{id: 100, seats: 5}]
  persons:
    - {id: 1000, age: 40, license: true, pattern: 1, personal_car: 100}
    - {id: 1001, age: 12, pattern: 9}
`

const patternsYAML = `
- id: 1
  activities:
    - {activity: home, start: 0, duration: 480}
    - {activity: work, start: 480, duration: 600}
    - {activity: home, start: 1080, duration: 360}
`

func writeFiles(t *testing.T) config.Config {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}
	return config.Config{
		Input: config.Input{
			Zones:      config.InputPath{File: write("zones.yaml", zonesYAML)},
			Population: config.InputPath{File: write("population.yaml", populationYAML)},
			Patterns:   &config.InputPath{File: write("patterns.yaml", patternsYAML)},
		},
		Control: config.Control{Days: []int32{0}, Threads: 1, Fraction: 1},
	}
}

func TestInitFromFiles(t *testing.T) {
	rc, err := config.NewRuntimeConfig(writeFiles(t))
	require.NoError(t, err)
	in, err := input.Init(rc, "")
	require.NoError(t, err)
	assert.Len(t, in.Zones, 2)
	assert.Len(t, in.Households, 1)
	assert.Equal(t, 2, in.NumPersons())
	assert.Equal(t, 1, in.Patterns.Len())
	assert.Equal(t, []string{"flinkster"}, in.Zones[1].FreeFloating)
	assert.Equal(t, int32(100), *in.Households[0].Persons[0].PersonalCar)
}

func TestInitRejectsUnknownZone(t *testing.T) {
	c := writeFiles(t)
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("- {id: 1, home_zone: 99, persons: []}\n"), 0o644))
	c.Input.Population.File = bad
	rc, err := config.NewRuntimeConfig(c)
	require.NoError(t, err)
	_, err = input.Init(rc, "")
	assert.ErrorContains(t, err, "unknown home zone 99")
}

func TestPatternTable(t *testing.T) {
	table, err := input.NewPatternTable([]input.Pattern{
		{ID: 1, Activities: []input.PatternActivity{{Activity: "home", Start: 0, Duration: 10}}},
		{ID: 2, Activities: []input.PatternActivity{
			{Activity: "home", Start: 0, Duration: 10},
			{Activity: "work", Start: 10, Duration: 10},
		}},
	})
	require.NoError(t, err)
	acts, ok := table.Get(2)
	assert.True(t, ok)
	assert.Len(t, acts, 2)
	assert.Equal(t, "work", acts[1].Activity)
	// 追加不会覆盖相邻模式
	acts = append(acts, input.PatternActivity{Activity: "leisure"})
	again, _ := table.Get(2)
	assert.Len(t, again, 2)

	_, ok = table.Get(3)
	assert.False(t, ok)
	def := table.Resolve(5, 3)
	assert.Len(t, def, 1)
	assert.Equal(t, "home", def[0].Activity)
	assert.Equal(t, int64(1), table.Missing())

	_, err = input.NewPatternTable([]input.Pattern{{ID: 1, Activities: acts}, {ID: 1, Activities: acts}})
	assert.Error(t, err)
	_, err = input.NewPatternTable([]input.Pattern{{ID: 1}})
	assert.Error(t, err)
}

func TestSample(t *testing.T) {
	hs := make([]input.Household, 1000)
	for i := range hs {
		hs[i].ID = int32(i)
	}
	a := input.Sample(hs, 0.3, 1)
	b := input.Sample(hs, 0.3, 1)
	assert.Equal(t, a, b)
	assert.InDelta(t, 300, len(a), 60)
	assert.Len(t, input.Sample(hs, 1, 1), 1000)
	assert.Empty(t, input.Sample(hs, 0, 1))

	// 与输入顺序无关
	reversed := make([]input.Household, len(hs))
	for i := range hs {
		reversed[len(hs)-1-i] = hs[i]
	}
	c := input.Sample(reversed, 0.3, 1)
	assert.Len(t, c, len(a))
}

func TestCache(t *testing.T) {
	cache, err := input.OpenCache(t.TempDir())
	require.NoError(t, err)
	defer cache.Close()
	_, ok, err := cache.Get("db.col")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, cache.Set("db.col", []byte("payload")))
	v, ok, err := cache.Get("db.col")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("payload"), v)
}
