package model_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/person/schedule"
	"github.com/tsinghua-fib-lab/demandsim/entity/vehicle"
	"github.com/tsinghua-fib-lab/demandsim/entity/zone"
	"github.com/tsinghua-fib-lab/demandsim/model"
	"github.com/tsinghua-fib-lab/demandsim/utils/config"
	"github.com/tsinghua-fib-lab/demandsim/utils/input"
)

// 三个小区排成一行，间隔3km；小区3没有购物机会
func newZones() *zone.ZoneManager {
	return zone.NewManager([]input.Zone{
		{
			ID: 1, Centroid: &input.Point{X: 0, Y: 0}, ParkingCost: 2,
			Opportunities: []input.Opportunity{{Activity: "shopping", Location: input.Point{X: 10, Y: 10}, Attractivity: 1}},
		},
		{
			ID: 2, Centroid: &input.Point{X: 3000, Y: 0},
			Opportunities: []input.Opportunity{{Activity: "shopping", Location: input.Point{X: 3010, Y: 0}, Attractivity: 50}},
		},
		{ID: 3, Centroid: &input.Point{X: 6000, Y: 0}},
	}, nil)
}

func newVehicles() *vehicle.Vehicles {
	return vehicle.NewVehicles([]*vehicle.Journey{
		vehicle.NewJourney(2, 50, 0, false, []vehicle.StopTime{
			{Zone: 1, Arrival: 1000, Departure: 1000},
			{Zone: 2, Arrival: 1500, Departure: 1500},
		}),
		vehicle.NewJourney(1, 50, 0, false, []vehicle.StopTime{
			{Zone: 1, Arrival: 900, Departure: 900},
			{Zone: 2, Arrival: 1500, Departure: 1500},
		}),
		vehicle.NewJourney(3, 50, 0, true, []vehicle.StopTime{
			{Zone: 1, Arrival: 950, Departure: 950},
			{Zone: 2, Arrival: 1100, Departure: 1100},
		}),
		vehicle.NewJourney(4, 50, 0, false, []vehicle.StopTime{
			{Zone: 2, Arrival: 800, Departure: 800},
			{Zone: 1, Arrival: 1200, Departure: 1200},
		}),
	})
}

func TestImpedance(t *testing.T) {
	imp, err := model.NewImpedance(newZones(), nil, config.Impedance{
		Speed:  map[string]float64{"walk": 3.6},
		Detour: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, 500.0, imp.Distance(1, 1))
	assert.InDelta(t, 3000.0, imp.Distance(1, 2), 1e-9)
	assert.Equal(t, imp.Distance(1, 2), imp.Distance(2, 1))

	// 3.6km/h即1m/s
	assert.Equal(t, clock.Time(3000), imp.TravelTime(1, 2, entity.ModeWalk, 0))
	assert.Equal(t, clock.Time(500), imp.TravelTime(1, 1, entity.ModeWalk, 0))
	assert.Less(t, imp.TravelTime(1, 2, entity.ModeCar, 0), imp.TravelTime(1, 2, entity.ModeBike, 0))
	// 没有班次时按速度估计
	assert.Positive(t, imp.TravelTime(1, 2, entity.ModePublicTransport, 0))

	assert.InDelta(t, 0.9, imp.TravelCost(1, 2, entity.ModeCar, 0), 1e-9)
	assert.Zero(t, imp.TravelCost(1, 2, entity.ModeWalk, 0))
	assert.InDelta(t, 3.0, imp.ParkingCost(1, 0, 90*clock.Minute), 1e-9)

	_, ok := imp.PublicTransportRoute(1, 2, 0)
	assert.False(t, ok)

	_, err = model.NewImpedance(newZones(), nil, config.Impedance{Speed: map[string]float64{"teleport": 1}})
	assert.Error(t, err)
}

func TestImpedanceMinimumTravelTime(t *testing.T) {
	imp, err := model.NewImpedance(newZones(), nil, config.Impedance{Speed: map[string]float64{"car": 1000}})
	require.NoError(t, err)
	assert.Equal(t, clock.Minute, imp.TravelTime(1, 1, entity.ModeCar, 0))
}

func TestPublicTransportRoute(t *testing.T) {
	imp, err := model.NewImpedance(newZones(), newVehicles(), config.Impedance{})
	require.NoError(t, err)

	// 班次1与2同时到达，取ID较小者；取消的班次3不参与
	r, ok := imp.PublicTransportRoute(1, 2, 0)
	require.True(t, ok)
	require.Len(t, r.Legs, 1)
	assert.Equal(t, int32(1), r.Legs[0].Journey)
	assert.Equal(t, clock.Time(900), r.Legs[0].Departure)
	assert.Equal(t, clock.Time(1500), r.Arrival())

	// 班次1已发车
	r, ok = imp.PublicTransportRoute(1, 2, 901)
	require.True(t, ok)
	assert.Equal(t, int32(2), r.Legs[0].Journey)

	_, ok = imp.PublicTransportRoute(1, 2, 1001)
	assert.False(t, ok)

	// 方向
	r, ok = imp.PublicTransportRoute(2, 1, 0)
	require.True(t, ok)
	assert.Equal(t, int32(4), r.Legs[0].Journey)
	_, ok = imp.PublicTransportRoute(1, 3, 0)
	assert.False(t, ok)

	assert.Equal(t, clock.Time(600), imp.TravelTime(1, 2, entity.ModePublicTransport, 900))
}

func activities() (*schedule.Activity, *schedule.Activity) {
	home := schedule.NewActivity(0, entity.ActivityHome, 0, 8*clock.Hour)
	home.SetLocation(entity.Location{Zone: 1})
	shop := schedule.NewActivity(1, entity.ActivityShopping, 8*clock.Hour+10*clock.Minute, clock.Hour)
	return home, shop
}

func TestDestinationChoice(t *testing.T) {
	zones := newZones()
	imp, err := model.NewImpedance(zones, nil, config.Impedance{})
	require.NoError(t, err)
	m, err := model.NewDestinationChoice(zones, imp, nil)
	require.NoError(t, err)
	home, shop := activities()

	counts := map[entity.ZoneID]int{}
	for i := range 1000 {
		draw := (float64(i) + 0.5) / 1000
		counts[m.SelectDestination(nil, entity.ModeUnknown, home, shop, draw)]++
	}
	// 没有吸引力的小区不会被选中
	assert.Zero(t, counts[3])
	assert.Positive(t, counts[1])
	assert.Greater(t, counts[2], counts[1])

	// 相同随机数得到相同结果
	for _, draw := range []float64{0, 0.3, 0.7, 0.999} {
		assert.Equal(t,
			m.SelectDestination(nil, entity.ModeUnknown, home, shop, draw),
			m.SelectDestination(nil, entity.ModeUnknown, home, shop, draw),
		)
	}

	// 极强的距离惩罚使选择集中在出发小区
	m.SetParams(entity.ActivityShopping, model.DestinationParams{Attractivity: 1, Time: -100})
	assert.Equal(t, entity.ZoneID(1), m.SelectDestination(nil, entity.ModeCar, home, shop, 0.99))
}

func TestLoadDestinationParams(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "shopping.yaml")
	require.NoError(t, os.WriteFile(good, []byte("attractivity: 0.8\ntime: -0.1\nmode: walk\n"), 0o644))
	p, err := model.LoadDestinationParams(good)
	require.NoError(t, err)
	assert.Equal(t, 0.8, p.Attractivity)
	assert.Equal(t, -0.1, p.Time)

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("attractivity: 1\nspeed: 3\n"), 0o644))
	_, err = model.LoadDestinationParams(unknown)
	assert.Error(t, err)

	badMode := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badMode, []byte("attractivity: 1\nmode: rocket\n"), 0o644))
	_, err = model.LoadDestinationParams(badMode)
	assert.Error(t, err)

	_, err = model.NewDestinationChoice(newZones(), nil, map[entity.ActivityType]string{
		entity.ActivityShopping: filepath.Join(dir, "missing.yaml"),
	})
	assert.Error(t, err)
}

func TestModeChoice(t *testing.T) {
	zones := newZones()
	imp, err := model.NewImpedance(zones, nil, config.Impedance{})
	require.NoError(t, err)
	home, shop := activities()
	set := []entity.Mode{entity.ModeWalk, entity.ModeCar}

	m, err := model.NewModeChoice(imp, config.ModeChoice{
		Constant: map[string]float64{"walk": 20},
		Time:     -0.1,
	})
	require.NoError(t, err)
	for _, draw := range []float64{0, 0.5, 0.999} {
		assert.Equal(t, entity.ModeWalk, m.SelectMode(nil, 1, 2, home, shop, set, draw))
	}

	// 只有时间系数时，汽车明显更快
	m, err = model.NewModeChoice(imp, config.ModeChoice{Time: -1})
	require.NoError(t, err)
	assert.Equal(t, entity.ModeCar, m.SelectMode(nil, 1, 2, home, shop, set, 0.5))

	// 系数全为0时均匀选择
	m, err = model.NewModeChoice(imp, config.ModeChoice{})
	require.NoError(t, err)
	assert.Equal(t, entity.ModeWalk, m.SelectMode(nil, 1, 2, home, shop, set, 0.1))
	assert.Equal(t, entity.ModeCar, m.SelectMode(nil, 1, 2, home, shop, set, 0.9))

	_, err = model.NewModeChoice(imp, config.ModeChoice{Constant: map[string]float64{"rocket": 1}})
	assert.Error(t, err)
}

func TestFixedModeChoice(t *testing.T) {
	home, shop := activities()
	fixed := model.FixedModeChoice{Mode: entity.ModeBike}
	assert.Equal(t, entity.ModeBike,
		fixed.SelectMode(nil, 1, 2, home, shop, []entity.Mode{entity.ModeWalk, entity.ModeBike}, 0.3))
	assert.Equal(t, entity.ModeWalk,
		fixed.SelectMode(nil, 1, 2, home, shop, []entity.Mode{entity.ModeWalk, entity.ModeCar}, 0.3))

	imp, err := model.NewImpedance(newZones(), nil, config.Impedance{})
	require.NoError(t, err)
	fallback, err := model.NewModeChoice(imp, config.ModeChoice{Time: -1})
	require.NoError(t, err)
	fixed.Fallback = fallback
	assert.Equal(t, entity.ModeCar,
		fixed.SelectMode(nil, 1, 2, home, shop, []entity.Mode{entity.ModeWalk, entity.ModeCar}, 0.3))
}
