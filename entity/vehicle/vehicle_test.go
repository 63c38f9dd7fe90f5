package vehicle_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/vehicle"
	"github.com/tsinghua-fib-lab/demandsim/entity/zone"
	"github.com/tsinghua-fib-lab/demandsim/utils/input"
	"github.com/tsinghua-fib-lab/demandsim/utils/randengine"
)

func TestCarUsage(t *testing.T) {
	c := vehicle.NewPrivateCar(1, 10, 2)
	assert.ErrorIs(t, c.UseAsPassenger(5), vehicle.ErrNoDriver)
	require.NoError(t, c.Use(1))
	assert.ErrorIs(t, c.Use(2), vehicle.ErrCarInUse)
	assert.True(t, c.CanCarryPassengers())
	require.NoError(t, c.UseAsPassenger(2))
	// 两座车只能带一名乘客
	assert.ErrorIs(t, c.UseAsPassenger(3), vehicle.ErrCarFull)
	assert.ErrorIs(t, c.Release(1), vehicle.ErrPassengersOn)
	assert.ErrorIs(t, c.Release(2), vehicle.ErrNotDriver)
	require.NoError(t, c.Leave(2))
	assert.ErrorIs(t, c.Leave(2), vehicle.ErrNotPassenger)
	require.NoError(t, c.Release(1))
	assert.ErrorIs(t, c.Release(1), vehicle.ErrNotDriver)
	assert.False(t, c.InUse())
}

// 随机操作序列：违反前置条件的操作必须报错，且任何时刻至多一个司机、有乘客时必有司机
func TestCarExclusivityProperty(t *testing.T) {
	r := randengine.New(2024)
	for round := range 200 {
		c := vehicle.NewPrivateCar(int32(round), 1, 4)
		driver := int32(-1)
		passengers := map[int32]bool{}
		for range 100 {
			p := int32(r.Intn(5))
			switch r.Intn(4) {
			case 0:
				err := c.Use(p)
				if driver >= 0 || len(passengers) > 0 {
					assert.ErrorIs(t, err, vehicle.ErrCarInUse)
				} else {
					assert.NoError(t, err)
					driver = p
				}
			case 1:
				err := c.UseAsPassenger(p)
				ok := driver >= 0 && driver != p && !passengers[p] && len(passengers)+1 < 4
				if ok {
					assert.NoError(t, err)
					passengers[p] = true
				} else {
					assert.Error(t, err)
				}
			case 2:
				err := c.Leave(p)
				if passengers[p] {
					assert.NoError(t, err)
					delete(passengers, p)
				} else {
					assert.ErrorIs(t, err, vehicle.ErrNotPassenger)
				}
			case 3:
				err := c.Release(p)
				if driver == p && len(passengers) == 0 {
					assert.NoError(t, err)
					driver = -1
				} else {
					assert.Error(t, err)
				}
			}
			d, ok := c.Driver()
			assert.Equal(t, driver >= 0, ok)
			if ok {
				assert.Equal(t, driver, d)
			}
			assert.Equal(t, len(passengers), c.Passengers())
			if c.Passengers() > 0 {
				assert.True(t, ok)
			}
		}
	}
}

func TestCarConcurrentUse(t *testing.T) {
	c := vehicle.NewPrivateCar(1, 1, 5)
	var wg sync.WaitGroup
	var mtx sync.Mutex
	winners := 0
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Use(int32(i)) == nil {
				mtx.Lock()
				winners++
				mtx.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestBike(t *testing.T) {
	b := vehicle.NewBike(1)
	require.NoError(t, b.Use(1))
	assert.ErrorIs(t, b.Use(1), vehicle.ErrCarInUse)
	assert.ErrorIs(t, b.Release(2), vehicle.ErrNotDriver)
	require.NoError(t, b.Release(1))
	assert.False(t, b.InUse())
}

func TestHouseholdFleet(t *testing.T) {
	c1 := vehicle.NewPrivateCar(1, 10, 5)
	c2 := vehicle.NewPrivateCar(2, 10, 5)
	f := vehicle.NewHouseholdFleet(10, []*vehicle.Car{c2, c1}, map[int32]int32{2: 100})

	// 专属车只给专属成员
	car, ok := f.Take(100)
	require.True(t, ok)
	assert.Equal(t, int32(2), car.ID())
	car, ok = f.Take(101)
	require.True(t, ok)
	assert.Equal(t, int32(1), car.ID())
	assert.False(t, f.IsAvailable(102))
	assert.Equal(t, 0, f.Available())

	f.Return(c1)
	assert.True(t, f.IsAvailable(102))
	assert.Panics(t, func() { f.Return(c1) })
}

func TestFreeFloatingPool(t *testing.T) {
	zones := zone.NewManager([]input.Zone{
		{ID: 1, FreeFloating: []string{"flinkster"}},
		{ID: 2},
	}, nil)
	pool := vehicle.NewFreeFloatingPool("flinkster", []*vehicle.Car{
		vehicle.NewSharedCar(8, "flinkster", 1),
		vehicle.NewSharedCar(3, "flinkster", 1),
	}, zones)
	assert.True(t, pool.IsFreeFloatingZone(1))
	assert.False(t, pool.IsFreeFloatingZone(2))
	assert.False(t, pool.IsFreeFloatingZone(3))
	assert.True(t, pool.IsAvailable(1))
	assert.False(t, pool.IsAvailable(2))

	c, ok := pool.Book(1)
	require.True(t, ok)
	assert.Equal(t, int32(3), c.ID())
	_, ok = pool.Book(1)
	require.True(t, ok)
	_, ok = pool.Book(1)
	assert.False(t, ok)

	pool.Return(c, 1)
	assert.Equal(t, 1, pool.Parked(1))
	assert.Equal(t, entity.ZoneID(1), c.Zone())
	assert.Panics(t, func() { pool.Return(c, 1) })
}

func TestRideSharingOffers(t *testing.T) {
	b := vehicle.NewRideSharingOffers()
	car := vehicle.NewPrivateCar(1, 1, 5)
	o1 := &vehicle.RideOffer{Driver: 1, Trip: 11, Car: car, Origin: 1, Destination: 2, Start: 100, End: 1000}
	o2 := &vehicle.RideOffer{Driver: 2, Trip: 12, Car: car, Origin: 1, Destination: 2, Start: 200, End: 1000}
	o3 := &vehicle.RideOffer{Driver: 3, Trip: 13, Car: car, Origin: 1, Destination: 3, Start: 200, End: 1000}
	b.Add(o1)
	b.Add(o2)
	b.Add(o3)

	// 时间片边界前不可见
	_, ok := b.Matching(1, 2, 300, 600, 60)
	assert.False(t, ok)
	b.Prepare()
	assert.Equal(t, 3, b.Len())

	best, ok := b.Matching(1, 2, 300, 600, 60)
	require.True(t, ok)
	assert.Equal(t, o2, best)
	// 司机出发太早
	_, ok = b.Matching(1, 2, 900, 600, 60)
	assert.False(t, ok)
	// 到达前不足一分钟
	_, ok = b.Matching(1, 2, 950, 900, 60)
	assert.False(t, ok)

	assert.True(t, b.Take(o2))
	assert.False(t, b.Take(o2))
	assert.False(t, b.Revoke(o2))
	best, ok = b.Matching(1, 2, 300, 600, 60)
	require.True(t, ok)
	assert.Equal(t, o1, best)

	assert.True(t, b.Revoke(o1))
	assert.False(t, b.Take(o1))
	b.Prepare()
	assert.Equal(t, 1, b.Len())
}

func TestVehicles(t *testing.T) {
	j := vehicle.NewJourney(7, 1, 5*clock.Minute, false, []vehicle.StopTime{
		{Zone: 1, Arrival: 100, Departure: 160},
		{Zone: 2, Arrival: 400, Departure: 460},
	})
	cancelled := vehicle.NewJourney(8, 10, 0, true, []vehicle.StopTime{
		{Zone: 1, Arrival: 100, Departure: 160},
		{Zone: 2, Arrival: 400, Departure: 460},
	})
	v := vehicle.NewVehicles([]*vehicle.Journey{cancelled, j})
	assert.Equal(t, []*vehicle.Journey{j, cancelled}, v.All())
	assert.True(t, j.Serves(1, 2))
	assert.False(t, j.Serves(2, 1))

	dep, ok := j.ActualDeparture(1)
	require.True(t, ok)
	assert.Equal(t, clock.Time(460), dep)
	assert.False(t, v.IsAvailable(7, 1, 300))
	assert.True(t, v.IsAvailable(7, 1, 400))
	assert.False(t, v.HasDeparted(7, 1, 460))
	assert.True(t, v.HasDeparted(7, 1, 461))
	assert.False(t, v.HasDeparted(8, 1, 10000))
	assert.False(t, v.IsAvailable(8, 1, 120))

	require.NoError(t, v.Board(7, 1))
	assert.False(t, v.HasPlace(7))
	assert.ErrorIs(t, v.Board(7, 2), vehicle.ErrCarFull)
	assert.ErrorIs(t, v.GetOff(7, 2), vehicle.ErrNotPassenger)
	require.NoError(t, v.GetOff(7, 1))
	assert.True(t, v.HasPlace(7))
	assert.Equal(t, int64(1), j.Boarded())
	assert.Panics(t, func() { v.Get(99) })
}
