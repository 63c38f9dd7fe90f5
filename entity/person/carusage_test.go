package person_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/demandsim/entity/person"
	"github.com/tsinghua-fib-lab/demandsim/entity/vehicle"
	"github.com/tsinghua-fib-lab/demandsim/utils/randengine"
)

func TestCarHolderTransitions(t *testing.T) {
	c := vehicle.NewPrivateCar(1, 1, 4)
	driver := person.NewCarHolder(1)
	rider := person.NewCarHolder(2)

	assert.ErrorIs(t, driver.ParkCar(), person.ErrInvalidCarUsage)
	assert.ErrorIs(t, driver.TakeCarFromParking(), person.ErrInvalidCarUsage)
	_, err := driver.ReleaseCar()
	assert.ErrorIs(t, err, person.ErrInvalidCarUsage)

	// 没有司机的车不能搭乘，状态不变
	assert.ErrorIs(t, rider.UseCarAsPassenger(c), vehicle.ErrNoDriver)
	assert.Equal(t, person.CarNone, rider.Usage())

	require.NoError(t, driver.UseCar(c))
	assert.Equal(t, person.CarDriver, driver.Usage())
	assert.ErrorIs(t, driver.UseCar(c), person.ErrInvalidCarUsage)
	require.NoError(t, rider.UseCarAsPassenger(c))
	assert.Equal(t, person.CarPassenger, rider.Usage())
	assert.ErrorIs(t, rider.ParkCar(), person.ErrInvalidCarUsage)

	// 有乘客时不能还车
	_, err = driver.ReleaseCar()
	assert.ErrorIs(t, err, vehicle.ErrPassengersOn)
	assert.Equal(t, person.CarDriver, driver.Usage())

	left, err := rider.ReleaseCar()
	require.NoError(t, err)
	assert.Same(t, c, left)
	assert.Equal(t, person.CarNone, rider.Usage())

	require.NoError(t, driver.ParkCar())
	assert.Equal(t, person.CarParked, driver.Usage())
	parked, ok := driver.Car()
	require.True(t, ok)
	assert.Same(t, c, parked)
	require.NoError(t, driver.TakeCarFromParking())
	released, err := driver.ReleaseCar()
	require.NoError(t, err)
	assert.Same(t, c, released)
	_, ok = driver.Car()
	assert.False(t, ok)
	assert.False(t, c.InUse())
}

// 随机操作序列：任何时刻，司机或停车状态的持有者必须是车辆登记的司机，乘客状态的持有者所在车辆必有司机
func TestCarHolderExclusivityProperty(t *testing.T) {
	r := randengine.New(7)
	for range 100 {
		cars := []*vehicle.Car{vehicle.NewPrivateCar(1, 1, 3), vehicle.NewPrivateCar(2, 1, 2)}
		holders := []*person.CarHolder{}
		for id := range 4 {
			holders = append(holders, person.NewCarHolder(int32(id)))
		}
		for range 200 {
			h := holders[r.Intn(len(holders))]
			c := cars[r.Intn(len(cars))]
			before := h.Usage()
			switch r.Intn(5) {
			case 0:
				err := h.UseCar(c)
				switch {
				case before != person.CarNone:
					assert.ErrorIs(t, err, person.ErrInvalidCarUsage)
				case err == nil:
					assert.Equal(t, person.CarDriver, h.Usage())
				default:
					assert.ErrorIs(t, err, vehicle.ErrCarInUse)
				}
			case 1:
				err := h.UseCarAsPassenger(c)
				if before != person.CarNone {
					assert.ErrorIs(t, err, person.ErrInvalidCarUsage)
				} else if err == nil {
					assert.Equal(t, person.CarPassenger, h.Usage())
				}
			case 2:
				err := h.ParkCar()
				if before == person.CarDriver {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, person.ErrInvalidCarUsage)
				}
			case 3:
				err := h.TakeCarFromParking()
				if before == person.CarParked {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, person.ErrInvalidCarUsage)
				}
			case 4:
				held, _ := h.Car()
				_, err := h.ReleaseCar()
				switch before {
				case person.CarNone, person.CarParked:
					assert.ErrorIs(t, err, person.ErrInvalidCarUsage)
				case person.CarPassenger:
					assert.NoError(t, err)
				case person.CarDriver:
					if err != nil {
						assert.ErrorIs(t, err, vehicle.ErrPassengersOn)
						assert.Positive(t, held.Passengers())
					}
				}
			}
			for id, h := range holders {
				c, ok := h.Car()
				switch h.Usage() {
				case person.CarNone:
					assert.False(t, ok)
				case person.CarDriver, person.CarParked:
					require.True(t, ok)
					d, hasDriver := c.Driver()
					assert.True(t, hasDriver)
					assert.Equal(t, int32(id), d)
				case person.CarPassenger:
					require.True(t, ok)
					_, hasDriver := c.Driver()
					assert.True(t, hasDriver)
					assert.Positive(t, c.Passengers())
				}
			}
		}
	}
}

func TestBikeHolder(t *testing.T) {
	b := vehicle.NewBike(3)
	h := person.NewBikeHolder(3)
	other := person.NewBikeHolder(4)
	assert.ErrorIs(t, h.ParkBike(), person.ErrInvalidBikeUsage)
	require.NoError(t, h.UseBike(b))
	assert.Error(t, other.UseBike(b))
	assert.Equal(t, person.BikeNone, other.Usage())
	require.NoError(t, h.ParkBike())
	_, err := h.ReleaseBike()
	assert.ErrorIs(t, err, person.ErrInvalidBikeUsage)
	require.NoError(t, h.TakeBikeFromParking())
	released, err := h.ReleaseBike()
	require.NoError(t, err)
	assert.Same(t, b, released)
	assert.False(t, b.InUse())
	assert.Equal(t, person.BikeNone, h.Usage())
}
