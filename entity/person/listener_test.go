package person_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/person"
)

type orderedListener struct {
	person.ListenerBase
	name  string
	calls *[]string
	err   error
}

func (l orderedListener) NotifyStateChanged(entity.IPerson, person.State, person.State, clock.Time) error {
	*l.calls = append(*l.calls, l.name)
	return l.err
}

func (l orderedListener) NotifyFinishSimulation() error {
	*l.calls = append(*l.calls, l.name)
	return nil
}

func TestBroadcaster(t *testing.T) {
	var calls []string
	errBroken := errors.New("broken")
	b := person.NewBroadcaster(
		orderedListener{name: "a", calls: &calls},
		orderedListener{name: "b", calls: &calls},
	)
	b.Add(orderedListener{name: "c", calls: &calls})
	assert.Equal(t, 3, b.Len())

	assert.NoError(t, b.NotifyFinishSimulation())
	assert.Equal(t, []string{"a", "b", "c"}, calls)

	// 遇到第一个错误即停止
	calls = nil
	b = person.NewBroadcaster(
		orderedListener{name: "a", calls: &calls},
		orderedListener{name: "b", calls: &calls, err: errBroken},
		orderedListener{name: "c", calls: &calls},
	)
	err := b.NotifyStateChanged(nil, person.StateExecuteActivity, person.StateOnTheWay, 0)
	assert.ErrorIs(t, err, errBroken)
	assert.Contains(t, err.Error(), "listener 1")
	assert.Contains(t, err.Error(), "NotifyStateChanged")
	assert.Equal(t, []string{"a", "b"}, calls)

	// 空实现不报错
	var base person.ListenerBase
	assert.NoError(t, base.NotifyEndTrip(nil, person.FinishedTrip{}))
	assert.NoError(t, person.NewBroadcaster().NotifyStartTrip(nil, person.StartedTrip{}))
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "wait_at_stop", person.StateWaitAtStop.String())
	assert.False(t, person.StateExecuteActivity.Instantaneous())
	assert.False(t, person.StateRiding.Instantaneous())
	assert.True(t, person.StateBoarding.Instantaneous())
	assert.True(t, person.StateSearchNewTrip.Instantaneous())
	assert.Equal(t, "park", person.VehiclePark.String())
	assert.Equal(t, "parked", person.CarParked.String())
}
