package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity/event"
	"github.com/tsinghua-fib-lab/demandsim/utils/randengine"
)

func TestQueueOrdering(t *testing.T) {
	q := event.NewQueue(0)
	q.Add(event.Event{Time: 20, Person: 1})
	q.Add(event.Event{Time: 10, Person: 2})
	q.Add(event.Event{Time: 10, Person: 3})
	q.Add(event.Event{Time: 10, Person: 1})

	assert.False(t, q.HasNextUntil(9))
	assert.True(t, q.HasNextUntil(10))
	persons := []int32{}
	for q.HasNextUntil(10) {
		persons = append(persons, q.Next().Person)
	}
	assert.Equal(t, []int32{2, 3, 1}, persons)
	assert.Equal(t, clock.Time(10), q.Now())
	assert.Equal(t, 1, q.Len())
}

func TestQueueRejectsTimeTravel(t *testing.T) {
	q := event.NewQueue(0)
	q.Add(event.Event{Time: 50})
	q.Next()
	// 同一时刻允许
	q.Add(event.Event{Time: 50})
	assert.Panics(t, func() { q.Add(event.Event{Time: 49}) })
}

func TestQueueEmptyNext(t *testing.T) {
	q := event.NewQueue(0)
	assert.False(t, q.HasNextUntil(clock.Week))
	assert.Panics(t, func() { q.Next() })
}

// 随机插入：时间严格递增，同一时间按插入顺序
func TestQueueOrderingProperty(t *testing.T) {
	r := randengine.New(99)
	q := event.NewQueue(0)
	for i := range 5000 {
		q.Add(event.Event{Time: clock.Time(r.Intn(100)), Person: int32(i)})
	}
	last := event.Event{Time: -1, Person: -1}
	for q.HasNextUntil(clock.Day) {
		e := q.Next()
		if e.Time == last.Time {
			assert.Greater(t, e.Person, last.Person)
		} else {
			assert.Greater(t, e.Time, last.Time)
		}
		last = e
	}
	assert.Equal(t, 0, q.Len())
}
