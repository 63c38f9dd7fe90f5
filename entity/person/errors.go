package person

import (
	"errors"
	"fmt"

	"github.com/tsinghua-fib-lab/demandsim/clock"
)

// 状态机不变量错误
// 说明：出现即表示调度或状态机实现有误，不可恢复
var (
	ErrInvalidCarUsage         = errors.New("invalid car usage transition")
	ErrInvalidBikeUsage        = errors.New("invalid bike usage transition")
	ErrWrongPerson             = errors.New("event belongs to another person")
	ErrFutureEvent             = errors.New("event time is after current time")
	ErrNoNextActivity          = errors.New("trip has no next activity")
	ErrNoTrip                  = errors.New("no current trip")
	ErrMissingFixedDestination = errors.New("missing fixed destination")
	ErrModeNotAvailable        = errors.New("mode not in choice set")
	ErrTooManyTransitions      = errors.New("too many same-instant state transitions")
	ErrNoVehicle               = errors.New("vehicle for chosen mode not available")
)

// InvariantError 带上下文的致命错误，以panic的形式抛出
type InvariantError struct {
	Person int32
	Time   clock.Time
	State  State
	Err    error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("person %d at %v in state %v: %v", e.Person, e.Time, e.State, e.Err)
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}

// fail 以当前上下文抛出致命错误
func (p *Person) fail(t clock.Time, err error) {
	ie := &InvariantError{Person: p.id, Time: t, State: p.state, Err: err}
	log.Error(ie.Error())
	panic(ie)
}

// must err非空时抛出致命错误
func (p *Person) must(t clock.Time, err error) {
	if err != nil {
		p.fail(t, err)
	}
}
