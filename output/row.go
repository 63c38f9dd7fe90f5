package output

import (
	"slices"
	"strconv"
	"sync"

	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/person"
)

// TripRow 一条已完成出行的输出记录
type TripRow struct {
	TripID         int64
	Leg            int32
	PersonID       int32
	HouseholdID    int32
	Start          clock.Time
	End            clock.Time
	Origin         entity.ZoneID
	Destination    entity.ZoneID
	Mode           entity.Mode
	Distance       float64 // 米
	ActivityType   entity.ActivityType
	ActivityNumber int32
	TourStart      bool
	Vehicle        int32 // 无车辆为-1
}

// NewTripRow 由出行结束通知构造输出记录
func NewTripRow(p entity.IPerson, trip person.FinishedTrip) TripRow {
	return TripRow{
		TripID:         trip.ID(),
		Leg:            trip.FinalLeg,
		PersonID:       p.ID(),
		HouseholdID:    p.HouseholdID(),
		Start:          trip.Start,
		End:            trip.End,
		Origin:         trip.Origin().Zone,
		Destination:    trip.Destination().Zone,
		Mode:           trip.Mode(),
		Distance:       trip.Distance,
		ActivityType:   trip.Next().ActivityType(),
		ActivityNumber: trip.Next().Number(),
		TourStart:      trip.TourStart(),
		Vehicle:        trip.Vehicle.OrElse(-1),
	}
}

// Header CSV表头，与Record的列一一对应
var Header = []string{
	"trip_id", "leg", "person_id", "household_id",
	"start_day", "start_time", "end_day", "end_time",
	"origin", "destination", "mode", "distance",
	"activity_type", "activity_number", "tour_start", "vehicle",
}

// Record 转换为CSV列，时间为当天的秒数
func (r TripRow) Record() []string {
	return []string{
		strconv.FormatInt(r.TripID, 10),
		strconv.FormatInt(int64(r.Leg), 10),
		strconv.FormatInt(int64(r.PersonID), 10),
		strconv.FormatInt(int64(r.HouseholdID), 10),
		strconv.FormatInt(int64(r.Start.Day()), 10),
		strconv.FormatInt(int64(r.Start.SecondOfDay()), 10),
		strconv.FormatInt(int64(r.End.Day()), 10),
		strconv.FormatInt(int64(r.End.SecondOfDay()), 10),
		strconv.FormatInt(int64(r.Origin), 10),
		strconv.FormatInt(int64(r.Destination), 10),
		r.Mode.String(),
		strconv.FormatFloat(r.Distance, 'f', 1, 64),
		r.ActivityType.String(),
		strconv.FormatInt(int64(r.ActivityNumber), 10),
		strconv.FormatBool(r.TourStart),
		strconv.FormatInt(int64(r.Vehicle), 10),
	}
}

func compareRows(a, b TripRow) int {
	if a.End != b.End {
		if a.End < b.End {
			return -1
		}
		return 1
	}
	if a.PersonID != b.PersonID {
		return int(a.PersonID) - int(b.PersonID)
	}
	if a.TripID != b.TripID {
		if a.TripID < b.TripID {
			return -1
		}
		return 1
	}
	return int(a.Leg) - int(b.Leg)
}

// rowBuffer 多分片并发写入的出行记录缓冲
// 说明：分片调度顺序不确定，drain时按(结束时间, 人员, 出行)排序，保证输出与线程数无关
type rowBuffer struct {
	mu   sync.Mutex
	rows []TripRow
}

func (b *rowBuffer) add(r TripRow) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows = append(b.rows, r)
}

func (b *rowBuffer) drain() []TripRow {
	b.mu.Lock()
	rows := b.rows
	b.rows = nil
	b.mu.Unlock()
	slices.SortFunc(rows, compareRows)
	return rows
}

// IOutput 带缓冲的输出，在每个时间片的屏障处刷新
type IOutput interface {
	person.IListener
	Flush() error
}
