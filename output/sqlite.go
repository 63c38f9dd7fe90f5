package output

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/person"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS trips (
	trip_id INTEGER NOT NULL,
	leg INTEGER NOT NULL,
	person_id INTEGER NOT NULL,
	household_id INTEGER NOT NULL,
	start_time INTEGER NOT NULL,
	end_time INTEGER NOT NULL,
	origin INTEGER NOT NULL,
	destination INTEGER NOT NULL,
	mode TEXT NOT NULL,
	distance REAL NOT NULL,
	activity_type TEXT NOT NULL,
	activity_number INTEGER NOT NULL,
	tour_start INTEGER NOT NULL,
	vehicle INTEGER NOT NULL,
	PRIMARY KEY (trip_id, leg)
);
CREATE INDEX IF NOT EXISTS idx_trips_person ON trips(person_id);
`

const insertTrip = `INSERT INTO trips (
	trip_id, leg, person_id, household_id, start_time, end_time, origin, destination,
	mode, distance, activity_type, activity_number, tour_start, vehicle
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteStore 出行记录SQLite输出
// 说明：每次Flush在一个事务中写入，时间为模拟周内的秒数
type SQLiteStore struct {
	person.ListenerBase

	path   string
	db     *sql.DB
	buffer rowBuffer
	count  int
}

// NewSQLiteStore 打开数据库并建表，已有的trips表会被清空
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create trips table: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM trips`); err != nil {
		db.Close()
		return nil, fmt.Errorf("clear trips table: %w", err)
	}
	return &SQLiteStore{path: path, db: db}, nil
}

func (s *SQLiteStore) NotifyEndTrip(p entity.IPerson, trip person.FinishedTrip) error {
	s.buffer.add(NewTripRow(p, trip))
	return nil
}

// Flush 在一个事务中写入缓冲的记录
func (s *SQLiteStore) Flush() error {
	rows := s.buffer.drain()
	if len(rows) == 0 {
		return nil
	}
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck
	stmt, err := tx.PrepareContext(ctx, insertTrip)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range rows {
		tourStart := 0
		if r.TourStart {
			tourStart = 1
		}
		if _, err := stmt.ExecContext(ctx,
			r.TripID, r.Leg, r.PersonID, r.HouseholdID, int64(r.Start), int64(r.End),
			int32(r.Origin), int32(r.Destination), r.Mode.String(), r.Distance,
			r.ActivityType.String(), r.ActivityNumber, tourStart, r.Vehicle,
		); err != nil {
			return fmt.Errorf("insert trip %d: %w", r.TripID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit trips: %w", err)
	}
	s.count += len(rows)
	return nil
}

func (s *SQLiteStore) NotifyFinishSimulation() error {
	if err := s.Flush(); err != nil {
		s.db.Close()
		return err
	}
	log.Infof("%d trips written to %s", s.count, s.path)
	return s.db.Close()
}
