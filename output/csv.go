package output

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/person"
)

// TripCSV 出行记录CSV输出
type TripCSV struct {
	person.ListenerBase

	path   string
	file   *os.File
	writer *csv.Writer
	buffer rowBuffer
	count  int
}

// NewTripCSV 创建CSV文件并写入表头
func NewTripCSV(path string) (*TripCSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create trips csv: %w", err)
	}
	o := &TripCSV{path: path, file: f, writer: csv.NewWriter(f)}
	if err := o.writer.Write(Header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write trips csv header: %w", err)
	}
	return o, nil
}

func (o *TripCSV) NotifyEndTrip(p entity.IPerson, trip person.FinishedTrip) error {
	o.buffer.add(NewTripRow(p, trip))
	return nil
}

// Flush 写出缓冲中的记录
func (o *TripCSV) Flush() error {
	for _, r := range o.buffer.drain() {
		if err := o.writer.Write(r.Record()); err != nil {
			return fmt.Errorf("write %s: %w", o.path, err)
		}
		o.count++
	}
	o.writer.Flush()
	return o.writer.Error()
}

func (o *TripCSV) NotifyFinishSimulation() error {
	if err := o.Flush(); err != nil {
		o.file.Close()
		return err
	}
	log.Infof("%d trips written to %s", o.count, o.path)
	return o.file.Close()
}
