package clock

import "fmt"

// Time 仿真时间，单位为秒，0为模拟周的周一00:00
type Time int64

const (
	Second Time = 1
	Minute      = 60 * Second
	Hour        = 60 * Minute
	Day         = 24 * Hour
	Week        = 7 * Day
)

// Day 所在天的编号（0为周一）
func (t Time) Day() int32 {
	return int32(t / Day)
}

// StartOfDay 所在天的00:00
func (t Time) StartOfDay() Time {
	return t - t%Day
}

// SecondOfDay 距所在天00:00的秒数
func (t Time) SecondOfDay() Time {
	return t % Day
}

// Minutes 转换为分钟数（向下取整）
func (t Time) Minutes() int64 {
	return int64(t / Minute)
}

// Plus 加上一段时长
func (t Time) Plus(d Time) Time {
	return t + d
}

// String 格式化为 D{day} HH:MM:SS
func (t Time) String() string {
	sod := t.SecondOfDay()
	h := sod / Hour
	m := sod % Hour / Minute
	s := sod % Minute
	return fmt.Sprintf("D%d %02d:%02d:%02d", t.Day(), h, m, s)
}
