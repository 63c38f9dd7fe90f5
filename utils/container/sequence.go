package container

import "sync/atomic"

// Sequence ID序列生成器
// 功能：生成单调递增的ID，生命周期与一次模拟运行相同
// 说明：并发安全；由构造方显式传入使用方，不使用全局计数器
type Sequence struct {
	next atomic.Int64
}

// NewSequence 创建从start开始的序列
func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.next.Store(start)
	return s
}

// Next 返回下一个ID
func (s *Sequence) Next() int64 {
	return s.next.Add(1) - 1
}
