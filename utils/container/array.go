package container

import (
	"sync"
)

// IIncrementalItem 支持增量更新的元素接口
// 说明：元素自行记录在数组中的下标，-1表示不在数组中
type IIncrementalItem interface {
	Index() int
	SetIndex(index int)
}

// IncrementalItemBase 增量元素基类，可作为嵌入字段
type IncrementalItemBase struct {
	index int
}

// Index 获取元素的下标
func (b *IncrementalItemBase) Index() int {
	return b.index
}

// SetIndex 设置元素的下标
func (b *IncrementalItemBase) SetIndex(index int) {
	b.index = index
}

// IncrementalArray 增量数组
// 功能：并发地登记添加与删除，在Prepare时统一生效
// 说明：两次Prepare之间Data()的内容保持不变，可以被多个协程并发读取
type IncrementalArray[T IIncrementalItem] struct {
	data   []T
	add    []T
	remove []T
	mtx    sync.Mutex
}

// NewIncrementalArray 创建增量数组
func NewIncrementalArray[T IIncrementalItem]() *IncrementalArray[T] {
	return &IncrementalArray[T]{
		data:   make([]T, 0),
		add:    make([]T, 0),
		remove: make([]T, 0),
	}
}

// Len 当前已生效的元素数
func (a *IncrementalArray[T]) Len() int {
	return len(a.data)
}

// Data 当前已生效的元素
func (a *IncrementalArray[T]) Data() []T {
	return a.data
}

// Add 登记添加（Prepare时生效）
func (a *IncrementalArray[T]) Add(value T) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.add = append(a.add, value)
}

// Remove 登记删除（Prepare时生效）
// 说明：删除尚未生效的元素时直接撤销其添加
func (a *IncrementalArray[T]) Remove(value T) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.remove = append(a.remove, value)
}

// Prepare 执行增量操作
// 算法说明：
// 1. 新元素追加到末尾，保持登记顺序
// 2. 被删除元素标记下标为-1，然后压缩数组，剩余元素保持相对顺序
// 3. 重新编号所有元素的下标
func (a *IncrementalArray[T]) Prepare() {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if len(a.add) == 0 && len(a.remove) == 0 {
		return
	}
	for _, x := range a.add {
		x.SetIndex(len(a.data))
		a.data = append(a.data, x)
	}
	for _, x := range a.remove {
		if i := x.Index(); i >= 0 && i < len(a.data) {
			x.SetIndex(-1)
		}
	}
	kept := a.data[:0]
	for _, x := range a.data {
		if x.Index() >= 0 {
			x.SetIndex(len(kept))
			kept = append(kept, x)
		}
	}
	clear(a.data[len(kept):])
	a.data = kept
	a.add = a.add[:0]
	a.remove = a.remove[:0]
}
