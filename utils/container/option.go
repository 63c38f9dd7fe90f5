package container

import "fmt"

// Option 可选值，区分“尚未赋值”与“已赋值”
type Option[T any] struct {
	value T
	ok    bool
}

// Some 构造已赋值的Option
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, ok: true}
}

// None 构造未赋值的Option
func None[T any]() Option[T] {
	return Option[T]{}
}

// IsSome 是否已赋值
func (o Option[T]) IsSome() bool {
	return o.ok
}

// Get 获取值与是否已赋值
func (o Option[T]) Get() (T, bool) {
	return o.value, o.ok
}

// MustGet 获取值，未赋值时panic
func (o Option[T]) MustGet() T {
	if !o.ok {
		panic(fmt.Sprintf("container: MustGet on empty Option[%T]", o.value))
	}
	return o.value
}

// OrElse 获取值，未赋值时返回默认值
func (o Option[T]) OrElse(v T) T {
	if o.ok {
		return o.value
	}
	return v
}
