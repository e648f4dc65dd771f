package service

import "sync"

// future is a single-assignment result. The first resolve wins; later calls
// are no-ops, so whoever resolves first decides the outcome.
type future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *future[T] {
	return &future[T]{done: make(chan struct{})}
}

// resolve reports whether this call set the result.
func (f *future[T]) resolve(val T, err error) bool {
	won := false
	f.once.Do(func() {
		f.val, f.err = val, err
		close(f.done)
		won = true
	})
	return won
}

func (f *future[T]) Done() <-chan struct{} {
	return f.done
}

// result must only be called after Done is closed.
func (f *future[T]) result() (T, error) {
	return f.val, f.err
}
