package models

// Result holds either a generated record or the error explaining its absence.
type Result[T any] struct {
	value T
	err   *GenerationError
	ok    bool
}

func Ok[T any](value T) Result[T] {
	return Result[T]{value: value, ok: true}
}

func Fail[T any](err *GenerationError) Result[T] {
	return Result[T]{err: err}
}

func (r Result[T]) Get() (T, bool) {
	return r.value, r.ok
}

func (r Result[T]) IsOk() bool {
	return r.ok
}

// Err is nil on success.
func (r Result[T]) Err() *GenerationError {
	return r.err
}
