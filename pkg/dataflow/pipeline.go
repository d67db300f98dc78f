package dataflow

import (
	"context"
	"sync"
)

// Stream is a read-only channel of messages.
type Stream[T any] <-chan T

// From creates a stream from a slice of data.
func From[T any](ctx context.Context, items []T) Stream[T] {
	out := make(chan T, len(items))
	go func() {
		defer close(out)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case out <- item:
			}
		}
	}()
	return out
}

// New wraps an existing channel into a Stream.
func New[T any](c <-chan T) Stream[T] {
	return Stream[T](c)
}

// Map transforms the stream using the provided function.
// Supports parallelism via WithWorkers. Output order is not preserved when workers > 1.
// Items whose fn returns an error are dropped; the error is passed to the error handler, if any.
func Map[In, Out any](ctx context.Context, input Stream[In], fn func(context.Context, In) (Out, error), opts ...Option) Stream[Out] {
	cfg := newConfig(opts)

	out := make(chan Out, cfg.bufferSize)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-input:
				if !ok {
					return
				}

				res, err := fn(ctx, msg)
				if err != nil {
					if cfg.errorHandler != nil {
						cfg.errorHandler(err)
					}
					continue
				}

				select {
				case <-ctx.Done():
					return
				case out <- res:
				}
			}
		}
	}

	wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go worker()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// Filter keeps items where fn returns true.
func Filter[T any](ctx context.Context, input Stream[T], fn func(T) bool, opts ...Option) Stream[T] {
	return Map(ctx, input, func(_ context.Context, msg T) (T, error) {
		if fn(msg) {
			return msg, nil
		}
		var zero T
		return zero, errSkip
	}, append(opts, WithErrorHandler(func(error) bool { return true }))...)
}

// ForEach executes an action for every item in the stream.
// It blocks until the stream is exhausted or context cancelled, and returns the first unhandled error.
func ForEach[T any](ctx context.Context, input Stream[T], fn func(T) error, opts ...Option) error {
	cfg := newConfig(opts)

	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error

	worker := func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-input:
				if !ok {
					return
				}
				if err := fn(msg); err != nil {
					if cfg.errorHandler != nil && cfg.errorHandler(err) {
						continue
					}
					errOnce.Do(func() {
						firstErr = err
					})
				}
			}
		}
	}

	wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go worker()
	}

	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return firstErr
}

// Collect drains the stream into a slice. The result is never nil.
func Collect[T any](ctx context.Context, input Stream[T]) ([]T, error) {
	items := make([]T, 0)
	err := ForEach(ctx, input, func(msg T) error {
		items = append(items, msg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
