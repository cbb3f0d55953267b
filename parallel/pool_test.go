package parallel

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"
)

func TestPoolRunsEveryTask(t *testing.T) {
	for _, workers := range []int{1, 2, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			pool := Start(workers)

			var count atomic.Int64
			for range 100 {
				pool.Go(func() error {
					count.Add(1)
					return nil
				})
			}

			if err := pool.Wait(); err != nil {
				t.Fatal(err)
			}
			if got := count.Load(); got != 100 {
				t.Errorf("ran %d tasks, want 100", got)
			}
		})
	}
}

func TestPoolJoinsErrors(t *testing.T) {
	errOdd := errors.New("odd")
	pool := Start(4)

	for i := range 10 {
		pool.Go(func() error {
			if i%2 == 1 {
				return fmt.Errorf("task %d: %w", i, errOdd)
			}
			return nil
		})
	}

	err := pool.Wait()
	if !errors.Is(err, errOdd) {
		t.Fatalf("Wait error = %v, want %v", err, errOdd)
	}
	if joined, ok := err.(interface{ Unwrap() []error }); !ok || len(joined.Unwrap()) != 5 {
		t.Errorf("Wait error = %v, want 5 joined errors", err)
	}
}

func TestPoolSingleWorkerRunsInline(t *testing.T) {
	pool := Start(1)

	var order []int
	for i := range 5 {
		pool.Go(func() error {
			order = append(order, i)
			return nil
		})
		if len(order) != i+1 {
			t.Fatalf("task %d did not run inline", i)
		}
	}

	if err := pool.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestPoolDefaultWorkers(t *testing.T) {
	pool := Start(0)
	defer func() { _ = pool.Wait() }()

	if got, want := pool.Workers(), runtime.GOMAXPROCS(0); got != want {
		t.Errorf("Workers() = %d, want %d", got, want)
	}
}

func TestPoolWaitTwice(t *testing.T) {
	pool := Start(3)
	pool.Go(func() error { return nil })

	if err := pool.Wait(); err != nil {
		t.Fatal(err)
	}
	if err := pool.Wait(); err != nil {
		t.Fatal(err)
	}
}
