package executor

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

const (
	minimumPoolCapacityConstant    = 1
	panicRecoveredTemplateConstant = "operation panicked: %v"
)

// PanicError reports a panic recovered while a pool slot was held.
type PanicError struct {
	Value any
}

// Error describes the recovered panic.
func (panicError PanicError) Error() string {
	return fmt.Sprintf(panicRecoveredTemplateConstant, panicError.Value)
}

// Pool bounds the number of operations running at the same time.
type Pool struct {
	slots    *semaphore.Weighted
	capacity int
}

// NewPool constructs a pool with the given number of slots; values below one are raised to one.
func NewPool(capacity int) *Pool {
	if capacity < minimumPoolCapacityConstant {
		capacity = minimumPoolCapacityConstant
	}
	return &Pool{slots: semaphore.NewWeighted(int64(capacity)), capacity: capacity}
}

// Capacity returns the number of slots.
func (pool *Pool) Capacity() int {
	return pool.capacity
}

// Do waits for a free slot, runs operation and releases the slot on every exit path.
// A panic inside operation is converted into a PanicError.
func (pool *Pool) Do(executionContext context.Context, operation func() error) (operationError error) {
	if acquireError := pool.slots.Acquire(executionContext, 1); acquireError != nil {
		return acquireError
	}
	defer pool.slots.Release(1)
	defer func() {
		if recovered := recover(); recovered != nil {
			operationError = PanicError{Value: recovered}
		}
	}()
	return operation()
}

// ForEach launches operation for every item and waits for all of them; at most Capacity run at once.
func ForEach[Item any](executionContext context.Context, pool *Pool, items []Item, operation func(executionContext context.Context, index int, item Item) error) []error {
	operationErrors := make([]error, len(items))
	var waitGroup sync.WaitGroup
	for itemIndex, item := range items {
		waitGroup.Add(1)
		go func(itemIndex int, item Item) {
			defer waitGroup.Done()
			operationErrors[itemIndex] = pool.Do(executionContext, func() error {
				return operation(executionContext, itemIndex, item)
			})
		}(itemIndex, item)
	}
	waitGroup.Wait()
	return operationErrors
}
