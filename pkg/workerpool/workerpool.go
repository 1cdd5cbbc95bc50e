// Package workerpool provides simple concurrent processing utilities.
package workerpool

import (
	"context"
	"sync"
)

// Run invokes process for every item using at most workerCount goroutines and
// waits until every item has been handled. Items are never dropped: a canceled
// context is passed through to process, which decides how to react to it.
func Run[T any](
	ctx context.Context,
	workerCount int,
	items []T,
	process func(context.Context, T),
) {
	if workerCount <= 0 {
		workerCount = 1
	}
	if workerCount > len(items) {
		workerCount = len(items)
	}

	tasks := make(chan T, workerCount)
	wg := sync.WaitGroup{}
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range tasks {
				process(ctx, item)
			}
		}()
	}

	for _, item := range items {
		tasks <- item
	}
	close(tasks)

	wg.Wait()
}

// Range returns the inclusive sequence [from, to]. It returns nil when from > to.
func Range(from, to uint64) []uint64 {
	if from > to {
		return nil
	}
	items := make([]uint64, 0, to-from+1)
	for n := from; ; n++ {
		items = append(items, n)
		if n == to {
			break
		}
	}
	return items
}
