package pool

import (
	"sync"

	"github.com/blobbench/blobbench/internal/common/benchcontext"
	"github.com/blobbench/blobbench/internal/common/util"
)

// ProcessItemsWithThreadPool processes all items using a fixed pool of at most
// maxThreadCount goroutines fed from an unbuffered channel. It blocks until every
// item has been consumed. Once ctx is done, remaining items are drained without
// being processed, so a cancelled run stops issuing new network calls while
// letting in-flight ones finish.
func ProcessItemsWithThreadPool[K any](ctx *benchcontext.Context, maxThreadCount int, itemsToProcess []K, processFunc func(K)) {
	wg := &sync.WaitGroup{}
	processChannel := make(chan K)

	for i := 0; i < util.Min(len(itemsToProcess), maxThreadCount); i++ {
		wg.Add(1)
		go poolWorker(ctx, wg, processChannel, processFunc)
	}

	for _, item := range itemsToProcess {
		processChannel <- item
	}
	close(processChannel)
	wg.Wait()
}

func poolWorker[K any](ctx *benchcontext.Context, wg *sync.WaitGroup, itemsToProcess chan K, processFunc func(K)) {
	defer wg.Done()

	for item := range itemsToProcess {
		if ctx.Err() != nil {
			// Skip processing once context is finished
			continue
		}
		processFunc(item)
	}
}
