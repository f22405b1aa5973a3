package pool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/blobbench/blobbench/internal/common/benchcontext"
)

func TestProcessItemsWithThreadPool(t *testing.T) {
	input := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}
	output := []string{}
	outputMutex := &sync.Mutex{}

	ProcessItemsWithThreadPool(benchcontext.Background(), 2, input, func(item string) {
		outputMutex.Lock()
		defer outputMutex.Unlock()
		output = append(output, item)
	})

	assert.Len(t, output, len(input))
}

func TestProcessItemsWithThreadPool_BoundsConcurrency(t *testing.T) {
	input := make([]int, 50)
	var active, maxActive int64

	ProcessItemsWithThreadPool(benchcontext.Background(), 3, input, func(int) {
		n := atomic.AddInt64(&active, 1)
		for {
			prev := atomic.LoadInt64(&maxActive)
			if n <= prev || atomic.CompareAndSwapInt64(&maxActive, prev, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt64(&active, -1)
	})

	assert.LessOrEqual(t, atomic.LoadInt64(&maxActive), int64(3))
}

func TestProcessItemsWithThreadPool_HandlesContextCancellation(t *testing.T) {
	input := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}
	output := []string{}
	outputMutex := &sync.Mutex{}

	ctx, cancel := benchcontext.WithTimeout(benchcontext.Background(), time.Millisecond*100)
	defer cancel()

	ProcessItemsWithThreadPool(ctx, 2, input, func(item string) {
		time.Sleep(time.Millisecond * 70)
		outputMutex.Lock()
		defer outputMutex.Unlock()
		output = append(output, item)
	})

	// We process 2 items at a time, the context will timeout during the second call to the func
	assert.Len(t, output, 4)
}
