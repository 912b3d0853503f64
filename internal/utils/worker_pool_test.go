package utils_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gridlab/board-agent/internal/utils"
)

func TestWorkerPool_ExecutesSubmittedJobs(t *testing.T) {
	pool := utils.NewWorkerPool(2)

	var count atomic.Int32
	for i := 0; i < 5; i++ {
		queued := pool.Submit(func() { count.Add(1) }, nil)
		assert.True(t, queued)
	}

	pool.Shutdown()
	assert.Equal(t, int32(5), count.Load())
}

// TestWorkerPool_ShutdownWithBlockedSubmitter covers shutdown while far more
// jobs are queued than workers exist and every running job holds its worker
// until the stop signal, the way long-running board loops do. Shutdown must
// not close the queue under the still-blocked submitter.
func TestWorkerPool_ShutdownWithBlockedSubmitter(t *testing.T) {
	pool := utils.NewWorkerPool(1)
	stopCh := make(chan struct{})

	var started atomic.Int32
	var submitter sync.WaitGroup
	submitter.Add(1)
	go func() {
		defer submitter.Done()
		for i := 0; i < 8; i++ {
			queued := pool.Submit(func() {
				started.Add(1)
				<-stopCh
			}, stopCh)
			if !queued {
				return
			}
		}
	}()

	// Let the first job occupy the only worker and the submitter block on
	// the full queue.
	time.Sleep(50 * time.Millisecond)

	close(stopCh)
	submitter.Wait()
	pool.Shutdown()

	assert.GreaterOrEqual(t, started.Load(), int32(1))
}
