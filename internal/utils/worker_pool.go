package utils

import (
	"sync"
)

// Job represents a task to be executed by a worker.
type Job struct {
	Task func()
}

// WorkerPool manages a pool of workers to execute jobs. The boardsim command
// uses it to cap how many simulated board loops run concurrently.
type WorkerPool struct {
	workers   int
	jobQueue  chan Job
	waitGroup sync.WaitGroup
}

// NewWorkerPool creates a new WorkerPool with the specified number of workers.
func NewWorkerPool(workers int) *WorkerPool {
	pool := &WorkerPool{
		workers:  workers,
		jobQueue: make(chan Job, workers),
	}

	pool.waitGroup.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.worker()
	}

	return pool
}

// worker processes jobs from the jobQueue.
func (wp *WorkerPool) worker() {
	defer wp.waitGroup.Done()
	for job := range wp.jobQueue {
		job.Task()
	}
}

// Submit adds a new job to the worker pool. It blocks while the queue is
// full; if stop closes first the job is dropped and false is returned, so a
// caller draining toward Shutdown never sends on the closed queue. A nil
// stop channel makes Submit block until the job is queued.
func (wp *WorkerPool) Submit(task func(), stop <-chan struct{}) bool {
	select {
	case wp.jobQueue <- Job{Task: task}:
		return true
	case <-stop:
		return false
	}
}

// Shutdown waits for all workers to finish and then closes the worker pool.
func (wp *WorkerPool) Shutdown() {
	close(wp.jobQueue)
	wp.waitGroup.Wait()
}
