package systems

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/spaghettifunk/ultraviolet/engine/core"
)

/** Entry point of a job. Runs on a worker goroutine. */
type JobStart func(ctx context.Context, params interface{}) (interface{}, error)

/** Continuation of a successful job. Runs on the main thread. */
type JobOnComplete func(result interface{})

/** Continuation of a failed job. Runs on the main thread. */
type JobOnFailure func(err error)

/**
 * @brief Describes a job to be run.
 */
type JobTask struct {
	/** @brief Assigned on submission. */
	ID uuid.UUID
	/** @brief Data passed to the entry point. */
	InputParams interface{}
	/** @brief Invoked on a worker when the job starts. Required. */
	OnStart JobStart
	/** @brief Invoked on the main thread when the job succeeds. Optional. */
	OnComplete JobOnComplete
	/** @brief Invoked on the main thread when the job fails. Optional. */
	OnFailure JobOnFailure
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")
var ErrNoMainThreadQueue = fmt.Errorf("attempting to create worker pool without a main thread work queue")
var ErrJobSystemShutdown = errors.New("job system is shut down")
var ErrJobQueueFull = errors.New("job queue is full")
var ErrMissingEntryPoint = errors.New("job has no entry point")

// JobSystem runs jobs on a pool of worker goroutines and hands their
// results back to the main thread through a work queue, so continuations
// never race with update or draw.
type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	mainThread *core.WorkQueue
	wg         sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	shutdown bool
}

func NewJobSystem(numWorkers int, channelSize int, mainThread *core.WorkQueue) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}
	if mainThread == nil {
		return nil, ErrNoMainThreadQueue
	}

	ctx, cancel := context.WithCancel(context.Background())
	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
		mainThread: mainThread,
		ctx:        ctx,
		cancel:     cancel,
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job JobTask) {
	result, err := job.OnStart(js.ctx, job.InputParams)

	var continuation core.WorkItem
	if err != nil {
		core.LogError("job %s failed: %s", job.ID, err)
		if job.OnFailure != nil {
			continuation = func() error {
				job.OnFailure(err)
				return nil
			}
		}
	} else if job.OnComplete != nil {
		continuation = func() error {
			job.OnComplete(result)
			return nil
		}
	}
	if continuation == nil {
		return
	}
	if postErr := js.mainThread.Post(continuation); postErr != nil {
		core.LogWarn("dropping continuation of job %s: %s", job.ID, postErr)
	}
}

/**
 * @brief Shuts the job system down. The job context is cancelled first, so
 * running jobs are asked to stop and jobs still queued start with an already
 * cancelled context. Blocks until every worker has exited.
 */
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.shutdown {
		js.mu.Unlock()
		return nil
	}
	js.shutdown = true
	close(js.jobQueue)
	js.mu.Unlock()

	js.cancel()
	js.wg.Wait()
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while the
 * queue is full. The main thread must use TrySubmit instead when jobs call
 * Engine.Send: a worker waiting on the main thread never frees a queue slot.
 * @returns The ID assigned to the job.
 */
func (js *JobSystem) Submit(jt JobTask) (uuid.UUID, error) {
	return js.submit(jt, true)
}

// TrySubmit is Submit without blocking; it fails with ErrJobQueueFull instead.
// Safe to call from the main thread.
func (js *JobSystem) TrySubmit(jt JobTask) (uuid.UUID, error) {
	return js.submit(jt, false)
}

func (js *JobSystem) submit(jt JobTask, block bool) (uuid.UUID, error) {
	if jt.OnStart == nil {
		return uuid.Nil, ErrMissingEntryPoint
	}
	jt.ID = uuid.New()

	// the read lock keeps Shutdown from closing the channel under a send
	js.mu.RLock()
	defer js.mu.RUnlock()
	if js.shutdown {
		return uuid.Nil, ErrJobSystemShutdown
	}
	if block {
		js.jobQueue <- jt
		return jt.ID, nil
	}
	select {
	case js.jobQueue <- jt:
		return jt.ID, nil
	default:
		return uuid.Nil, ErrJobQueueFull
	}
}
