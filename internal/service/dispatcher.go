package service

import (
	"context"
	"errors"
	"sync"

	"apex-hub/internal/dto"
	"apex-hub/internal/model"
	"apex-hub/pkg/logger"
	"apex-hub/pkg/metrics"
	"apex-hub/pkg/utils"

	"golang.org/x/sync/errgroup"
)

var (
	ErrQueueFull         = errors.New("enrichment queue is full")
	ErrDispatcherStopped = errors.New("enrichment dispatcher is stopped")
)

// SignalProcessor runs the enrichment workflow for one accepted signal.
type SignalProcessor interface {
	Process(ctx context.Context, payload *dto.SignalPayload) (*model.Signal, error)
}

// Dispatcher runs accepted signals on a fixed pool of workers.
type Dispatcher interface {
	Enqueue(payload *dto.SignalPayload) error
	Start()
	Stop()
}

type dispatcher struct {
	log       *logger.Logger
	metrics   *metrics.Recorder
	processor SignalProcessor
	workers   int
	jobs      chan *dto.SignalPayload
	group     errgroup.Group

	mu      sync.RWMutex
	closed  bool
	started bool
}

func NewDispatcher(log *logger.Logger, recorder *metrics.Recorder, processor SignalProcessor, workers, queueSize int) Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &dispatcher{
		log:       log,
		metrics:   recorder,
		processor: processor,
		workers:   workers,
		jobs:      make(chan *dto.SignalPayload, queueSize),
	}
}

// Enqueue never blocks; it fails with ErrQueueFull when every slot is taken.
func (d *dispatcher) Enqueue(payload *dto.SignalPayload) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherStopped
	}

	select {
	case d.jobs <- payload:
		d.recordDepth()
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	d.log.Info("Starting enrichment workers", logger.IntField("workers", d.workers), logger.IntField("queue_size", cap(d.jobs)))
	for i := 0; i < d.workers; i++ {
		d.group.Go(func() error {
			for payload := range d.jobs {
				d.recordDepth()
				d.run(payload)
			}
			return nil
		})
	}
}

// Stop refuses new work and waits until queued and running jobs finish.
func (d *dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	started := d.started
	d.mu.Unlock()

	if !started {
		return
	}
	d.log.Info("Draining enrichment queue", logger.IntField("pending", len(d.jobs)))
	_ = d.group.Wait()
	d.log.Info("Enrichment workers stopped")
}

func (d *dispatcher) run(payload *dto.SignalPayload) {
	// runs are never cancelled once started
	err := utils.RunSafe(func() error {
		_, err := d.processor.Process(context.Background(), payload)
		return err
	})
	if err != nil {
		d.log.Error("Enrichment run failed",
			logger.StringField("asset", payload.Asset()),
			logger.ErrorField(err))
	}
}

func (d *dispatcher) recordDepth() {
	if d.metrics != nil {
		d.metrics.SetQueueDepth(len(d.jobs))
	}
}
