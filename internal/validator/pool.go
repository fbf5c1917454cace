package validator

import (
	"context"
	"sync"

	"privacy-chat/internal/models"

	"go.uber.org/zap"
)

// Pool judges frames on a fixed number of worker goroutines so the
// CPU-bound provider calls never run on the goroutines serving
// connections. A connection submits one frame at a time and awaits its
// verdict, which preserves per-connection ordering; no ordering holds
// across connections.
type Pool struct {
	validator *Validator
	jobs      chan job
	size      int
	wg        sync.WaitGroup
	logger    *zap.Logger
}

type job struct {
	ctx    context.Context
	req    models.FrameJudgmentRequest
	result chan models.FrameVerdict
}

// NewPool creates a pool of size workers over the given validator.
func NewPool(v *Validator, size int, logger *zap.Logger) *Pool {
	if size <= 0 {
		size = 4
	}
	return &Pool{
		validator: v,
		jobs:      make(chan job),
		size:      size,
		logger:    logger,
	}
}

// Start launches the workers. They drain until ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.jobs:
			verdict := p.validator.Judge(j.ctx, j.req)
			select {
			case j.result <- verdict:
			case <-j.ctx.Done():
				// Submitter disconnected while the frame was being
				// judged; the result is discarded.
				p.logger.Debug("Discarding verdict for gone connection", zap.Int("worker", id))
			}
		}
	}
}

// Judge enqueues one frame and blocks until its verdict is ready or ctx
// is cancelled.
func (p *Pool) Judge(ctx context.Context, req models.FrameJudgmentRequest) (models.FrameVerdict, error) {
	j := job{ctx: ctx, req: req, result: make(chan models.FrameVerdict, 1)}
	select {
	case p.jobs <- j:
	case <-ctx.Done():
		return models.FrameVerdict{}, ctx.Err()
	}
	select {
	case verdict := <-j.result:
		return verdict, nil
	case <-ctx.Done():
		return models.FrameVerdict{}, ctx.Err()
	}
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}
