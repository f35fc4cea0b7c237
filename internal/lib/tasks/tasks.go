package tasks

import (
	"context"
	"log/slog"
	"sync"
)

type Task = func()

// Pool runs fire-and-forget work (watchlist stats refreshes and the
// like) off the caller's path on a fixed set of workers.
type Pool struct {
	log     *slog.Logger
	tasks   chan Task
	workers int
	wg      *sync.WaitGroup
}

func New(log *slog.Logger, workers int, queueSize int) *Pool {
	wg := &sync.WaitGroup{}
	wg.Add(workers)
	return &Pool{
		log:     log,
		workers: workers,
		wg:      wg,
		tasks:   make(chan Task, queueSize),
	}
}

func (p *Pool) Run() {
	for i := 0; i < p.workers; i++ {
		go func() {
			log := p.log.With("worker", i)
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic", "err", err)
				}
				p.wg.Done()
			}()
			for task := range p.tasks {
				task()
			}
		}()
	}
}

func (p *Pool) Add(task Task) {
	p.tasks <- task
}

func (p *Pool) IsEmpty() bool {
	return len(p.tasks) == 0
}

func (p *Pool) Shutdown(ctx context.Context) error {
	const op = "tasks.Pool.Shutdown"
	log := p.log.With("op", op)
	log.Info("shutting down background tasks")
	close(p.tasks)
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		log.Warn("graceful shutdown timed out.. forcing exit", "timeout", ctx.Err())
		return ctx.Err()
	case <-done:
		log.Info("background tasks successfully stopped")
		return nil
	}
}
