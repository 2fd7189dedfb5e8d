package engine

import (
	"context"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ironsheep/focus-narrator/internal/focus"
	"github.com/ironsheep/focus-narrator/internal/narration"
)

// Run drives the polling loop until ctx is done or Stop is called. Each
// tick drains the command queue, handles the commands in order and then
// runs one perception pass.
//
// A panic in the loop body ends Run: narration is silenced, every component
// closed and the panic returned as an error.
func (e *Engine) Run(ctx context.Context) error {
	if e.stopped.Load() {
		return ErrStopped
	}
	e.startOnce.Do(e.scheduler.Start)

	ticker := e.clock.Ticker(e.cfg.General.RefreshRate)
	defer ticker.Stop()

	e.logger.Infow("polling loop started", "refresh_rate", e.cfg.General.RefreshRate)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("polling loop cancelled")
			return nil
		case <-ticker.C:
		}
		if e.stopped.Load() {
			e.logger.Info("polling loop stopped")
			return nil
		}
		if err := e.Step(ctx); err != nil {
			e.logger.Errorw("polling loop failed", "error", err)
			if silenceErr := narration.Silence(e.sink); silenceErr != nil {
				e.logger.Debugw("silencing narration", "error", silenceErr)
			}
			return multierr.Append(err, e.Close())
		}
	}
}

// Step runs one loop iteration. Panics are returned as errors.
func (e *Engine) Step(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("polling loop panic: %v", p)
		}
	}()
	for _, cmd := range e.queue.Drain() {
		if ctx.Err() != nil {
			return nil
		}
		e.controller.HandleCommand(ctx, cmd)
	}
	e.controller.Tick(ctx)
	return nil
}

// Stop asks the polling loop to return after the current tick.
func (e *Engine) Stop() {
	e.stopped.Store(true)
}

// newHealthJob schedules the periodic health check. The job only enqueues
// a command so the cache is touched by the loop alone. The scheduler starts
// with Run.
func (e *Engine) newHealthJob() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return errors.Wrap(err, "failed to create scheduler")
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(e.cfg.Recovery.HealthInterval),
		gocron.NewTask(e.enqueueHealthCheck),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return multierr.Append(errors.Wrap(err, "failed to schedule health check"), scheduler.Shutdown())
	}
	e.scheduler = scheduler
	return nil
}

func (e *Engine) enqueueHealthCheck() {
	if !e.queue.Enqueue(focus.Command{Kind: focus.CmdHealthCheck}) {
		e.logger.Warn("command queue full, health check skipped")
	}
}

// Close stops the loop and releases every component. It is safe to call
// more than once.
func (e *Engine) Close() error {
	e.Stop()
	e.closeOnce.Do(func() {
		e.closeErr = e.closeComponents()
	})
	return e.closeErr
}

func (e *Engine) closeComponents() error {
	var err error
	if e.scheduler != nil {
		err = multierr.Append(err, errors.Wrap(e.scheduler.Shutdown(), "scheduler"))
	}
	if e.sink != nil {
		err = multierr.Append(err, errors.Wrap(e.sink.Close(), "narration"))
	}
	e.ocrMu.Lock()
	eng := e.ocrEngine
	e.ocrEngine = nil
	e.ocrMu.Unlock()
	if eng != nil {
		err = multierr.Append(err, errors.Wrap(eng.Close(), "ocr"))
	}
	e.cache.Reset()
	e.frames.Reset()
	return err
}
