// Package shutdown intercepts external interruption and forces a final
// checkpoint flush before the process exits.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"liscraper/pkg/logger"
)

// FlushFunc persists in-memory progress. It must be safe to call from the
// signal goroutine while the collection loop is parked between iterations;
// the loop never runs concurrently with it because cancellation is observed
// only at iteration boundaries.
type FlushFunc func() error

// Coordinator owns the process's single interrupt handler. The handler runs
// at most once no matter how many signals arrive.
type Coordinator struct {
	once   sync.Once
	sigCh  chan os.Signal
	flush  FlushFunc
	logger logger.Logger

	// exit is swapped out in tests.
	exit func(code int)
}

// NewCoordinator creates a coordinator that calls flush on interruption.
func NewCoordinator(flush FlushFunc) *Coordinator {
	return &Coordinator{
		sigCh:  make(chan os.Signal, 1),
		flush:  flush,
		logger: logger.GetLogger(),
		exit:   os.Exit,
	}
}

// Register installs the interrupt handler and returns a context cancelled
// when a signal arrives. The loop observes the context between iterations;
// the handler itself saves the checkpoint and exits normally, so a run
// interrupted mid-sleep still persists its progress.
func (c *Coordinator) Register(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	signal.Notify(c.sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-c.sigCh:
			c.once.Do(func() {
				c.logger.WithField("signal", sig.String()).Warn("Interrupt received, saving checkpoint")
				if c.flush != nil {
					if err := c.flush(); err != nil {
						c.logger.WithError(err).Error("Final checkpoint save failed")
					}
				}
				cancel()
				// Graceful interruption is a normal exit.
				c.exit(0)
			})
		case <-parent.Done():
			cancel()
		}
	}()

	return ctx
}

// Trigger runs the handler inline, as if a signal had arrived. Used by tests
// and by fatal-error paths that want the same best-effort flush.
func (c *Coordinator) Trigger() {
	c.once.Do(func() {
		if c.flush != nil {
			if err := c.flush(); err != nil {
				c.logger.WithError(err).Error("Final checkpoint save failed")
			}
		}
	})
}

// Stop removes the signal handler after a completed run.
func (c *Coordinator) Stop() {
	signal.Stop(c.sigCh)
}
