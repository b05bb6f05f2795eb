// Copyright (c) 2025-present deep.rent GmbH (https://deep.rent)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package app runs an application on top of a di.Container. It starts the
// container, executes one or more Runnables, handles OS interrupt signals
// (SIGINT, SIGTERM) by canceling their context, and stops the container
// once everything has returned.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deep-rent/beans/di"
)

// DefaultTimeout bounds the graceful shutdown after a termination signal.
const DefaultTimeout = 10 * time.Second

// Runnable is the body of an application. Its context is canceled on
// shutdown, after which it should clean up and return.
type Runnable func(ctx context.Context) error

type config struct {
	logger  *slog.Logger
	timeout time.Duration
	signals []os.Signal
	ctx     context.Context
	lazy    bool
}

// Option configures Run and RunAll.
type Option func(*config)

// WithLogger provides a custom logger for the application runner. If not set,
// the runner uses the logger of the container, or slog.Default() without
// one. A nil value will be ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *config) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithTimeout limits how long the Runnables may take to return once shutdown
// has begun. Non-positive durations are ignored.
func WithTimeout(d time.Duration) Option {
	return func(opts *config) {
		if d > 0 {
			opts.timeout = d
		}
	}
}

// WithSignals replaces the OS signals that trigger a shutdown, SIGTERM and
// SIGINT by default.
func WithSignals(signals ...os.Signal) Option {
	return func(c *config) {
		if len(signals) > 0 {
			c.signals = signals
		}
	}
}

// WithContext sets the parent of the context handed to the Runnables.
// Canceling it triggers a graceful shutdown. A nil value will be ignored.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// WithLazy sets the default laziness passed to di.Container.Start. Bindings
// are created eagerly unless this option is set.
func WithLazy(lazy bool) Option {
	return func(c *config) {
		c.lazy = lazy
	}
}

// Run is a shorthand for RunAll with a single Runnable.
func Run(c *di.Container, fn Runnable, opts ...Option) error {
	return RunAll(c, []Runnable{fn}, opts...)
}

// RunAll provides a managed execution environment for a group of Runnables.
//
// It starts c, launches every Runnable in its own goroutine and blocks until
// they all complete, an OS interrupt signal is caught, or the parent context
// (if specified via WithContext) is canceled. If one Runnable fails or
// panics, the context of the others is canceled. The container is stopped
// before RunAll returns; c may be nil to run without one.
//
// Upon receiving a signal, it cancels the context passed to the Runnables
// and waits for the specified shutdown timeout. Errors equal to
// context.Canceled are treated as a clean exit.
func RunAll(c *di.Container, fns []Runnable, opts ...Option) error {
	cfg := config{
		timeout: DefaultTimeout,
		signals: []os.Signal{syscall.SIGTERM, syscall.SIGINT},
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		if c != nil {
			cfg.logger = c.Logger()
		} else {
			cfg.logger = slog.Default()
		}
	}

	if c != nil {
		if err := c.Start(cfg.lazy); err != nil {
			return fmt.Errorf("failed to start container: %w", err)
		}
		defer c.Stop()
	}

	ctx, cancel := signal.NotifyContext(cfg.ctx, cfg.signals...)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		g.Go(func() error { return safe(gctx, fn) })
	}

	errCh := make(chan error, 1)
	go func() { errCh <- clean(g.Wait()) }()

	cfg.logger.Info("Application started")

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("encountered an application error: %w", err)
		}
		cfg.logger.Info("Application stopped")
		return nil

	case <-ctx.Done():
		cfg.logger.Info("Shutdown signal received, initiating graceful shutdown")

		timer := time.NewTimer(cfg.timeout)
		defer timer.Stop()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("error occurred during shutdown: %w", err)
			}
			cfg.logger.Info("Shutdown completed successfully")
			return nil
		case <-timer.C:
			return fmt.Errorf("shutdown timed out after %v", cfg.timeout)
		}
	}
}

// safe runs fn, converting a panic into an error carrying the stack trace.
func safe(ctx context.Context, fn Runnable) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("application panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return fn(ctx)
}

func clean(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
