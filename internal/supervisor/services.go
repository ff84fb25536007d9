// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package supervisor wraps the two long-running pieces of the clusterd
// process -- the scheduled run loop and the read-only query API -- as
// suture.Service implementations under one supervisor tree, so a crash in
// either is isolated and restarted instead of taking the whole process
// down.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/memoriauy/burbujas/internal/clustererr"
	"github.com/memoriauy/burbujas/internal/logging"
	"github.com/memoriauy/burbujas/internal/models"
)

// DefaultTreeConfig mirrors suture's own built-in defaults; the tree rarely
// needs tuning beyond what suture already picks.
func DefaultTreeConfig() suture.Spec {
	return suture.Spec{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	}
}

// NewTree builds the root supervisor. logger is adapted through
// sutureslog so suture's lifecycle events land in the same structured log
// stream as the rest of the process.
func NewTree(logger zerolog.Logger) *suture.Supervisor {
	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger(logger)}
	spec := DefaultTreeConfig()
	spec.EventHook = handler.MustHook()
	return suture.New("burbujas", spec)
}

// ScheduleRunner is the subset of runner.Coordinator the supervised
// schedule service depends on, kept narrow to avoid an import cycle and to
// make the service testable without a real coordinator.
type ScheduleRunner interface {
	Run(ctx context.Context, params models.RunParameters) (models.RunSummary, error)
}

// ScheduleService runs the clustering pipeline on a fixed interval, the
// supervised equivalent of the recommendation engine's periodic retrain
// loop: an optional run on startup, then a ticker.
type ScheduleService struct {
	Runner       ScheduleRunner
	Params       models.RunParameters
	Interval     time.Duration
	RunOnStartup bool
	Logger       zerolog.Logger
}

func (s *ScheduleService) String() string { return "schedule-service" }

// Serve implements suture.Service. A run failure is logged and never
// escapes Serve: AlreadyRunning is expected under overlap and every other
// failure already left its own Run row with an error_message, so there is
// nothing left for the supervisor to restart over.
func (s *ScheduleService) Serve(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	if s.RunOnStartup {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *ScheduleService) runOnce(ctx context.Context) {
	summary, err := s.Runner.Run(ctx, s.Params)
	if err != nil {
		var ce *clustererr.Error
		if errors.As(err, &ce) && ce.Kind == clustererr.KindAlreadyRunning {
			s.Logger.Debug().Msg("scheduled run skipped: a run is already in progress")
			return
		}
		s.Logger.Warn().Err(err).Msg("scheduled run failed")
		return
	}
	s.Logger.Info().
		Str("run_id", summary.Run.ID.String()).
		Int("n_groups", summary.Run.NGroups).
		Float64("silhouette", summary.Run.Silhouette).
		Msg("scheduled run completed")
}

// HTTPService adapts an *http.Server's blocking ListenAndServe into
// suture's context-aware Serve contract.
type HTTPService struct {
	Server          *http.Server
	ShutdownTimeout time.Duration
}

func (h *HTTPService) String() string { return "api-server" }

func (h *HTTPService) Serve(ctx context.Context) error {
	shutdownTimeout := h.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	errCh := make(chan error, 1)
	go func() {
		if err := h.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := h.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}
