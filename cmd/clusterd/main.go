// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Command clusterd runs the opinion-clustering service: the scheduled run
// coordinator (C7), the read-only query API (C9), and the dashboard
// websocket hub, all under one supervisor tree so a crash in any one of
// them does not bring down the others.
//
// A one-shot manual run can be triggered instead of starting the service
// by passing the "trigger" subcommand; see runTrigger below.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/memoriauy/burbujas/internal/api"
	"github.com/memoriauy/burbujas/internal/clustererr"
	"github.com/memoriauy/burbujas/internal/config"
	"github.com/memoriauy/burbujas/internal/events"
	"github.com/memoriauy/burbujas/internal/lease"
	"github.com/memoriauy/burbujas/internal/logging"
	"github.com/memoriauy/burbujas/internal/matrix"
	"github.com/memoriauy/burbujas/internal/models"
	"github.com/memoriauy/burbujas/internal/runner"
	"github.com/memoriauy/burbujas/internal/store"
	"github.com/memoriauy/burbujas/internal/supervisor"
	"github.com/memoriauy/burbujas/internal/votestore"
	"github.com/memoriauy/burbujas/internal/wshub"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "trigger" {
		os.Exit(runTrigger(os.Args[2:]))
	}
	runServe()
}

func runServe() {
	cfg, err := config.Load(os.Getenv(config.ConfigPathEnvVar))
	if err != nil {
		fmt.Fprintln(os.Stderr, "loading config:", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logger := logging.Logger()

	db, err := store.Open(cfg.Storage.DuckDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("opening duckdb store")
	}
	defer db.Close()

	leaseStore, err := lease.Open(cfg.Storage.LeaseDBPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("opening lease store")
	}
	defer leaseStore.Close()

	bus, err := events.Open(events.Config{EmbeddedServer: cfg.Events.EmbeddedServer, URL: cfg.Events.URL}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("opening event bus")
	}
	defer bus.Close()

	wsHub := wshub.New(logger)

	voteStore := votestore.NewCircuitBreakerStore(
		votestore.NewHTTPStore(cfg.VoteStore.BaseURL, cfg.VoteStore.APIKey), logger)

	builder := &matrix.Builder{Store: voteStore, Logger: logger}

	coordinator := &runner.Coordinator{
		Store:   db,
		Lease:   leaseStore,
		Builder: builder,
		Bus:     bus,
		WSHub:   wsHub,
		Logger:  logger,
		Seed:    cfg.Clustering.Seed,
	}

	params := models.RunParameters{
		WindowDays:       cfg.Clustering.WindowDays,
		MinVoters:        cfg.Clustering.MinVoters,
		MinVotesPerVoter: cfg.Clustering.MinVotesPerVoter,
		NeutralEpsilon:   cfg.Clustering.NeutralEpsilon,
		KGroupMin:        cfg.Clustering.KGroupMin,
		KGroupMax:        cfg.Clustering.KGroupMax,
	}

	interval, err := time.ParseDuration(cfg.Clustering.TrainInterval)
	if err != nil {
		logger.Fatal().Err(err).Str("run_interval", cfg.Clustering.TrainInterval).Msg("parsing run interval")
	}

	handler := &api.Handler{
		Store:         db,
		Runner:        coordinator,
		WSHub:         wsHub,
		Logger:        logger,
		DefaultParams: params,
	}

	httpServer := &http.Server{
		Addr:         cfg.API.ListenAddr,
		Handler:      handler.NewRouter(cfg.API),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logger)
	tree.Add(&supervisor.ScheduleService{
		Runner:       coordinator,
		Params:       params,
		Interval:     interval,
		RunOnStartup: false,
		Logger:       logger,
	})
	tree.Add(&supervisor.HTTPService{
		Server:          httpServer,
		ShutdownTimeout: 10 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logger.Info().Str("listen_addr", cfg.API.ListenAddr).Dur("run_interval", interval).Msg("starting clusterd")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("supervisor tree exited with error")
	}
	logger.Info().Msg("clusterd stopped")
}

// runTrigger implements the operational "run once, now" CLI path, exiting
// with the code the run's ErrorKind maps to (clustererr.ExitCode): 0 on
// success, 2 for InsufficientVoters, 3 for AlreadyRunning, 1 otherwise.
func runTrigger(args []string) int {
	fs := flag.NewFlagSet("trigger", flag.ExitOnError)
	windowDays := fs.Int("window_days", 30, "lookback window in days")
	minVoters := fs.Int("min_voters", 50, "minimum distinct voters required")
	minVotesPerVoter := fs.Int("min_votes_per_voter", 3, "minimum votes cast per retained voter")
	sync := fs.Bool("sync", true, "block until the run completes; if false, dispatch to a worker and exit immediately")
	configPath := fs.String("config", "", "path to config.yaml")
	_ = fs.Parse(args)

	if !*sync {
		return dispatchTriggerToWorker(*windowDays, *minVoters, *minVotesPerVoter, *configPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "loading config:", err)
		return 1
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logger := logging.Logger()

	db, err := store.Open(cfg.Storage.DuckDBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "opening duckdb store:", err)
		return 1
	}
	defer db.Close()

	leaseStore, err := lease.Open(cfg.Storage.LeaseDBPath, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "opening lease store:", err)
		return 1
	}
	defer leaseStore.Close()

	voteStore := votestore.NewCircuitBreakerStore(
		votestore.NewHTTPStore(cfg.VoteStore.BaseURL, cfg.VoteStore.APIKey), logger)

	coordinator := &runner.Coordinator{
		Store:   db,
		Lease:   leaseStore,
		Builder: &matrix.Builder{Store: voteStore, Logger: logger},
		Logger:  logger,
		Seed:    cfg.Clustering.Seed,
	}

	params := models.RunParameters{
		WindowDays:       *windowDays,
		MinVoters:        *minVoters,
		MinVotesPerVoter: *minVotesPerVoter,
		NeutralEpsilon:   cfg.Clustering.NeutralEpsilon,
		KGroupMin:        cfg.Clustering.KGroupMin,
		KGroupMax:        cfg.Clustering.KGroupMax,
	}

	summary, err := coordinator.Run(context.Background(), params)
	if err != nil {
		var ce *clustererr.Error
		if errors.As(err, &ce) {
			fmt.Fprintln(os.Stderr, ce.Error())
			return clustererr.ExitCode(ce.Kind)
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Printf("run %s completed: %d groups, silhouette %.3f\n",
		summary.Run.ID, summary.Run.NGroups, summary.Run.Silhouette)
	return 0
}

// dispatchTriggerToWorker implements the sync=false branch of spec.md
// §6.3's Trigger command: it re-execs this binary's synchronous trigger
// path as a detached worker process and returns immediately, rather than
// holding this process's DuckDB and lease handles open across an
// in-process goroutine that a CLI exit would otherwise kill mid-run.
func dispatchTriggerToWorker(windowDays, minVoters, minVotesPerVoter int, configPath string) int {
	exe, err := os.Executable()
	if err != nil {
		fmt.Fprintln(os.Stderr, "resolving executable path for worker dispatch:", err)
		return 1
	}

	workerArgs := []string{
		"trigger",
		"-window_days", strconv.Itoa(windowDays),
		"-min_voters", strconv.Itoa(minVoters),
		"-min_votes_per_voter", strconv.Itoa(minVotesPerVoter),
	}
	if configPath != "" {
		workerArgs = append(workerArgs, "-config", configPath)
	}

	cmd := exec.Command(exe, workerArgs...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "dispatching worker:", err)
		return 1
	}

	fmt.Printf("run dispatched to worker pid %d\n", cmd.Process.Pid)
	return 0
}
