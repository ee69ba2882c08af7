// Package main runs the explorer API: one era poller per chain, the HTTP
// API and the Prometheus metrics endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"validator-explorer/cmd"
	"validator-explorer/internal/api"
	"validator-explorer/internal/collector"
	"validator-explorer/internal/erapoller"
	"validator-explorer/internal/events"
	"validator-explorer/internal/observability"
	"validator-explorer/internal/pricecache"
	"validator-explorer/internal/rewards"
	"validator-explorer/internal/snapshot"
	"validator-explorer/internal/useractions"
	"validator-explorer/internal/validators"
)

func main() {
	app := cli.App{
		Name:   "validator-explorer",
		Usage:  "serves validator, nominator and reward data of staking chains",
		Action: exec,
		Flags: []cli.Flag{
			cmd.ConfigPathFlag,
			cmd.VerbosityFlag,
			cmd.LogFormatFlag,
			cmd.UseMemoryFlag,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("running server failed")
	}
}

func exec(c *cli.Context) error {
	cfg, log, err := cmd.Setup(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	handleSignals(cancel, done, log)

	b, err := cmd.OpenBackends(ctx, cfg, c.Bool(cmd.UseMemoryFlag.Name), log)
	if err != nil {
		return err
	}
	defer b.Close()

	snapshots := snapshot.NewReader(b.SnapshotSource(), log)
	slot := b.EraSlot()
	feed := api.NewEraFeed()

	g, gctx := errgroup.WithContext(ctx)

	chains := make([]*api.Chain, 0, len(cfg.Chains))
	for _, ch := range cfg.Chains {
		alias := strings.ToUpper(ch.Alias)
		stores := b.Chains[alias]

		chains = append(chains, &api.Chain{
			Alias: alias,
			Name:  ch.Name,
			Validators: validators.NewEngine(validators.Options{
				Chain:   alias,
				Stores:  stores,
				Eras:    slot,
				Members: snapshots,
				Log:     log,
			}),
			Rewards: rewards.NewEngine(rewards.Options{
				Rewards:    stores.Rewards,
				Nominators: stores.Nominators,
				Prices:     pricecache.New(alias, stores.Prices, cfg.Prices.CacheSize, cfg.Prices.CacheTTL),
				Log:        log,
			}),
			Events: events.NewService(events.Options{
				Chain:   alias,
				Events:  stores.Events,
				Slashes: stores.Slashes,
				Log:     log,
			}),
		})

		poller := erapoller.New(erapoller.Options{
			Chain:    alias,
			Connect:  b.ChainInfo(alias),
			Slot:     slot,
			Interval: cfg.Poller.Interval,
			OnChange: func(era uint32) { feed.Publish(alias, era) },
			Log:      log,
		})
		g.Go(func() error { return poller.Run(gctx) })
	}

	server := api.New(api.Options{
		Chains:    chains,
		Snapshots: snapshots,
		Collector: collector.NewRunner(collector.Options{
			Dir:        cfg.Collector.Dir,
			Command:    cfg.Collector.Command,
			Timeout:    cfg.Collector.Timeout,
			ReportsDir: cfg.Collector.ReportsDir,
			Log:        log,
		}),
		Actions:     useractions.NewService(useractions.Options{Stores: b.Actions, Log: log}),
		Feed:        feed,
		CORSOrigins: cfg.Server.CORSOrigins,
		ServeWWW:    cfg.Server.ServeWWW,
		WWWDir:      cfg.Server.WWWDir,
		Log:         log,
	})
	g.Go(func() error {
		return server.Run(gctx, fmt.Sprintf(":%d", cfg.Server.Port))
	})

	if cfg.Metrics.Addr != "" {
		g.Go(func() error { return serveMetrics(gctx, cfg.Metrics.Addr, log) })
	}

	err = g.Wait()
	log.Info("shutdown complete")
	return err
}

// handleSignals cancels on the first SIGINT/SIGTERM. A second signal, or a
// shutdown that outlives 30s, exits immediately.
func handleSignals(cancel context.CancelFunc, done <-chan struct{}, log *logrus.Entry) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			log.WithField("signal", sig).Info("received signal, shutting down")
			cancel()
		case <-done:
			return
		}

		select {
		case sig := <-sigCh:
			log.WithField("signal", sig).Warn("received second signal, exiting")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Error("graceful shutdown timed out after 30s, exiting")
			os.Exit(1)
		case <-done:
		}
	}()
}

func serveMetrics(ctx context.Context, addr string, log *logrus.Entry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
