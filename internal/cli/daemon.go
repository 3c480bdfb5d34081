package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bodoithienha2026/WebRDP/internal/domain"
	"github.com/bodoithienha2026/WebRDP/internal/engine"
	"github.com/bodoithienha2026/WebRDP/internal/ipc"
	"github.com/bodoithienha2026/WebRDP/internal/metrics"
	"github.com/bodoithienha2026/WebRDP/internal/provision"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the engine with the local HTTP API",
	Long: `Runs the rewards engine as a long-lived process: the HTTP API for the
control panel, the once-per-second reconcile tick, and the background
provisioner that finishes deployments after the simulated delay.`,
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := ipc.NewHandler(a.engine, a.guard, a.trail, a.delay, a.log)
	srv := ipc.NewServer(handler, a.cfg.API.ListenAddr, a.cfg.API.CORSOrigin)
	ticker := engine.NewTicker(a.engine, a.cfg.Engine.TickInterval())
	runner := provision.NewRunner(a.engine, a.delay, a.log)

	a.log.Info("daemon starting",
		zap.String("addr", ipc.FormatListenURL(a.cfg.API.ListenAddr)),
		zap.Duration("tick", a.cfg.Engine.TickInterval()))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return ignoreCanceled(ticker.Run(ctx)) })
	g.Go(func() error { return ignoreCanceled(runner.Run(ctx)) })
	g.Go(func() error {
		observeEngine(ctx, a)
		return nil
	})
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// observeEngine keeps the Prometheus gauges in sync with engine state.
// Costs are counted here rather than in the engine so it stays free of
// instrumentation.
func observeEngine(ctx context.Context, a *app) {
	ch, cancel := a.engine.Events().Subscribe(64)
	defer cancel()

	refresh := time.NewTicker(15 * time.Second)
	defer refresh.Stop()

	metrics.ObserveSnapshot(a.engine.Snapshot(ctx))

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			metrics.ObserveEvent(ev)
			switch ev.Type {
			case domain.EventLeaseCreated:
				metrics.PointsSpent.Add(float64(a.cfg.Engine.LeaseCreateCost))
			case domain.EventLeaseExtended:
				metrics.PointsSpent.Add(float64(a.cfg.Engine.LeaseExtendCost))
			}
			metrics.ObserveSnapshot(a.engine.Snapshot(ctx))
		case <-refresh.C:
			metrics.ObserveSnapshot(a.engine.Snapshot(ctx))
		}
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
