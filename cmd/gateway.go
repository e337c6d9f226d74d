package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chorusbot/chorus/internal/config"
	"github.com/chorusbot/chorus/internal/container"
)

var (
	gatewayMetricsPort int
	gatewayVerbose     bool
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the chorus gateway: connect channels and run all personas",
	RunE:  runGateway,
}

func init() {
	gatewayCmd.Flags().IntVarP(&gatewayMetricsPort, "metrics-port", "p", 0, "Serve Prometheus metrics on this port (0 = off)")
	gatewayCmd.Flags().BoolVarP(&gatewayVerbose, "verbose", "v", false, "Verbose logging")
}

func runGateway(_ *cobra.Command, _ []string) error {
	if gatewayVerbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}

	fmt.Printf("%s Starting chorus gateway...\n", logo)

	if enabled := c.Channels().EnabledChannels(); len(enabled) > 0 {
		fmt.Printf("✓ Channels enabled: %s\n", strings.Join(enabled, ", "))
	} else {
		fmt.Println("Warning: no channels enabled")
	}
	if ids := c.Roles().PersonaIDs(); len(ids) > 0 {
		fmt.Printf("✓ Personas: %s\n", strings.Join(ids, ", "))
	}

	// Graceful shutdown context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return c.Orchestrator().Run(gctx) })
	g.Go(func() error { return c.Janitor().Start(gctx) })
	g.Go(func() error {
		c.Store().StartSweeper(gctx, 10*time.Minute)
		return nil
	})
	g.Go(func() error { return c.Channels().StartAll(gctx) })

	if gatewayMetricsPort > 0 {
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", gatewayMetricsPort),
			Handler: promhttp.Handler(),
		}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutCtx)
			return nil
		})
		fmt.Printf("✓ Metrics on :%d/metrics\n", gatewayMetricsPort)
	}

	fmt.Printf("%s Gateway running. Press Ctrl+C to stop.\n", logo)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "gateway error: %v\n", err)
		return err
	}
	fmt.Println("\nShutdown complete.")
	return nil
}
