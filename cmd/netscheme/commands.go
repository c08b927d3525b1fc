package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"netscheme/internal/loader"
	"netscheme/internal/logger"
	"netscheme/internal/scene"
	"netscheme/internal/watcher"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	outputFormat string
	outputPath   string
	tableName    string
	metricsAddr  string
)

var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load a network and print its representations",
	Long: `Load a network description (yaml, json or sqlite) and export the
entity and connection representations it produces.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-export representations whenever the network file changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

var statsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Print load report, maxima and cache counters for a network",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	for _, cmd := range []*cobra.Command{loadCmd, watchCmd} {
		cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "output format (json, yaml)")
		cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")
	}
	for _, cmd := range []*cobra.Command{loadCmd, watchCmd, statsCmd} {
		cmd.Flags().StringVarP(&tableName, "table", "t", scene.TableConnectsTo, "relationship table to draw connections from")
	}
	watchCmd.Flags().StringVar(&metricsAddr, "metrics", "", "serve Prometheus metrics on this address (default from config)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	net, err := readNetwork(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	s, report, err := buildScene(cfg, net, nil)
	if err != nil {
		return err
	}
	logger.Info("network loaded", "file", args[0], "report", report.String())
	return export(s, cmd.OutOrStdout())
}

func export(s *scene.Scene, stdout io.Writer) error {
	if outputPath == "" {
		return writeSnapshot(s, tableName, outputFormat, stdout)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputPath, err)
	}
	if err := writeSnapshot(s, tableName, outputFormat, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	s, err := sceneFromFile(ctx, args[0], reg)
	if err != nil {
		return err
	}
	if err := export(s, cmd.OutOrStdout()); err != nil {
		return err
	}

	events := make(chan scene.Event, 64)
	s.Events().Subscribe(events)
	go logEvents(ctx, events)

	addr := metricsAddr
	if addr == "" {
		addr = cfg.Metrics.Listen
	}
	if addr != "" {
		srv := serveMetrics(addr, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	reload := func(path string) {
		net, err := readNetwork(ctx, path)
		if err != nil {
			logger.Error("reload failed", "file", path, "error", err)
			return
		}
		s.Clear()
		report, err := loader.Apply(net, s)
		if err != nil {
			logger.Error("reload failed", "file", path, "error", err)
			return
		}
		logger.Info("network reloaded", "file", path, "report", report.String())
		if err := export(s, cmd.OutOrStdout()); err != nil {
			logger.Error("export failed", "error", err)
		}
	}

	w := watcher.New(reload, args[0]).WithDebounce(cfg.Watch.Debounce.Duration())
	logger.Info("watching", "file", args[0])
	if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// sceneFromFile loads path into a new scene whose counters register on reg
func sceneFromFile(ctx context.Context, path string, reg prometheus.Registerer) (*scene.Scene, error) {
	net, err := readNetwork(ctx, path)
	if err != nil {
		return nil, err
	}
	s, report, err := buildScene(cfg, net, reg)
	if err != nil {
		return nil, err
	}
	logger.Info("network loaded", "file", path, "report", report.String())
	return s, nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}

func runStats(cmd *cobra.Command, args []string) error {
	net, err := readNetwork(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	s, report, err := buildScene(cfg, net, reg)
	if err != nil {
		return err
	}
	// building the representations drives the cache counters
	s.AllRepresentations()
	if _, err := s.ConnectionRepresentations(s.GIDs(), tableName); err != nil {
		return err
	}
	counters, err := gatherCounters(reg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loaded:    %s\n", report)
	fmt.Fprintf(out, "Defaulted: %d\n", report.Defaulted)
	fmt.Fprintf(out, "Maxima:    magnitude=%g weight=%g depth=%g\n",
		s.MaxMagnitude(), s.MaxAbsoluteWeight(), s.MaxHierarchyDepth())
	fmt.Fprintln(out, "Counters:")
	for _, c := range counters {
		fmt.Fprintf(out, "  %-50s %g\n", c.Name, c.Value)
	}
	return nil
}
