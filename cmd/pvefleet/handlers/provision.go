package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pvetools/pvefleet/internal/provisioning/batch"
	"github.com/pvetools/pvefleet/internal/report"
)

// ProvisionOptions carries the provision command's flags.
type ProvisionOptions struct {
	ConfigPath    string
	InventoryPath string
	Parallel      int
	MetricsAddr   string
	Insecure      bool
}

// Provision runs one batch: load request, connect, orchestrate, report.
//
// The returned error is nil only when every requested guest reached a
// successful terminal status (created or already present), so the process
// exit code reflects partial failure.
func Provision(ctx context.Context, opts ProvisionOptions) error {
	req, err := loadRequest(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Parallel > 0 {
		req.Parallel = opts.Parallel
	}

	client, err := connect(opts.Insecure)
	if err != nil {
		return err
	}

	if opts.MetricsAddr != "" {
		serveMetrics(opts.MetricsAddr)
	}

	result, err := batch.New(client, req).Run(ctx)
	if err != nil {
		return err
	}

	summary := report.Summarize(result)
	fmt.Print(report.Render(summary))

	if opts.InventoryPath != "" {
		if err := writeInventory(summary, opts.InventoryPath); err != nil {
			return err
		}
	}

	if result.FailedCount > 0 {
		return fmt.Errorf("%d of %d guests failed", result.FailedCount, len(result.Outcomes))
	}
	return nil
}

func writeInventory(summary *report.Summary, path string) error {
	data, err := report.Inventory(summary)
	if err != nil {
		return err
	}
	if err := writeFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write inventory: %w", err)
	}
	log.Printf("Inventory written to %s", path)
	return nil
}

// serveMetrics exposes the Prometheus registry for the duration of the run.
// Scrapers see per-guest outcome counters and clone durations.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server: %v", err)
		}
	}()
	log.Printf("Serving metrics on %s/metrics", addr)
}
