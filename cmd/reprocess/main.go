// Command reprocess re-runs enrichment for documents left processing or failed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"docvault/internal/bootstrap"
	"docvault/internal/config"
	"docvault/internal/enrichment"
	"docvault/internal/logging"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup finishes before exit.
func run() int {
	scope := flag.String("scope", "stuck", "documents to re-run: stuck (processing or failed) or failed")
	dryRun := flag.Bool("dry-run", false, "list the selected documents without running them")
	flag.Parse()

	sel, err := enrichment.ParseSelection(*scope)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		return 2
	}

	cfg := config.Load()
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The index stays closed here; the API server rebuilds it from the record store at startup.
	deps, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{})
	if err != nil {
		logger.Error("bootstrap_failed", zap.Error(err))
		return 1
	}
	defer deps.Close()

	sweeper := enrichment.NewSweeper(deps.Documents, deps.Job, logger.With(zap.String("component", "sweep")))
	return execute(ctx, sweeper, sel, *dryRun, os.Stdout, logger)
}

// execute lists or sweeps the selection and reports the exit code:
// 0 on success, 1 when the sweep stopped early or any document failed.
func execute(ctx context.Context, sweeper *enrichment.Sweeper, sel enrichment.Selection, dryRun bool, out io.Writer, logger *zap.Logger) int {
	if dryRun {
		docs, err := sweeper.Candidates(ctx, sel)
		if err != nil {
			logger.Error("sweep_scan_failed", zap.Error(err))
			return 1
		}
		for _, d := range docs {
			fmt.Fprintf(out, "%s\t%s\t%s\n", d.ID, d.ProcessingStatus, d.OriginalName)
		}
		fmt.Fprintf(out, "%d document(s) selected\n", len(docs))
		return 0
	}

	rep, err := sweeper.Sweep(ctx, sel)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(rep)
	if err != nil {
		logger.Error("sweep_failed", zap.Error(err))
		return 1
	}
	if rep.Failed > 0 {
		return 1
	}
	return 0
}
