// Command findash-export moves the transaction collection in and out of
// the configured backend as JSON or CSV, for backups and migrations.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"findash/internal/cli"
	"findash/internal/core"
	applog "findash/internal/log"
	"findash/internal/store"
	"findash/internal/transfer"
)

func main() {
	mode := flag.String("mode", "export", "export or import")
	format := flag.String("format", "json", "json or csv")
	file := flag.String("file", "", "file path (default stdout for export, stdin for import)")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger().WithComponent(applog.ComponentExport)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	st, cleanup := cli.OpenStore(ctx, logger, cfg)
	defer func() {
		_ = st.Close()
		if cleanup != nil {
			_ = cleanup()
		}
	}()

	var err error
	switch *mode {
	case "export":
		err = runExport(st, *format, *file)
	case "import":
		err = runImport(ctx, st, *format, *file)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		logger.Error("Operation failed", "mode", *mode, "format", *format, "error", err)
		os.Exit(1)
	}
}

func runExport(st *store.Store, format, file string) error {
	var out io.Writer = os.Stdout
	if file != "" {
		f, err := os.Create(file)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	txs := st.List()
	switch format {
	case "json":
		return transfer.EncodeJSON(out, txs, st.Budget(), time.Now())
	case "csv":
		return transfer.EncodeCSV(out, txs)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func runImport(ctx context.Context, st *store.Store, format, file string) error {
	var in io.Reader = os.Stdin
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("open input file: %w", err)
		}
		defer f.Close()
		in = f
	}

	var (
		txs    []core.Transaction
		budget core.Money
		err    error
	)
	switch format {
	case "json":
		txs, budget, err = transfer.DecodeJSON(in)
	case "csv":
		txs, err = transfer.DecodeCSV(in)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return err
	}

	st.ReplaceAll(ctx, txs)
	if budget.Cents > 0 {
		if err := st.SetBudget(ctx, budget); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "imported %d transactions\n", st.Len())
	return nil
}
